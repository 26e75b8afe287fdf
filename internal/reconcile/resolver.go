// Package reconcile maps Wompi notifications onto Rollbase customer, plan and
// sale records and writes the payment result back.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wompi_webhook/internal/normalize"
	"wompi_webhook/internal/rollbase"
	"wompi_webhook/internal/wompi"
)

// Store is the subset of the record store client the reconciler needs.
type Store interface {
	Query(ctx context.Context, sql string, maxRows int) (rollbase.Rows, error)
	Create(ctx context.Context, objName string, fields map[string]any) (string, error)
	Update(ctx context.Context, objName, id string, fields map[string]any) error
}

// Resolver runs the ordered lookup chain that finds which customer and plan a
// notification belongs to. Each step only fills what is still unknown, so a
// value found earlier is never replaced by a later one.
type Resolver struct {
	store   Store
	aliases Aliases
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(store Store, aliases Aliases, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, aliases: aliases, logger: logger}
}

// Resolve never fails: whatever subset of identifiers was found is returned
// and the caller proceeds with it.
func (r *Resolver) Resolve(ctx context.Context, n *wompi.Notification) Resolution {
	log := r.logger.With(zap.String("reference", n.Reference), zap.String("transaction_id", n.TransactionID))
	var res Resolution

	r.fromCheckout(n, &res)

	if res.CustomerID == "" {
		r.byReference(ctx, log, n.Reference, &res)
	}

	if res.CustomerSource == SourceCheckout {
		r.verifyCheckoutCustomer(ctx, log, n.Reference, &res)
	}

	emailChecked := false
	if res.CustomerID == "" && n.CustomerEmail != "" {
		emailChecked = r.byEmailAndLatestSale(ctx, log, n.CustomerEmail, &res)
	}

	if res.CustomerID != "" && res.PlanID == "" && n.Reference != "" {
		r.planFromSales(ctx, log, n.Reference, &res)
	}

	r.planName(ctx, log, &res)

	if res.CustomerID == "" && n.CustomerEmail != "" && !emailChecked {
		if r.byEmail(ctx, log, n.CustomerEmail, &res) {
			r.planName(ctx, log, &res)
		}
	}

	log.Info("notification resolved",
		zap.String("level", string(res.Level())),
		zap.String("customer_id", res.CustomerID),
		zap.String("customer_source", string(res.CustomerSource)),
		zap.String("plan_id", res.PlanID),
		zap.String("sale_id", res.SaleID),
	)
	return res
}

// fromCheckout takes identifiers straight from the checkout data.
func (r *Resolver) fromCheckout(n *wompi.Notification, res *Resolution) {
	cd := n.Checkout
	if cd.CustomerID != "" {
		res.CustomerID = cd.CustomerID
		res.CustomerSource = SourceCheckout
	}
	res.PlanID = cd.PlanID
	res.DiscountCodeID = cd.DiscountCodeID
	res.DiscountCodeName = cd.DiscountCodeName
	res.TotalValue = cd.TotalValue
}

// byReference searches customers whose stored gateway reference equals ref,
// trying every spelling of the reference field.
func (r *Resolver) byReference(ctx context.Context, log *zap.Logger, ref string, res *Resolution) {
	if ref == "" {
		return
	}
	cols := strings.Join(r.aliases.customerColumns(), ", ")
	for _, field := range r.aliases.CustomerReference {
		sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s'",
			cols, CustomerObject, field, normalize.EscapeForQuery(ref))
		row, found := r.first(ctx, log, sql)
		if !found {
			continue
		}
		id := row.Lookup(0, "id", "Id")
		if id == "" {
			continue
		}
		res.CustomerID = id
		res.CustomerSource = SourceReference
		fillIfEmpty(&res.PlanID, row.Lookup(1, CustomerActivePlanField))
		r.harvestCustomer(row, res)
		log.Debug("customer found by reference", zap.String("field", field), zap.String("customer_id", id))
		return
	}
}

// verifyCheckoutCustomer re-reads the customer named by the checkout data to
// recover plan and discount fields. A stored reference that differs from the
// notification is only logged.
func (r *Resolver) verifyCheckoutCustomer(ctx context.Context, log *zap.Logger, ref string, res *Resolution) {
	cols := r.aliases.customerColumns()
	hasRef := len(r.aliases.CustomerReference) > 0
	if hasRef {
		cols = append(cols, r.aliases.CustomerReference[0])
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = '%s'",
		strings.Join(cols, ", "), CustomerObject, normalize.EscapeForQuery(res.CustomerID))

	row, found := r.first(ctx, log, sql)
	if !found {
		log.Warn("checkout customer not found in store, keeping id", zap.String("customer_id", res.CustomerID))
		return
	}
	fillIfEmpty(&res.PlanID, row.Lookup(1, CustomerActivePlanField))
	r.harvestCustomer(row, res)

	if !hasRef {
		return
	}
	stored := row.Lookup(len(cols)-1, r.aliases.CustomerReference...)
	if stored != "" && stored != ref {
		log.Warn("stored reference differs from notification",
			zap.String("customer_id", res.CustomerID),
			zap.String("stored_reference", stored),
		)
	}
}

// byEmailAndLatestSale finds the customer by email and then that customer's
// most recent sale. It reports whether the email lookup itself ran cleanly.
func (r *Resolver) byEmailAndLatestSale(ctx context.Context, log *zap.Logger, email string, res *Resolution) bool {
	sql := fmt.Sprintf("SELECT id, %s FROM %s WHERE %s = '%s'",
		CustomerActivePlanField, CustomerObject, CustomerEmailField, normalize.EscapeForQuery(email))
	rows, err := r.store.Query(ctx, sql, 1)
	if err != nil {
		log.Warn("customer lookup by email failed", zap.Error(err))
		return false
	}
	row, found := rows.First()
	if !found {
		return true
	}
	customerID := row.Lookup(0, "id", "Id")
	if customerID == "" {
		return true
	}
	res.CustomerID = customerID
	res.CustomerSource = SourceEmail
	customerPlan := row.Lookup(1, CustomerActivePlanField)

	for _, obj := range r.aliases.SaleObjects {
		sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s' ORDER BY %s DESC",
			strings.Join(saleColumns(), ", "), obj, SaleCustomerField,
			normalize.EscapeForQuery(customerID), SaleCreatedField)
		sale, found := r.first(ctx, log, sql)
		if !found {
			continue
		}
		if sale.Lookup(1, SaleCustomerField) != customerID {
			log.Debug("latest sale belongs to another customer", zap.String("object", obj))
			continue
		}
		res.SaleID = sale.Lookup(0, "id", "Id")
		fillIfEmpty(&res.PlanID, sale.Lookup(2, r.aliases.SalePlan...))
		break
	}
	fillIfEmpty(&res.PlanID, customerPlan)
	return true
}

// planFromSales looks for the plan on the sale created at checkout time,
// relaxing the match step by step.
func (r *Resolver) planFromSales(ctx context.Context, log *zap.Logger, ref string, res *Resolution) {
	escRef := normalize.EscapeForQuery(ref)
	escCustomer := normalize.EscapeForQuery(res.CustomerID)
	conditions := []string{
		fmt.Sprintf("%s = '%s' AND %s = '%s'", SaleNameField, escRef, SaleCustomerField, escCustomer),
		fmt.Sprintf("%s = '%s'", SaleNameField, escRef),
		fmt.Sprintf("%s = '%s'", SaleCustomerField, escCustomer),
	}
	cols := strings.Join(saleColumns(), ", ")

	for _, cond := range conditions {
		for _, obj := range r.aliases.SaleObjects {
			sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", cols, obj, cond)
			row, found := r.first(ctx, log, sql)
			if !found {
				continue
			}
			if plan := row.Lookup(2, r.aliases.SalePlan...); plan != "" {
				res.PlanID = plan
				log.Debug("plan found on sale", zap.String("object", obj), zap.String("plan_id", plan))
				return
			}
		}
	}
}

// planName reads the plan's display name once the plan id is known.
func (r *Resolver) planName(ctx context.Context, log *zap.Logger, res *Resolution) {
	if res.PlanID == "" || res.PlanName != "" {
		return
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = '%s'",
		PlanNameField, PlanObject, normalize.EscapeForQuery(res.PlanID))
	if row, found := r.first(ctx, log, sql); found {
		res.PlanName = row.Lookup(0, PlanNameField, "Name")
	}
}

// byEmail is the last resort when nothing else identified the customer.
func (r *Resolver) byEmail(ctx context.Context, log *zap.Logger, email string, res *Resolution) bool {
	sql := fmt.Sprintf("SELECT id, %s FROM %s WHERE %s = '%s'",
		CustomerActivePlanField, CustomerObject, CustomerEmailField, normalize.EscapeForQuery(email))
	row, found := r.first(ctx, log, sql)
	if !found {
		return false
	}
	id := row.Lookup(0, "id", "Id")
	if id == "" {
		return false
	}
	res.CustomerID = id
	res.CustomerSource = SourceEmail
	fillIfEmpty(&res.PlanID, row.Lookup(1, CustomerActivePlanField))
	return true
}

// harvestCustomer copies discount and total fields from a customer row where
// they are still unknown.
func (r *Resolver) harvestCustomer(row rollbase.Row, res *Resolution) {
	fillIfEmpty(&res.DiscountCodeID, row.Lookup(r.aliases.discountIDPos(), r.aliases.CustomerDiscountID...))
	fillIfEmpty(&res.DiscountCodeName, row.Lookup(r.aliases.discountNamePos(), r.aliases.CustomerDiscountName...))
	fillIfEmpty(&res.TotalValue, row.Lookup(r.aliases.totalPos(), r.aliases.CustomerTotal...))
}

// first runs sql and returns its first row. Failures are logged and treated
// as "nothing found".
func (r *Resolver) first(ctx context.Context, log *zap.Logger, sql string) (rollbase.Row, bool) {
	rows, err := r.store.Query(ctx, sql, 1)
	if err != nil {
		log.Warn("record store query failed", zap.String("query", sql), zap.Error(err))
		return rollbase.Row{}, false
	}
	return rows.First()
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
