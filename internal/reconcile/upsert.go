package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wompi_webhook/internal/dedup"
	"wompi_webhook/internal/normalize"
	"wompi_webhook/internal/wompi"
)

// Orchestrator writes a resolved notification back to the store: the
// customer's last-payment fields always, a sale record only on approval.
type Orchestrator struct {
	store   Store
	aliases Aliases
	guard   dedup.Guard
	logger  *zap.Logger
	now     func() time.Time
}

// NewOrchestrator creates an Orchestrator. A nil guard allows every sale.
func NewOrchestrator(store Store, aliases Aliases, guard dedup.Guard, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = dedup.Noop{}
	}
	return &Orchestrator{
		store:   store,
		aliases: aliases,
		guard:   guard,
		logger:  logger,
		now:     time.Now,
	}
}

// Apply performs the customer update and the conditional sale creation.
// Store failures are logged and reported in the Outcome, never returned.
func (o *Orchestrator) Apply(ctx context.Context, n *wompi.Notification, res Resolution) Outcome {
	log := o.logger.With(zap.String("reference", n.Reference), zap.String("transaction_id", n.TransactionID))

	out := Outcome{
		Update: o.updateCustomer(ctx, log, n, res),
		SaleID: res.SaleID,
	}
	var saleID string
	out.Sale, saleID = o.createSale(ctx, log, n, res)
	if saleID != "" {
		out.SaleID = saleID
	}
	return out
}

type field struct {
	name     string
	value    string
	required bool
}

func (o *Orchestrator) updateCustomer(ctx context.Context, log *zap.Logger, n *wompi.Notification, res Resolution) StageResult {
	if res.CustomerID == "" {
		return stageSkipped("customer not resolved")
	}

	candidates := []field{
		{name: FieldReference, value: n.Reference, required: true},
		{name: FieldCustomerID, value: res.CustomerID, required: true},
		{name: FieldPlanID, value: res.PlanID},
		{name: FieldPlanName, value: res.PlanName},
		{name: FieldTimestamp, value: o.now().UTC().Format("2006-01-02T15:04:05.000Z"), required: true},
		{name: FieldStatus, value: n.Status, required: true},
		{name: FieldCustomerEmail, value: n.CustomerEmail},
		{name: FieldAmountInCents, value: n.AmountInCents},
	}

	fields := make(map[string]any, len(candidates)+1)
	for _, f := range candidates {
		v, ok := normalize.CleanOrNull(f.value)
		if !ok {
			if f.required {
				log.Warn("required customer field is empty", zap.String("field", f.name))
			}
			continue
		}
		fields[f.name] = v
	}
	if n.Approved() {
		if plan, ok := normalize.CleanOrNull(res.PlanID); ok {
			fields[CustomerActivePlanField] = plan
		}
	}
	if len(fields) == 0 {
		return stageSkipped("no valid fields")
	}

	if err := o.store.Update(ctx, CustomerObject, res.CustomerID, fields); err != nil {
		log.Error("customer update failed", zap.String("customer_id", res.CustomerID), zap.Error(err))
		return stageFailed("update failed", err)
	}
	log.Info("customer updated", zap.String("customer_id", res.CustomerID), zap.Int("fields", len(fields)))
	return stageOK()
}

func (o *Orchestrator) createSale(ctx context.Context, log *zap.Logger, n *wompi.Notification, res Resolution) (StageResult, string) {
	switch {
	case !n.Approved():
		return stageSkipped("status is not approved"), ""
	case res.CustomerID == "":
		return stageSkipped("customer not resolved"), ""
	case n.Reference == "":
		return stageSkipped("missing reference"), ""
	}

	if n.TransactionID != "" {
		first, err := o.guard.Claim(ctx, n.TransactionID)
		if err != nil {
			log.Warn("duplicate guard unavailable, creating sale anyway", zap.Error(err))
		} else if !first {
			log.Info("sale already created for transaction, skipping")
			return stageSkipped("duplicate notification"), ""
		}
	}

	fields := o.saleFields(n, res)
	var errs []error
	for _, obj := range o.aliases.SaleObjects {
		id, err := o.store.Create(ctx, obj, fields)
		if err != nil {
			log.Warn("sale create attempt failed", zap.String("object", obj), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		log.Info("sale created", zap.String("object", obj), zap.String("sale_id", id))
		return stageOK(), id
	}

	if n.TransactionID != "" {
		if err := o.guard.Release(context.WithoutCancel(ctx), n.TransactionID); err != nil {
			log.Warn("could not release duplicate guard", zap.Error(err))
		}
	}
	err := errors.Join(errs...)
	log.Error("sale creation failed for every object name", zap.Error(err))
	return stageFailed("create failed", err), ""
}

func (o *Orchestrator) saleFields(n *wompi.Notification, res Resolution) map[string]any {
	fields := map[string]any{
		SaleNameField:     n.Reference,
		SaleCustomerField: res.CustomerID,
	}
	set := func(names []string, v string) {
		v, ok := normalize.CleanOrNull(v)
		if !ok {
			return
		}
		for _, name := range names {
			fields[name] = v
		}
	}

	set(o.aliases.SalePlan, res.PlanID)
	set(o.aliases.SalePlanName, res.PlanName)
	set(o.aliases.SaleDiscountID, res.DiscountCodeID)
	set(o.aliases.SaleDiscountName, res.DiscountCodeName)
	if total, ok := normalize.PositiveAmount(res.TotalValue); ok {
		set(o.aliases.SaleTotal, total)
	}
	set(o.aliases.SaleUsageCounter, "0")
	return fields
}
