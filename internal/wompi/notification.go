// Package wompi decodes Wompi payment notifications and checks their
// signatures.
package wompi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wompi_webhook/internal/normalize"
)

var (
	ErrInvalidPayload   = errors.New("invalid notification payload")
	ErrInvalidReference = errors.New("invalid transaction reference")
	ErrInvalidStatus    = errors.New("invalid transaction status")
	ErrInvalidSignature = errors.New("invalid notification signature")
)

// StatusApproved is the terminal success status of a transaction.
const StatusApproved = "APPROVED"

// CheckoutData is what the checkout flow embedded in the transaction before
// redirecting to the gateway. It is the most trusted source of identifiers.
type CheckoutData struct {
	CustomerID       string
	PlanID           string
	DiscountCodeID   string
	DiscountCodeName string
	TotalValue       string
}

// Notification is a transaction event flattened out of whichever envelope
// the gateway used.
type Notification struct {
	Event             string
	EventID           string
	EventCreatedAt    string
	TransactionID     string
	Reference         string
	Status            string
	AmountInCents     string
	Currency          string
	CustomerEmail     string
	CustomerName      string
	CreatedAt         string
	PaymentMethodType string
	Checkout          CheckoutData
}

// Parse decodes a notification body. The envelopes
// {event, data:{transaction:{...}}}, {data:{...}} and a flat object are
// equivalent.
func Parse(body []byte) (*Notification, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var event map[string]any
	if err := dec.Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if event == nil {
		return nil, ErrInvalidPayload
	}

	data := event
	if d, ok := event["data"].(map[string]any); ok {
		data = d
	}
	tx := data
	if t, ok := data["transaction"].(map[string]any); ok {
		tx = t
	}
	scopes := []map[string]any{tx, data, event}

	n := &Notification{
		Event:             normalize.Clean(event["event"]),
		EventID:           first([]map[string]any{event, data}, "id"),
		EventCreatedAt:    first([]map[string]any{event, data}, "created_at"),
		TransactionID:     first(scopes, "id"),
		Reference:         first(scopes, "reference"),
		Status:            first(scopes, "status"),
		AmountInCents:     first(scopes, "amount_in_cents"),
		Currency:          first(scopes, "currency"),
		CustomerEmail:     first(scopes, "customer_email"),
		CustomerName:      first(scopes, "customer_name"),
		CreatedAt:         first(scopes, "created_at"),
		PaymentMethodType: first(scopes, "payment_method_type"),
	}
	if n.Currency == "" {
		n.Currency = "COP"
	}
	// A literal 0 amount carries no information for the store.
	if n.AmountInCents == "0" {
		n.AmountInCents = ""
	}
	n.Checkout = checkoutData(tx, data, event)
	return n, nil
}

// Validate rejects notifications that cannot be correlated at all.
func (n *Notification) Validate() error {
	if _, ok := normalize.CleanOrNull(n.Reference); !ok {
		return ErrInvalidReference
	}
	if _, ok := normalize.CleanOrNull(n.Status); !ok {
		return ErrInvalidStatus
	}
	return nil
}

// Approved reports whether the transaction reached the approved state.
func (n *Notification) Approved() bool {
	return strings.EqualFold(n.Status, StatusApproved)
}

// Snapshot is the subset of the transaction worth keeping for diagnostics.
func (n *Notification) Snapshot() map[string]string {
	out := map[string]string{}
	for k, v := range map[string]string{
		"id":                  n.TransactionID,
		"reference":           n.Reference,
		"status":              n.Status,
		"amount_in_cents":     n.AmountInCents,
		"currency":            n.Currency,
		"customer_email":      n.CustomerEmail,
		"customer_name":       n.CustomerName,
		"created_at":          n.CreatedAt,
		"payment_method_type": n.PaymentMethodType,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func first(scopes []map[string]any, key string) string {
	for _, s := range scopes {
		if v, ok := normalize.CleanOrNull(s[key]); ok {
			return v
		}
	}
	return ""
}

func checkoutData(tx, data, event map[string]any) CheckoutData {
	var raw any
	candidates := []map[string]any{tx, data, event}
	if meta, ok := tx["metadata"].(map[string]any); ok {
		candidates = append(candidates, meta)
	}
	for _, c := range candidates {
		if v, ok := c["customer_data"]; ok && v != nil {
			raw = v
			break
		}
		if v, ok := c["customerData"]; ok && v != nil {
			raw = v
			break
		}
	}

	var obj map[string]any
	switch v := raw.(type) {
	case map[string]any:
		obj = v
	case string:
		dec := json.NewDecoder(strings.NewReader(v))
		dec.UseNumber()
		// Unparseable checkout data is ignored; resolution falls back to lookups.
		if err := dec.Decode(&obj); err != nil {
			return CheckoutData{}
		}
	default:
		return CheckoutData{}
	}

	scope := []map[string]any{obj}
	return CheckoutData{
		CustomerID:       firstOf(scope, "musaId", "musa_id", "customerId", "customer_id"),
		PlanID:           firstOf(scope, "planId", "plan_id"),
		DiscountCodeID:   firstOf(scope, "codigoDescuentoId", "codigo_descuento_id", "discountCodeId"),
		DiscountCodeName: firstOf(scope, "codigoDescuentoNombre", "codigo_descuento_nombre", "discountCodeName"),
		TotalValue:       firstOf(scope, "valorTotal", "valor_total", "totalValue"),
	}
}

func firstOf(scopes []map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := first(scopes, k); v != "" {
			return v
		}
	}
	return ""
}
