package wompi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EnvelopesAreEquivalent(t *testing.T) {
	bodies := map[string]string{
		"event": `{"event":"transaction.updated","data":{"transaction":{"id":"tx-1","reference":"MUSAS-1-2-3-99","status":"APPROVED","amount_in_cents":50000,"customer_email":"a@b.com"}}}`,
		"data":  `{"data":{"id":"tx-1","reference":"MUSAS-1-2-3-99","status":"APPROVED","amount_in_cents":50000,"customer_email":"a@b.com"}}`,
		"flat":  `{"id":"tx-1","reference":"MUSAS-1-2-3-99","status":"APPROVED","amount_in_cents":50000,"customer_email":"a@b.com"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			n, err := Parse([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, "tx-1", n.TransactionID)
			assert.Equal(t, "MUSAS-1-2-3-99", n.Reference)
			assert.Equal(t, "APPROVED", n.Status)
			assert.Equal(t, "50000", n.AmountInCents)
			assert.Equal(t, "a@b.com", n.CustomerEmail)
			assert.Equal(t, "COP", n.Currency)
			assert.True(t, n.Approved())
			assert.NoError(t, n.Validate())
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"data":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Parse([]byte(`null`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidate(t *testing.T) {
	n, err := Parse([]byte(`{"reference":"undefined","status":"APPROVED"}`))
	require.NoError(t, err)
	assert.ErrorIs(t, n.Validate(), ErrInvalidReference)

	n, err = Parse([]byte(`{"reference":"REF","status":"null"}`))
	require.NoError(t, err)
	assert.ErrorIs(t, n.Validate(), ErrInvalidStatus)
}

func TestParse_CheckoutDataObject(t *testing.T) {
	body := `{"data":{"transaction":{"reference":"R","status":"PENDING",
		"customer_data":{"musaId":"M1","plan_id":"P1","codigoDescuentoId":"D1","codigo_descuento_nombre":"PROMO","valorTotal":89900}}}}`

	n, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, CheckoutData{
		CustomerID:       "M1",
		PlanID:           "P1",
		DiscountCodeID:   "D1",
		DiscountCodeName: "PROMO",
		TotalValue:       "89900",
	}, n.Checkout)
	assert.False(t, n.Approved())
}

func TestParse_CheckoutDataStringAndMetadata(t *testing.T) {
	body := `{"data":{"transaction":{"reference":"R","status":"APPROVED",
		"metadata":{"customerData":"{\"customerId\":\"M2\",\"planId\":\"P2\"}"}}}}`

	n, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "M2", n.Checkout.CustomerID)
	assert.Equal(t, "P2", n.Checkout.PlanID)
}

func TestParse_BrokenCheckoutDataIsIgnored(t *testing.T) {
	n, err := Parse([]byte(`{"reference":"R","status":"APPROVED","customer_data":"{not json"}`))
	require.NoError(t, err)
	assert.Equal(t, CheckoutData{}, n.Checkout)
}

func TestSnapshotOmitsEmpty(t *testing.T) {
	n, err := Parse([]byte(`{"reference":"R","status":"DECLINED"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"reference": "R", "status": "DECLINED", "currency": "COP"}, n.Snapshot())
}
