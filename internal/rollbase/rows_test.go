package rollbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRows_Shapes(t *testing.T) {
	bodies := map[string]string{
		"array of arrays":  `[["123", "PLAN7"]]`,
		"array of objects": `[{"id": "123", "R74136898": "PLAN7"}]`,
		"records wrapper":  `{"records": [{"id": "123", "R74136898": "PLAN7"}]}`,
		"data wrapper":     `{"data": [{"id": 123, "R74136898": "PLAN7"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rows, err := decodeRows([]byte(body))
			require.NoError(t, err)
			row, ok := rows.First()
			require.True(t, ok)
			assert.Equal(t, "123", row.Lookup(0, "id"))
			assert.Equal(t, "PLAN7", row.Lookup(1, "R74136898"))
		})
	}
}

func TestDecodeRows_Empty(t *testing.T) {
	for _, body := range []string{``, `[]`, `{}`, `{"records": []}`} {
		rows, err := decodeRows([]byte(body))
		require.NoError(t, err)
		_, ok := rows.First()
		assert.False(t, ok, "body %q", body)
	}
}

func TestRow_GetIsCaseInsensitiveFallback(t *testing.T) {
	row := NewNamedRow(map[string]any{"Id": "9", "Name": "null"})
	assert.Equal(t, "9", row.Get("id"))
	assert.Equal(t, "", row.Get("name"))
	assert.Equal(t, "", row.At(0))
}

func TestCreatedID(t *testing.T) {
	assert.Equal(t, "55", createdID([]byte(`{"id": 55}`)))
	assert.Equal(t, "56", createdID([]byte(`[{"id": "56"}]`)))
	assert.Equal(t, "57", createdID([]byte(`[["57"]]`)))
	assert.Equal(t, "", createdID([]byte(`{"status": "ok"}`)))
}
