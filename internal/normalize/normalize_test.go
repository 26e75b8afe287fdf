package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForQuery(t *testing.T) {
	assert.Equal(t, "O''Brien", EscapeForQuery("O'Brien"))
	assert.Equal(t, "''''", EscapeForQuery("''"))
	assert.Equal(t, "plain", EscapeForQuery("plain"))
}

func TestCleanOrNull_Absent(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "null", "NULL", "undefined", "UNDEFINED", " Null "} {
		got, ok := CleanOrNull(in)
		assert.False(t, ok, "input %q should be absent", in)
		assert.Empty(t, got)
	}
}

func TestCleanOrNull_Values(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: "  abc ", want: "abc"},
		{in: json.Number("50000"), want: "50000"},
		{in: float64(50000), want: "50000"},
		{in: 12.5, want: "12.5"},
		{in: 0, want: "0"},
		{in: int64(7), want: "7"},
		{in: true, want: "true"},
		{in: "nullable", want: "nullable"},
	}
	for _, tt := range tests {
		got, ok := CleanOrNull(tt.in)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestCleanOrNull_Idempotent(t *testing.T) {
	inputs := []any{nil, "", " x ", "null", "Undefined", json.Number("1.50"), 3.0, "O'Brien"}
	for _, in := range inputs {
		once, okOnce := CleanOrNull(in)
		var twice string
		var okTwice bool
		if okOnce {
			twice, okTwice = CleanOrNull(once)
		}
		assert.Equal(t, okOnce, okTwice)
		assert.Equal(t, once, twice)
	}
}

func TestPositiveAmount(t *testing.T) {
	got, ok := PositiveAmount("89900.50")
	assert.True(t, ok)
	assert.Equal(t, "89900.5", got)

	for _, in := range []string{"", "0", "-10", "abc", "null"} {
		_, ok := PositiveAmount(in)
		assert.False(t, ok, "input %q", in)
	}
}
