// Package normalize canonicalizes values that travel between the payment
// gateway and the record store. Everything here is pure.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EscapeForQuery doubles single quotes, the literal-escaping convention of the
// record store query language. Every string literal placed in a query must go
// through it.
func EscapeForQuery(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// CleanOrNull returns the trimmed string form of v and true, or "" and false
// when v is absent, blank, or one of the stringified absence markers
// "null"/"undefined" (any case).
func CleanOrNull(v any) (string, bool) {
	s, ok := stringify(v)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	switch strings.ToLower(s) {
	case "null", "undefined":
		return "", false
	}
	return s, true
}

// Clean is CleanOrNull without the presence flag.
func Clean(v any) string {
	s, _ := CleanOrNull(v)
	return s
}

// PositiveAmount parses s as a float and returns its canonical form only when
// it is strictly positive.
func PositiveAmount(s string) (string, bool) {
	s, ok := CleanOrNull(s)
	if !ok {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
