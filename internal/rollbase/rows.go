package rollbase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"wompi_webhook/internal/normalize"
)

// Row is one record returned by a query. Rows decoded from array-of-arrays
// responses are positional; rows from array-of-objects responses are named.
type Row struct {
	values []any
	fields map[string]any
}

// NewRow builds a positional row.
func NewRow(values ...any) Row {
	return Row{values: values}
}

// NewNamedRow builds a row addressable by field name.
func NewNamedRow(fields map[string]any) Row {
	return Row{fields: fields}
}

// Get returns the cleaned value of the named field. An exact match wins over a
// case-insensitive one.
func (r Row) Get(name string) string {
	if r.fields == nil {
		return ""
	}
	if v, ok := r.fields[name]; ok {
		return normalize.Clean(v)
	}
	for k, v := range r.fields {
		if strings.EqualFold(k, name) {
			return normalize.Clean(v)
		}
	}
	return ""
}

// At returns the cleaned value at pos for positional rows.
func (r Row) At(pos int) string {
	if pos < 0 || pos >= len(r.values) {
		return ""
	}
	return normalize.Clean(r.values[pos])
}

// Lookup tries each name in order and then falls back to position pos.
// A negative pos disables the positional fallback.
func (r Row) Lookup(pos int, names ...string) string {
	for _, n := range names {
		if v := r.Get(n); v != "" {
			return v
		}
	}
	if pos >= 0 {
		return r.At(pos)
	}
	return ""
}

// Rows is a normalized query result.
type Rows []Row

// First returns the first row, if any.
func (rs Rows) First() (Row, bool) {
	if len(rs) == 0 {
		return Row{}, false
	}
	return rs[0], true
}

// decodeRows flattens the response shapes the store is known to return:
// [[...]], [{...}], {"records":[...]} and {"data":[...]}.
func decodeRows(body []byte) (Rows, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	var items []any
	switch t := raw.(type) {
	case []any:
		items = t
	case map[string]any:
		if recs, ok := t["records"].([]any); ok {
			items = recs
		} else if data, ok := t["data"].([]any); ok {
			items = data
		}
	}

	rows := make(Rows, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case []any:
			rows = append(rows, NewRow(v...))
		case map[string]any:
			rows = append(rows, NewNamedRow(v))
		case nil:
		default:
			rows = append(rows, NewRow(v))
		}
	}
	return rows, nil
}

// storeStatus is the envelope the store uses to report failures with HTTP 200.
type storeStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      any    `json:"id"`
	Msg     string `json:"Msg"`
}

// parseStatus reads the status envelope when body is a JSON object.
func parseStatus(body []byte) (storeStatus, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return storeStatus{}, false
	}
	var st storeStatus
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&st); err != nil {
		return storeStatus{}, false
	}
	return st, true
}

func (st storeStatus) failed() bool {
	return strings.EqualFold(st.Status, "fail")
}

// createdID extracts the new record id from {"id":..}, [{"id":..}] or [[id]].
func createdID(body []byte) string {
	if st, ok := parseStatus(body); ok {
		return normalize.Clean(st.ID)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return ""
	}
	if row, ok := rows.First(); ok {
		return row.Lookup(0, "id", "Id")
	}
	return ""
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &Error{Kind: KindTransport, Op: "decode", Err: err}
	}
	return nil
}
