package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// fields objeto JSON sin tipar; los getters prueban varias claves y usan la primera presente y no nula.
type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

// decodeList devuelve los objetos de un array; cualquier otra cosa es una lista vacía.
func decodeList(raw json.RawMessage) []fields {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]fields, 0, len(items))
	for _, it := range items {
		if f, ok := decodeFields(it); ok {
			out = append(out, f)
		}
	}
	return out
}

func (f fields) pick(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := f[k]
		if ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

// str acepta strings y números (ids numéricos).
func (f fields) str(keys ...string) string {
	v, ok := f.pick(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (f fields) decimal(keys ...string) decimal.Decimal {
	v, ok := f.pick(keys...)
	if !ok {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		return decimal.Zero
	}
	return d
}

func (f fields) int(keys ...string) int {
	v, ok := f.pick(keys...)
	if !ok {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if fl, err := n.Float64(); err == nil {
			return int(fl)
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i
		}
	}
	return 0
}

func (f fields) bool(keys ...string) bool {
	v, ok := f.pick(keys...)
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(v, &b)
	return b
}

func (f fields) time(keys ...string) time.Time {
	s := f.str(keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (f fields) object(keys ...string) (fields, bool) {
	v, ok := f.pick(keys...)
	if !ok {
		return nil, false
	}
	return decodeFields(v)
}
