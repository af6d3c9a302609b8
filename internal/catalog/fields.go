package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"slices"
)

var errNotObject = errors.New("product body must be a JSON object")

const (
	keyID       = "id"
	keyName     = "name"
	keyPrice    = "price"
	keyCategory = "category"
	keyStock    = "stock"
	keyActive   = "active"
)

// Fields is a partial product: nil means the attribute was not supplied.
// Nothing is required and nothing is rejected. A value that does not fit its
// attribute's type, or a key that names no attribute, is kept verbatim in
// Extra. A key is never both a typed attribute and an Extra entry.
type Fields struct {
	Name     *string
	Price    *float64
	Category *string
	Stock    *int64
	Active   *bool

	Extra map[string]json.RawMessage
}

type Product struct {
	ID int64
	Fields
}

// Merge returns f with every key supplied in patch overwritten.
func (f Fields) Merge(patch Fields) Fields {
	out := f.clone()
	if patch.Name != nil {
		out.Name = ptr(*patch.Name)
		delete(out.Extra, keyName)
	}
	if patch.Price != nil {
		out.Price = ptr(*patch.Price)
		delete(out.Extra, keyPrice)
	}
	if patch.Category != nil {
		out.Category = ptr(*patch.Category)
		delete(out.Extra, keyCategory)
	}
	if patch.Stock != nil {
		out.Stock = ptr(*patch.Stock)
		delete(out.Extra, keyStock)
	}
	if patch.Active != nil {
		out.Active = ptr(*patch.Active)
		delete(out.Extra, keyActive)
	}

	for k, v := range patch.Extra {
		out.clearAttribute(k)
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage, len(patch.Extra))
		}
		out.Extra[k] = bytes.Clone(v)
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	return out
}

func (f Fields) clone() Fields {
	out := Fields{
		Name:     clonePtr(f.Name),
		Price:    clonePtr(f.Price),
		Category: clonePtr(f.Category),
		Stock:    clonePtr(f.Stock),
		Active:   clonePtr(f.Active),
	}
	if len(f.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(f.Extra))
		for k, v := range f.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

func (f *Fields) clearAttribute(key string) {
	switch key {
	case keyName:
		f.Name = nil
	case keyPrice:
		f.Price = nil
	case keyCategory:
		f.Category = nil
	case keyStock:
		f.Stock = nil
	case keyActive:
		f.Active = nil
	}
}

// UnmarshalJSON accepts any JSON object. An "id" key and null values are
// treated as absent.
func (f *Fields) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errNotObject
		}
		return err
	}
	if raw == nil {
		return errNotObject
	}

	var out Fields
	for k, v := range raw {
		if k == keyID || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		if out.setAttribute(k, v) {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*f = out
	return nil
}

// setAttribute reports whether v was stored in a typed attribute.
func (f *Fields) setAttribute(key string, v json.RawMessage) bool {
	switch key {
	case keyName:
		return decodeInto(v, &f.Name)
	case keyPrice:
		return decodeInto(v, &f.Price)
	case keyCategory:
		return decodeInto(v, &f.Category)
	case keyStock:
		return decodeInto(v, &f.Stock)
	case keyActive:
		return decodeInto(v, &f.Active)
	}
	return false
}

func decodeInto[T any](v json.RawMessage, dst **T) bool {
	var x T
	if err := json.Unmarshal(v, &x); err != nil {
		return false
	}
	*dst = &x
	return true
}

func (f Fields) MarshalJSON() ([]byte, error) {
	return f.encode(nil)
}

func (p Product) MarshalJSON() ([]byte, error) {
	return p.Fields.encode(&p.ID)
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var head struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}

	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	*p = Product{ID: head.ID, Fields: f}
	return nil
}

// encode writes id first, then the typed attributes, then Extra in key order.
func (f Fields) encode(id *int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	n := 0
	member := func(key string, v any) error {
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	type attr struct {
		key string
		set bool
		val func() any
	}
	attrs := []attr{
		{keyID, id != nil, func() any { return *id }},
		{keyName, f.Name != nil, func() any { return *f.Name }},
		{keyPrice, f.Price != nil, func() any { return *f.Price }},
		{keyCategory, f.Category != nil, func() any { return *f.Category }},
		{keyStock, f.Stock != nil, func() any { return *f.Stock }},
		{keyActive, f.Active != nil, func() any { return *f.Active }},
	}
	for _, a := range attrs {
		if !a.set {
			continue
		}
		if err := member(a.key, a.val()); err != nil {
			return nil, err
		}
	}

	for _, k := range slices.Sorted(maps.Keys(f.Extra)) {
		if k == keyID {
			continue
		}
		if err := member(k, f.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p Product) clone() Product {
	return Product{ID: p.ID, Fields: p.Fields.clone()}
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
