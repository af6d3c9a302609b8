package catalog

import (
	"encoding/json"
	"testing"
)

func TestFields_DecodeKeepsMistypedAndUnknown(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"name":"X","price":"cheap","stock":null,"id":9,"color":{"r":1}}`), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if f.Name == nil || *f.Name != "X" {
		t.Fatalf("name=%v", f.Name)
	}
	if f.Price != nil || string(f.Extra["price"]) != `"cheap"` {
		t.Fatalf("price=%v extra=%s", f.Price, f.Extra["price"])
	}
	if f.Stock != nil {
		t.Fatalf("null stock should be absent")
	}
	if _, ok := f.Extra["stock"]; ok {
		t.Fatalf("null stock kept in extra")
	}
	if _, ok := f.Extra["id"]; ok {
		t.Fatalf("id kept in extra")
	}
	if string(f.Extra["color"]) != `{"r":1}` {
		t.Fatalf("color=%s", f.Extra["color"])
	}
}

func TestFields_DecodeRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `1`, `null`} {
		var f Fields
		if err := json.Unmarshal([]byte(body), &f); err == nil {
			t.Fatalf("body %s: want error", body)
		}
	}
}

func TestProduct_EncodeOrder(t *testing.T) {
	p := Product{ID: 3, Fields: Fields{
		Name:  ptr("Phone"),
		Stock: ptr(int64(2)),
		Extra: map[string]json.RawMessage{
			"zeta":  json.RawMessage(`true`),
			"alpha": json.RawMessage(`"a"`),
		},
	}}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if want := `{"id":3,"name":"Phone","stock":2,"alpha":"a","zeta":true}`; string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}

	var back Product
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.ID != 3 || *back.Name != "Phone" || string(back.Extra["alpha"]) != `"a"` {
		t.Fatalf("back=%+v", back)
	}
}

func TestFields_MergeMovesKeysBetweenTypedAndExtra(t *testing.T) {
	base := Fields{Name: ptr("Laptop"), Stock: ptr(int64(5))}

	mistyped := base.Merge(Fields{Extra: map[string]json.RawMessage{"stock": json.RawMessage(`"many"`)}})
	if mistyped.Stock != nil || string(mistyped.Extra["stock"]) != `"many"` {
		t.Fatalf("mistyped=%+v", mistyped)
	}
	if *mistyped.Name != "Laptop" {
		t.Fatalf("name lost: %+v", mistyped)
	}

	fixed := mistyped.Merge(Fields{Stock: ptr(int64(1))})
	if fixed.Stock == nil || *fixed.Stock != 1 || fixed.Extra != nil {
		t.Fatalf("fixed=%+v", fixed)
	}

	if base.Stock == nil || *base.Stock != 5 {
		t.Fatalf("merge mutated receiver: %+v", base)
	}
}
