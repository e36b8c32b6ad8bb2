package core

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFields_SetKeepsOrder(t *testing.T) {
	var f Fields
	f.SetString("B", "1")
	f.SetString("A", "2")
	f.SetString("B", "3")
	f.Set("C", nil)

	if diff := cmp.Diff([]string{"B", "A", "C"}, f.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if got := f.String("B"); got != "3" {
		t.Errorf("String(B) = %q, want %q", got, "3")
	}
	if v, ok := f.Get("C"); !ok || v != nil {
		t.Errorf("Get(C) = %v, %v; want nil, true", v, ok)
	}
	if got := f.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
}

func TestFields_Delete(t *testing.T) {
	f := NewFields("A", "1", "B", "2", "C", "3")
	clone := f.Clone()

	f.Delete("B")
	f.Delete("nope")

	if diff := cmp.Diff([]string{"A", "C"}, f.Names()); diff != "" {
		t.Errorf("Names() after Delete mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, clone.Names()); diff != "" {
		t.Errorf("clone changed by Delete (-want +got):\n%s", diff)
	}
}

func TestFields_Merge(t *testing.T) {
	base := NewFields("RETAILER", "Acme", "APPROVAL STATUS", "Pending")
	patch := NewFields("APPROVAL STATUS", "Approved", "NOTES", "ok")

	merged := base.Merge(patch)

	want := NewFields("RETAILER", "Acme", "APPROVAL STATUS", "Approved", "NOTES", "ok")
	if !merged.Equal(want) {
		t.Errorf("Merge() = %v, want %v", merged.Map(), want.Map())
	}
	if base.String("APPROVAL STATUS") != "Pending" {
		t.Error("Merge() modified the receiver")
	}
}

func TestFields_AnyNonBlank(t *testing.T) {
	tests := []struct {
		name string
		f    Fields
		want bool
	}{
		{"empty", Fields{}, false},
		{"whitespace only", NewFields("A", "  ", "B", "\t"), false},
		{"null only", func() Fields { var f Fields; f.Set("A", nil); return f }(), false},
		{"one value", NewFields("A", "", "B", "x"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.AnyNonBlank(); got != tt.want {
				t.Errorf("AnyNonBlank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFields_JSONKeepsMemberOrder(t *testing.T) {
	input := `{"Zeta":"z","alpha":null,"Mid":42,"flag":true}`

	var f Fields
	if err := json.Unmarshal([]byte(input), &f); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if diff := cmp.Diff([]string{"Zeta", "alpha", "Mid", "flag"}, f.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := f.Get("alpha"); v != nil {
		t.Errorf("alpha = %q, want null", *v)
	}
	if got := f.String("Mid"); got != "42" {
		t.Errorf("Mid = %q, want %q", got, "42")
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"Zeta":"z","alpha":null,"Mid":"42","flag":"true"}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestFields_UnmarshalRejectsNonObject(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`["a"]`), &f); err == nil {
		t.Error("Unmarshal(array) expected error")
	}
}

func TestRecord_JSON(t *testing.T) {
	rec := Record{ID: "abc", Fields: NewFields("RETAILER", "Acme", "APPROVAL STATUS", "Approved")}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"RETAILER":"Acme","APPROVAL STATUS":"Approved","_id":"abc"}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}

	var back Record
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.ID != "abc" {
		t.Errorf("ID = %q, want %q", back.ID, "abc")
	}
	if back.Fields.Has(IDField) {
		t.Error("_id leaked into Fields")
	}
	if !back.Fields.Equal(rec.Fields) {
		t.Errorf("Fields = %v, want %v", back.Fields.Map(), rec.Fields.Map())
	}
}

func TestRecord_JSONEmptyFields(t *testing.T) {
	out, err := json.Marshal(Record{ID: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"_id":"x"}` {
		t.Errorf("Marshal() = %s", out)
	}
}
