package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateForm_Product(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   map[string]string
	}{
		{
			name: "complete",
			fields: NewFields(
				FieldRetailer, "Acme",
				FieldApprovalStatus, "Approved",
				FieldApplicableProducts, "Shoes",
			),
			want: map[string]string{},
		},
		{
			name:   "all missing",
			fields: Fields{},
			want: map[string]string{
				FieldRetailer:           "Retailer Name is required.",
				FieldApprovalStatus:     "Approval Status is required.",
				FieldApplicableProducts: "Applicable Products is required.",
			},
		},
		{
			name: "whitespace retailer",
			fields: NewFields(
				FieldRetailer, "   ",
				FieldApprovalStatus, "Pending Approval",
				FieldApplicableProducts, "Shoes",
			),
			want: map[string]string{
				FieldRetailer: "Retailer Name is required.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateForm(ProductCatalog, tt.fields).ByField()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ValidateForm() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateForm_ECommerceOther(t *testing.T) {
	f := NewFields(
		FieldRetailer, "Acme",
		FieldProductCatalog, OtherOption,
		FieldDirectToCart, "Active",
	)

	errs := ValidateForm(ECommerce, f)
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want 1", errs)
	}
	if errs[0].Field != FieldProductCatalog {
		t.Errorf("Field = %q, want %q", errs[0].Field, FieldProductCatalog)
	}
	if want := `Please specify the status if "Other" is selected.`; errs[0].Message != want {
		t.Errorf("Message = %q, want %q", errs[0].Message, want)
	}

	f.SetString(FieldProductCatalog, ResolveOther(OtherOption, "Beta only"))
	if errs := ValidateForm(ECommerce, f); errs != nil {
		t.Errorf("after ResolveOther errors = %v, want nil", errs)
	}
}

func TestValidateForm_OptionalField(t *testing.T) {
	f := NewFields(
		FieldRetailer, "Acme",
		FieldProductCatalog, "Active",
		FieldDirectToCart, "Not Available",
	)
	if errs := ValidateForm(ECommerce, f); errs != nil {
		t.Errorf("errors = %v, want nil without %s", errs, FieldSupportedOffering)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "A", Message: "A is required."},
		{Field: "B", Message: "B is required."},
	}
	if got, want := errs.Error(), "validation failed: A is required.; B is required."; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var err error = errs
	var target ValidationErrors
	if !errors.As(err, &target) || len(target) != 2 {
		t.Error("errors.As did not recover ValidationErrors")
	}
}

func TestResolveOther(t *testing.T) {
	tests := []struct {
		selected, custom, want string
	}{
		{"Active", "ignored", "Active"},
		{OtherOption, "  Beta only ", "Beta only"},
		{OtherOption, "   ", OtherOption},
		{OtherOption, "", OtherOption},
	}
	for _, tt := range tests {
		if got := ResolveOther(tt.selected, tt.custom); got != tt.want {
			t.Errorf("ResolveOther(%q, %q) = %q, want %q", tt.selected, tt.custom, got, tt.want)
		}
	}
}
