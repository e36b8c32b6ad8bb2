package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return sb.String()
}

func productPage(records ...core.Record) core.Page {
	return core.Page{
		Dataset:    core.DatasetProduct,
		Columns:    core.ProductCatalog.Columns,
		Records:    records,
		Total:      len(records),
		Page:       1,
		PageSize:   core.DefaultPageSize,
		TotalPages: 1,
		Status:     core.FilterAll,
	}
}

func TestNewDatasetView(t *testing.T) {
	var f core.Fields
	f.SetString(core.FieldRetailer, "Acme")
	f.Set(core.FieldApprovalStatus, nil)

	v := NewDatasetView(core.ProductCatalog, productPage(core.Record{ID: "r1", Fields: f}), false, "/products")

	if got := v.Headings; len(got) != 3 || got[1] != "APPROVAL STATUS" {
		t.Errorf("Headings = %v", got)
	}
	cells := v.Rows[0].Cells
	if cells[0].Value != "Acme" || cells[0].IsStatus {
		t.Errorf("retailer cell = %+v", cells[0])
	}
	if !cells[1].Null || !cells[1].IsStatus || cells[1].Color != core.StatusGrey {
		t.Errorf("null status cell = %+v", cells[1])
	}
	if !cells[2].Null {
		t.Errorf("missing field should render as null: %+v", cells[2])
	}
}

func TestDatasetPage_EscapesValues(t *testing.T) {
	f := core.NewFields(core.FieldRetailer, `<script>alert("x")</script>`, core.FieldApprovalStatus, "Approved")
	v := NewDatasetView(core.ProductCatalog, productPage(core.Record{ID: "r1", Fields: f}), true, "/admin/product")

	out := renderString(t, DatasetPage(v))
	if strings.Contains(out, "<script>") {
		t.Error("record value rendered unescaped")
	}
	for _, want := range []string{"status-green", `action="/admin/product/records/r1/delete"`, "/admin/product/records/r1/edit"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPageURL(t *testing.T) {
	v := DatasetView{BasePath: "/products"}
	tests := []struct {
		page, size int
		status     core.StatusFilter
		want       string
	}{
		{1, core.DefaultPageSize, core.FilterAll, "/products"},
		{2, core.DefaultPageSize, core.FilterAll, "/products?page=2"},
		{1, 50, core.FilterPending, "/products?pageSize=50&status=pending"},
	}
	for _, tt := range tests {
		if got := v.PageURL(tt.page, tt.size, tt.status); got != tt.want {
			t.Errorf("PageURL(%d, %d, %q) = %q, want %q", tt.page, tt.size, tt.status, got, tt.want)
		}
	}
}

func TestRecordForm_OtherValue(t *testing.T) {
	values := core.NewFields(core.FieldRetailer, "Shop", core.FieldProductCatalog, "Beta program", core.FieldDirectToCart, "Active")
	out := renderString(t, RecordForm(FormView{
		Dataset: core.ECommerce,
		Title:   "Edit",
		Action:  "/admin/ecommerce/records/x",
		Cancel:  "/admin/ecommerce",
		Values:  values,
		Errors:  map[string]string{core.FieldRetailer: "Retailer Name is required."},
	}))

	for _, want := range []string{
		`<option value="Other" selected>`,
		`name="PRODUCT CATALOG (other)" value="Beta program"`,
		`<option value="Active" selected>`,
		`class="field-error"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestRecordForm_KeepsUnknownStatusWithoutOther(t *testing.T) {
	values := core.NewFields(core.FieldApprovalStatus, "On Hold")
	out := renderString(t, RecordForm(FormView{Dataset: core.ProductCatalog, Values: values}))

	if !strings.Contains(out, `<option value="On Hold" selected>`) {
		t.Error("unknown product status should stay selectable")
	}
}

func TestLayout_AdminLinks(t *testing.T) {
	visitor := renderString(t, Layout("T", Nav{Active: "/products"}, nil))
	if strings.Contains(visitor, "/admin/log") || !strings.Contains(visitor, "Admin login") {
		t.Error("visitor nav should hide admin links")
	}
	admin := renderString(t, Layout("T", Nav{Admin: true}, Notice("done")))
	if !strings.Contains(admin, "/admin/log") || !strings.Contains(admin, "done") {
		t.Error("admin nav should show admin links and the body")
	}
}

func TestPreviewPage_ShowsFailure(t *testing.T) {
	p := &core.PreviewResponse{
		FileName:  "bad.csv",
		WouldFail: &core.ParseError{Rows: []string{"line 2: expected 2 fields, got 1"}},
		Errors:    []string{"line 2: expected 2 fields, got 1"},
	}
	out := renderString(t, PreviewPage(p, "/admin/product"))
	if !strings.Contains(out, "CSV001") || !strings.Contains(out, "expected 2 fields") {
		t.Errorf("preview output = %s", out)
	}
}
