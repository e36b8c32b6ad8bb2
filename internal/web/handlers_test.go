package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
	"github.com/google/go-cmp/cmp"
)

type logListResponse struct {
	Entries []core.LogEntry `json:"entries"`
	Total   int             `json:"total"`
}

func actions(entries []core.LogEntry) []core.ActionType {
	out := make([]core.ActionType, len(entries))
	for i, e := range entries {
		out[i] = e.ActionType
	}
	return out
}

func TestAPI_RecordLifecycle(t *testing.T) {
	srv, svc := newTestServer(t)

	created := do(t, srv, jsonRequest(http.MethodPost, "/api/product", map[string]any{
		core.FieldRetailer:           "Delta",
		core.FieldApprovalStatus:     "Approved",
		core.FieldApplicableProducts: "Widgets",
		"_id":                        "forged",
	}), true)
	if created.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", created.Code, created.Body.String())
	}
	rec := decode[core.Record](t, created)
	if rec.ID == "" || rec.ID == "forged" {
		t.Fatalf("created id = %q, want a generated id", rec.ID)
	}

	updated := do(t, srv, jsonRequest(http.MethodPut, "/api/product/"+rec.ID, map[string]any{
		core.FieldApprovalStatus: "Deactivated",
	}), true)
	if updated.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", updated.Code, updated.Body.String())
	}
	after := decode[core.Record](t, updated)
	if after.ID != rec.ID || after.Fields.String(core.FieldApprovalStatus) != "Deactivated" || after.Fields.String(core.FieldRetailer) != "Delta" {
		t.Errorf("updated record = %+v", after)
	}

	got := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/product/"+rec.ID, nil), false)
	if got.Code != http.StatusOK {
		t.Errorf("GET status = %d", got.Code)
	}

	deleted := do(t, srv, httptest.NewRequest(http.MethodDelete, "/api/product/"+rec.ID, nil), true)
	if deleted.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", deleted.Code)
	}
	again := do(t, srv, httptest.NewRequest(http.MethodDelete, "/api/product/"+rec.ID, nil), true)
	if again.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", again.Code)
	}
	if body := decode[ErrorResponse](t, again); body.Code != "REC001" {
		t.Errorf("code = %q, want REC001", body.Code)
	}

	if n := len(svc.ListProducts()); n != 3 {
		t.Errorf("products = %d, want the 3 seeded", n)
	}

	log := decode[logListResponse](t, do(t, srv, httptest.NewRequest(http.MethodGet, "/api/log", nil), true))
	want := []core.ActionType{core.ActionProductDelete, core.ActionProductUpdate, core.ActionProductAdd}
	if diff := cmp.Diff(want, actions(log.Entries)); diff != "" {
		t.Errorf("log actions mismatch (-want +got):\n%s", diff)
	}
	if log.Entries[0].IPAddress != "192.0.2.1" {
		t.Errorf("IPAddress = %q, want the request address", log.Entries[0].IPAddress)
	}
}

func TestAPI_AddValidation(t *testing.T) {
	srv, svc := newTestServer(t)

	rec := do(t, srv, jsonRequest(http.MethodPost, "/api/product", map[string]any{
		core.FieldRetailer:       "   ",
		core.FieldApprovalStatus: "Approved",
	}), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decode[ErrorResponse](t, rec)
	want := map[string]string{
		core.FieldRetailer:           "Retailer Name is required.",
		core.FieldApplicableProducts: "Applicable Products is required.",
	}
	if diff := cmp.Diff(want, body.Fields); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
	if body.Code != "REC002" {
		t.Errorf("code = %q, want REC002", body.Code)
	}
	if svc.Audit().Len() != 0 {
		t.Error("rejected submission was logged")
	}
}

func TestAPI_UpdateValidatesMergedRecord(t *testing.T) {
	srv, svc := newTestServer(t)
	id := svc.ListECommerce()[0].ID

	rec := do(t, srv, jsonRequest(http.MethodPatch, "/api/ecommerce/"+id, map[string]any{
		core.FieldProductCatalog: core.OtherOption,
	}), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	rec = do(t, srv, jsonRequest(http.MethodPatch, "/api/ecommerce/"+id, map[string]any{
		core.FieldProductCatalog: "Pending Onboarding",
	}), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Record](t, rec)
	if updated.Fields.String("REGION") != "EU" {
		t.Error("open column lost on update")
	}
}

func TestAPI_BadJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/product", strings.NewReader("{not json"))
	rec := do(t, srv, req, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode[ErrorResponse](t, rec); body.Code != "REQ001" {
		t.Errorf("code = %q, want REQ001", body.Code)
	}
}

func TestAPI_Query(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/product?status=pending&pageSize=50", nil), false)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := decode[core.Page](t, rec)
	if page.Total != 1 || page.PageSize != 50 || page.Status != core.FilterPending {
		t.Errorf("page = total %d size %d status %q", page.Total, page.PageSize, page.Status)
	}
	if got := page.Records[0].Fields.String(core.FieldRetailer); got != "Gamma" {
		t.Errorf("record = %q, want Gamma", got)
	}
}

func TestAPI_Upload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
		code    string
	}{
		{"accepted", "RETAILER,APPROVAL STATUS\nAcme,Approved\n,Pending\n", http.StatusOK, ""},
		{"malformed", "RETAILER,APPROVAL STATUS\nAcme\n", http.StatusBadRequest, "CSV001"},
		{"no valid rows", "RETAILER,APPROVAL STATUS\n,Approved\n", http.StatusUnprocessableEntity, "CSV002"},
		{"too large", "RETAILER\n" + strings.Repeat("x", 8<<10) + "\n", http.StatusRequestEntityTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer(t)
			rec := do(t, srv, uploadRequest(t, "/api/product/upload", "feed.csv", tt.content), true)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.code != "" {
				if body := decode[ErrorResponse](t, rec); body.Code != tt.code {
					t.Errorf("code = %q, want %q", body.Code, tt.code)
				}
				if n := len(svc.ListProducts()); n != 3 {
					t.Errorf("failed upload changed the dataset to %d records", n)
				}
				return
			}

			res := decode[core.IngestResult](t, rec)
			if res.Accepted != 1 || res.Skipped != 1 {
				t.Errorf("accepted/skipped = %d/%d, want 1/1", res.Accepted, res.Skipped)
			}
			if res.Entry.Details["message"] != "Uploaded 1 product catalog item from CSV." {
				t.Errorf("log message = %v", res.Entry.Details["message"])
			}
		})
	}
}

func TestAPI_UploadWithoutFile(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/product/upload", strings.NewReader("--x--\r\n"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := do(t, srv, req, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode[ErrorResponse](t, rec); body.Code != "FILE004" {
		t.Errorf("code = %q, want FILE004", body.Code)
	}
}

func TestAPI_Preview(t *testing.T) {
	srv, svc := newTestServer(t)
	rec := do(t, srv, uploadRequest(t, "/api/product/preview", "feed.csv", "RETAILER\nA\n\"\"\nA\n"), true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	type previewBody struct {
		Summary   core.PreviewSummary `json:"summary"`
		CanUpload bool                `json:"canUpload"`
	}
	body := decode[previewBody](t, rec)
	if !body.CanUpload || body.Summary.KeptRows != 2 || body.Summary.ReplacedRows != 3 {
		t.Errorf("preview = %+v", body)
	}
	if n := len(svc.ListProducts()); n != 3 || svc.Audit().Len() != 0 {
		t.Error("preview changed the dataset or the log")
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/product/export", nil), false)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "RETAILER,APPROVAL STATUS,APPLICABLE PRODUCTS" || len(lines) != 4 {
		t.Errorf("export = %q", lines)
	}
}

func TestLogDownloadAndClear(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.AddProduct(context.Background(), core.NewFields(core.FieldRetailer, "Zed"))

	dl := do(t, srv, httptest.NewRequest(http.MethodGet, "/admin/log/download", nil), true)
	if cd := dl.Header().Get("Content-Disposition"); !strings.Contains(cd, LogDownloadName) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	entries := decode[[]core.LogEntry](t, dl)
	if len(entries) != 1 || entries[0].ActionType != core.ActionProductAdd {
		t.Errorf("download = %+v", entries)
	}

	cleared := do(t, srv, httptest.NewRequest(http.MethodDelete, "/api/log", nil), true)
	if cleared.Code != http.StatusNoContent {
		t.Errorf("DELETE /api/log status = %d", cleared.Code)
	}
	if svc.Audit().Len() != 0 {
		t.Error("log not cleared")
	}
}

func TestLogList_Filter(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	svc.AddProduct(ctx, core.NewFields(core.FieldRetailer, "P"))
	svc.AddECommerce(ctx, core.NewFields(core.FieldRetailer, "E"))
	svc.AddProduct(ctx, core.NewFields(core.FieldRetailer, "Q"))

	log := decode[logListResponse](t, do(t, srv, httptest.NewRequest(http.MethodGet, "/api/log?dataset=product&limit=1", nil), true))
	if log.Total != 2 || len(log.Entries) != 1 {
		t.Errorf("total/len = %d/%d, want 2/1", log.Total, len(log.Entries))
	}

	page := do(t, srv, httptest.NewRequest(http.MethodGet, "/admin/log", nil), true).Body.String()
	for _, want := range []string{"3 entries", "ECOMMERCE_ADD", "sev-low"} {
		if !strings.Contains(page, want) {
			t.Errorf("log page missing %q", want)
		}
	}
}

func TestForm_AddWithOtherStatus(t *testing.T) {
	srv, svc := newTestServer(t)

	form := url.Values{}
	form.Set(core.FieldRetailer, "Northwind")
	form.Set(core.FieldProductCatalog, core.OtherOption)
	form.Set(core.FieldProductCatalog+templates.OtherSuffix, "Beta program")
	form.Set(core.FieldDirectToCart, "Active")
	form.Set(core.FieldSupportedOffering, "")

	rec := do(t, srv, formRequest("/admin/ecommerce/records", form), true)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/admin/ecommerce?notice=") {
		t.Errorf("Location = %q", loc)
	}

	records := svc.ListECommerce()
	last := records[len(records)-1]
	if got := last.Fields.String(core.FieldProductCatalog); got != "Beta program" {
		t.Errorf("PRODUCT CATALOG = %q, want the custom value", got)
	}
}

func TestForm_AddRejectsBareOther(t *testing.T) {
	srv, svc := newTestServer(t)

	rec := do(t, srv, formRequest("/admin/ecommerce/records", url.Values{
		core.FieldRetailer:       {"Northwind"},
		core.FieldProductCatalog: {core.OtherOption},
		core.FieldDirectToCart:   {"Active"},
	}), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "field-error") {
		t.Error("form should show the field error")
	}
	if n := len(svc.ListECommerce()); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestForm_EditAndDelete(t *testing.T) {
	srv, svc := newTestServer(t)
	target := svc.ListProducts()[1]

	edit := do(t, srv, httptest.NewRequest(http.MethodGet, "/admin/product/records/"+target.ID+"/edit", nil), true)
	if edit.Code != http.StatusOK || !strings.Contains(edit.Body.String(), `value="Beta"`) {
		t.Fatalf("edit form status = %d", edit.Code)
	}

	rec := do(t, srv, formRequest("/admin/product/records/"+target.ID, url.Values{
		core.FieldRetailer:           {"Beta"},
		core.FieldApprovalStatus:     {"Approved"},
		core.FieldApplicableProducts: {"Everything"},
	}), true)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	store, _ := svc.Store(core.DatasetProduct)
	got, _ := store.Get(target.ID)
	if got.Fields.String(core.FieldApprovalStatus) != "Approved" {
		t.Errorf("status = %q", got.Fields.String(core.FieldApprovalStatus))
	}

	del := do(t, srv, httptest.NewRequest(http.MethodPost, "/admin/product/records/"+target.ID+"/delete", nil), true)
	if del.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", del.Code)
	}
	if n := len(svc.ListProducts()); n != 2 {
		t.Errorf("products = %d, want 2", n)
	}

	missing := do(t, srv, httptest.NewRequest(http.MethodGet, "/admin/product/records/"+target.ID+"/edit", nil), true)
	if missing.Code != http.StatusNotFound {
		t.Errorf("edit of deleted record status = %d, want 404", missing.Code)
	}
}

func TestUploadForm_RendersResult(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, uploadRequest(t, "/admin/ecommerce/upload", "e.csv", "\ufeffRETAILER,PRODUCT CATALOG\nShop,Active\nStore,Offline\n"), true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Successfully uploaded and processed 2 rows.") {
		t.Errorf("result page missing message:\n%s", rec.Body.String())
	}
}

func TestAdminDataset_ShowsControls(t *testing.T) {
	srv, _ := newTestServer(t)
	body := do(t, srv, httptest.NewRequest(http.MethodGet, "/admin/product?notice=Saved.", nil), true).Body.String()

	for _, want := range []string{"Upload CSV", "Export CSV", "Edit</a>", "Saved."} {
		if !strings.Contains(body, want) {
			t.Errorf("admin page missing %q", want)
		}
	}
}
