package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordedEntry struct {
	action  ActionType
	itemID  string
	details map[string]any
}

// recordingAuditor captures appended entries without persisting them.
type recordingAuditor struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (a *recordingAuditor) Append(_ context.Context, action ActionType, itemID string, details map[string]any) LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, recordedEntry{action, itemID, details})
	return LogEntry{ActionType: action}
}

func (a *recordingAuditor) last(t *testing.T) recordedEntry {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return a.entries[len(a.entries)-1]
}

func (a *recordingAuditor) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func newTestStore(ds Dataset) (*RecordStore, *recordingAuditor) {
	audit := &recordingAuditor{}
	return NewRecordStore(ds, audit, SequentialIDs("id")), audit
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRecordStore_ReplaceAllFiltersAndRekeys(t *testing.T) {
	store, audit := newTestStore(ProductCatalog)

	raw := []Fields{
		NewFields("RETAILER", "Acme", "_id", "stale"),
		NewFields("RETAILER", "   "),
		NewFields("APPROVAL STATUS", "Approved"),
		NewFields("RETAILER", "Beta"),
	}

	if got := store.ReplaceAll(raw); got != 2 {
		t.Fatalf("ReplaceAll() = %d, want 2", got)
	}

	list := store.List()
	if diff := cmp.Diff([]string{"id-1", "id-2"}, ids(list)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if list[0].Fields.Has(IDField) {
		t.Error("raw _id survived ReplaceAll")
	}
	if list[1].Fields.String(FieldRetailer) != "Beta" {
		t.Errorf("second record = %v, want Beta", list[1].Fields.Map())
	}
	if audit.count() != 0 {
		t.Errorf("ReplaceAll logged %d entries, want 0", audit.count())
	}

	// A second replace assigns fresh ids even for identical input.
	store.ReplaceAll(raw)
	if diff := cmp.Diff([]string{"id-3", "id-4"}, ids(store.List())); diff != "" {
		t.Errorf("re-ingest ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordStore_ECommerceValidity(t *testing.T) {
	store, _ := newTestStore(ECommerce)

	var allNull Fields
	allNull.Set("RETAILER", nil)

	raw := []Fields{
		NewFields("RETAILER", "", "PRODUCT CATALOG", "Active"),
		NewFields("RETAILER", " ", "PRODUCT CATALOG", ""),
		allNull,
	}
	if got := store.ReplaceAll(raw); got != 1 {
		t.Errorf("ReplaceAll() = %d, want 1", got)
	}
}

func TestRecordStore_Add(t *testing.T) {
	store, audit := newTestStore(ProductCatalog)
	ctx := context.Background()

	rec := store.Add(ctx, NewFields("RETAILER", "Acme", "APPROVAL STATUS", "Approved", "_id", "client"))

	if rec.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", rec.ID)
	}
	if rec.Fields.Has(IDField) {
		t.Error("client-supplied _id kept in fields")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	e := audit.last(t)
	if e.action != ActionProductAdd || e.itemID != "id-1" {
		t.Errorf("entry = %s/%s, want %s/id-1", e.action, e.itemID, ActionProductAdd)
	}
	if e.details["RETAILER"] != "Acme" {
		t.Errorf("details RETAILER = %v, want Acme", e.details["RETAILER"])
	}
	if got, ok := e.details["newItemData"].(Record); !ok || got.ID != "id-1" {
		t.Errorf("details newItemData = %#v", e.details["newItemData"])
	}
}

func TestRecordStore_AddAppendsAtEnd(t *testing.T) {
	store, _ := newTestStore(ECommerce)
	ctx := context.Background()

	store.ReplaceAll([]Fields{NewFields("RETAILER", "A"), NewFields("RETAILER", "B")})
	added := store.Add(ctx, NewFields("RETAILER", "C"))

	list := store.List()
	if list[len(list)-1].ID != added.ID {
		t.Errorf("last record = %q, want %q", list[len(list)-1].ID, added.ID)
	}
}

func TestRecordStore_Update(t *testing.T) {
	store, audit := newTestStore(ProductCatalog)
	ctx := context.Background()

	store.ReplaceAll([]Fields{
		NewFields("RETAILER", "Acme", "APPROVAL STATUS", "Pending"),
		NewFields("RETAILER", "Beta", "APPROVAL STATUS", "Approved"),
	})

	updated, err := store.Update(ctx, "id-1", NewFields("APPROVAL STATUS", "Approved", "_id", "hijack"))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", updated.ID)
	}
	if got := updated.Fields.String("APPROVAL STATUS"); got != "Approved" {
		t.Errorf("APPROVAL STATUS = %q, want Approved", got)
	}
	if got := updated.Fields.String("RETAILER"); got != "Acme" {
		t.Errorf("RETAILER = %q, want Acme (kept from old record)", got)
	}

	if diff := cmp.Diff([]string{"id-1", "id-2"}, ids(store.List())); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}

	e := audit.last(t)
	if e.action != ActionProductUpdate {
		t.Errorf("action = %s, want %s", e.action, ActionProductUpdate)
	}
	if e.details["RETAILER"] != "Acme" {
		t.Errorf("details RETAILER = %v, want old value Acme", e.details["RETAILER"])
	}
	old, ok := e.details["oldItemData"].(Record)
	if !ok || old.Fields.String("APPROVAL STATUS") != "Pending" {
		t.Errorf("details oldItemData = %#v", e.details["oldItemData"])
	}
	patch, ok := e.details["updatedFields"].(Fields)
	if !ok || patch.Has(IDField) {
		t.Errorf("details updatedFields = %#v", e.details["updatedFields"])
	}
}

func TestRecordStore_UpdateRetailerFromPatch(t *testing.T) {
	store, audit := newTestStore(ProductCatalog)
	ctx := context.Background()

	rec := store.Add(ctx, NewFields("RETAILER", "Acme"))
	if _, err := store.Update(ctx, rec.ID, NewFields("RETAILER", "Acme Corp")); err != nil {
		t.Fatal(err)
	}
	if got := audit.last(t).details["RETAILER"]; got != "Acme Corp" {
		t.Errorf("details RETAILER = %v, want Acme Corp", got)
	}
}

func TestRecordStore_NotFound(t *testing.T) {
	store, audit := newTestStore(ProductCatalog)
	ctx := context.Background()
	store.Add(ctx, NewFields("RETAILER", "Acme"))
	before := audit.count()

	if _, err := store.Update(ctx, "nope", NewFields("RETAILER", "x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := store.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrNotFound", err)
	}
	if audit.count() != before {
		t.Errorf("failed mutations logged %d entries", audit.count()-before)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestRecordStore_Delete(t *testing.T) {
	store, audit := newTestStore(ECommerce)
	ctx := context.Background()

	store.ReplaceAll([]Fields{
		NewFields("RETAILER", "A"),
		NewFields("RETAILER", "B"),
		NewFields("RETAILER", "C"),
	})

	removed, err := store.Delete(ctx, "id-2")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.Fields.String("RETAILER") != "B" {
		t.Errorf("removed = %v, want B", removed.Fields.Map())
	}
	if diff := cmp.Diff([]string{"id-1", "id-3"}, ids(store.List())); diff != "" {
		t.Errorf("remaining ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.Get("id-2"); ok {
		t.Error("Get() found deleted record")
	}

	e := audit.last(t)
	if e.action != ActionECommerceDelete || e.itemID != "id-2" {
		t.Errorf("entry = %s/%s, want %s/id-2", e.action, e.itemID, ActionECommerceDelete)
	}
	if _, ok := e.details["deletedItemData"].(Record); !ok {
		t.Errorf("details deletedItemData = %#v", e.details["deletedItemData"])
	}
}

func TestRecordStore_ListIsACopy(t *testing.T) {
	store, _ := newTestStore(ProductCatalog)
	store.ReplaceAll([]Fields{NewFields("RETAILER", "Acme")})

	list := store.List()
	list[0].Fields.SetString("RETAILER", "changed")

	if got, _ := store.Get("id-1"); got.Fields.String("RETAILER") != "Acme" {
		t.Errorf("store changed through List() result: %v", got.Fields.Map())
	}
}

func TestRecordStore_Columns(t *testing.T) {
	product, _ := newTestStore(ProductCatalog)
	if diff := cmp.Diff(ProductCatalog.Columns, product.Columns()); diff != "" {
		t.Errorf("product columns mismatch (-want +got):\n%s", diff)
	}

	ecom, _ := newTestStore(ECommerce)
	if cols := ecom.Columns(); cols != nil {
		t.Errorf("empty eCommerce columns = %v, want nil", cols)
	}

	ecom.ReplaceAll([]Fields{
		NewFields("RETAILER", "A", "", "junk", "PRODUCT CATALOG", "Active"),
		NewFields("OTHER", "x"),
	})
	if diff := cmp.Diff([]string{"RETAILER", "PRODUCT CATALOG"}, ecom.Columns()); diff != "" {
		t.Errorf("eCommerce columns mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordStore_ConcurrentMutations(t *testing.T) {
	store, audit := newTestStore(ECommerce)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := store.Add(ctx, NewFields("RETAILER", "x"))
			if _, err := store.Update(ctx, rec.ID, NewFields("PRODUCT CATALOG", "Active")); err != nil {
				t.Errorf("Update() error = %v", err)
			}
			_ = store.List()
		}()
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Len() = %d, want 50", store.Len())
	}
	if audit.count() != 100 {
		t.Errorf("audit entries = %d, want 100", audit.count())
	}
}

// lockCheckingAuditor counts entries appended while the store was unlocked.
type lockCheckingAuditor struct {
	store    *RecordStore
	unlocked int
}

func (a *lockCheckingAuditor) Append(_ context.Context, action ActionType, _ string, _ map[string]any) LogEntry {
	if a.store.mu.TryRLock() {
		a.store.mu.RUnlock()
		a.unlocked++
	}
	return LogEntry{ActionType: action}
}

func TestRecordStore_LogsWhileLocked(t *testing.T) {
	audit := &lockCheckingAuditor{}
	store := NewRecordStore(ECommerce, audit, SequentialIDs("id"))
	audit.store = store
	ctx := context.Background()

	rec := store.Add(ctx, NewFields("RETAILER", "Shop"))
	if _, err := store.Update(ctx, rec.ID, NewFields("PRODUCT CATALOG", "Active")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	store.replaceAll([]Fields{NewFields("RETAILER", "Shop")}, func(int) {
		audit.Append(ctx, ActionECommerceUpload, "", nil)
	})

	if audit.unlocked != 0 {
		t.Errorf("%d entries appended after the store was unlocked", audit.unlocked)
	}
}
