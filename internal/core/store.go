package core

import (
	"context"
	"fmt"
	"sync"
)

// Auditor receives one entry per store mutation. *AuditLog implements it.
type Auditor interface {
	Append(ctx context.Context, action ActionType, itemID string, details map[string]any) LogEntry
}

// RecordStore is the in-memory, ordered collection of one dataset.
// Every record carries a store-assigned identifier that never changes.
// Single-record mutations are recorded through the Auditor while the store
// is still locked, so the log follows the order of the mutations. ReplaceAll
// is not recorded; the caller logs the upload as a whole.
type RecordStore struct {
	dataset Dataset
	newID   IDFunc
	audit   Auditor

	mu      sync.RWMutex
	records []Record
}

// NewRecordStore returns an empty store for ds.
func NewRecordStore(ds Dataset, audit Auditor, newID IDFunc) *RecordStore {
	if newID == nil {
		newID = NewID
	}
	return &RecordStore{dataset: ds, audit: audit, newID: newID}
}

// Dataset returns the store's dataset definition.
func (s *RecordStore) Dataset() Dataset {
	return s.dataset
}

// ReplaceAll discards the collection and keeps the rows of raw that pass the
// dataset's validity check, in order, each with a fresh identifier. Any
// identifier carried by raw is ignored. Returns the number kept.
func (s *RecordStore) ReplaceAll(raw []Fields) int {
	return s.replaceAll(raw, nil)
}

// replaceAll is ReplaceAll with after run under the write lock once the
// collection is swapped.
func (s *RecordStore) replaceAll(raw []Fields, after func(kept int)) int {
	next := make([]Record, 0, len(raw))
	for _, f := range raw {
		if !s.dataset.Valid(f) {
			continue
		}
		fields := f.Clone()
		fields.Delete(IDField)
		next = append(next, Record{ID: s.newID(), Fields: fields})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = next
	if after != nil {
		after(len(next))
	}
	return len(next)
}

// Add appends a record built from fields under a fresh identifier.
func (s *RecordStore) Add(ctx context.Context, fields Fields) Record {
	f := fields.Clone()
	f.Delete(IDField)
	rec := Record{ID: s.newID(), Fields: f}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.log(ctx, s.dataset.Actions.Add, rec.ID, map[string]any{
		s.dataset.DisplayField: rec.Fields.String(s.dataset.DisplayField),
		"newItemData":          rec.Clone(),
	})
	return rec.Clone()
}

// Update merges patch over the record with identifier id. The identifier and
// the record's position are kept. Returns ErrNotFound for an unknown id.
func (s *RecordStore) Update(ctx context.Context, id string, patch Fields) (Record, error) {
	p := patch.Clone()
	p.Delete(IDField)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Record{}, fmt.Errorf("update %s %q: %w", s.dataset.Key, id, ErrNotFound)
	}
	old := s.records[i]
	updated := Record{ID: old.ID, Fields: old.Fields.Merge(p)}
	s.records[i] = updated

	display := p.String(s.dataset.DisplayField)
	if display == "" {
		display = old.Fields.String(s.dataset.DisplayField)
	}
	s.log(ctx, s.dataset.Actions.Update, id, map[string]any{
		s.dataset.DisplayField: display,
		"updatedFields":        p,
		"oldItemData":          old,
	})
	return updated.Clone(), nil
}

// Delete removes the record with identifier id and returns it.
// Returns ErrNotFound for an unknown id.
func (s *RecordStore) Delete(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Record{}, fmt.Errorf("delete %s %q: %w", s.dataset.Key, id, ErrNotFound)
	}
	removed := s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)

	s.log(ctx, s.dataset.Actions.Delete, id, map[string]any{
		s.dataset.DisplayField: removed.Fields.String(s.dataset.DisplayField),
		"deletedItemData":      removed,
	})
	return removed, nil
}

// Get returns a copy of the record with identifier id.
func (s *RecordStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return Record{}, false
}

// List returns a copy of the collection in order.
func (s *RecordStore) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Columns returns the display column order: the dataset's fixed columns, or
// the non-empty field names of the first record.
func (s *RecordStore) Columns() []string {
	if len(s.dataset.Columns) > 0 {
		return append([]string(nil), s.dataset.Columns...)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil
	}
	var cols []string
	for _, n := range s.records[0].Fields.names {
		if n != "" {
			cols = append(cols, n)
		}
	}
	return cols
}

func (s *RecordStore) indexLocked(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore) log(ctx context.Context, action ActionType, id string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Append(ctx, action, id, details)
}
