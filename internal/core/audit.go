package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/kv"
)

// DefaultLogKey is the storage slot the audit log is saved under.
const DefaultLogKey = "kervDashboardAuditLog"

// timestampLayout matches ISO-8601 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ActionType names the kind of change an audit entry records.
type ActionType string

const (
	ActionProductAdd    ActionType = "PRODUCT_CATALOG_ADD"
	ActionProductUpdate ActionType = "PRODUCT_CATALOG_UPDATE"
	ActionProductDelete ActionType = "PRODUCT_CATALOG_DELETE"
	ActionProductUpload ActionType = "PRODUCT_CATALOG_CSV_UPLOAD"

	ActionECommerceAdd    ActionType = "ECOMMERCE_ADD"
	ActionECommerceUpdate ActionType = "ECOMMERCE_UPDATE"
	ActionECommerceDelete ActionType = "ECOMMERCE_DELETE"
	ActionECommerceUpload ActionType = "ECOMMERCE_CSV_UPLOAD"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// Severity ranks the action for display. Uploads replace a whole dataset
// and deletes lose data, so both rank high.
func (a ActionType) Severity() AuditSeverity {
	switch a {
	case ActionProductUpload, ActionECommerceUpload, ActionProductDelete, ActionECommerceDelete:
		return SeverityHigh
	case ActionProductUpdate, ActionECommerceUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Dataset returns the dataset the action belongs to.
func (a ActionType) Dataset() DatasetKey {
	switch a {
	case ActionProductAdd, ActionProductUpdate, ActionProductDelete, ActionProductUpload:
		return DatasetProduct
	case ActionECommerceAdd, ActionECommerceUpdate, ActionECommerceDelete, ActionECommerceUpload:
		return DatasetECommerce
	default:
		return ""
	}
}

// LogEntry is one immutable audit record.
type LogEntry struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	ActionType ActionType     `json:"actionType"`
	ItemID     *string        `json:"itemId"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
}

// Time parses Timestamp. Entries loaded from storage with an unreadable
// timestamp return the zero time.
func (e LogEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// clone copies the entry and its Details map. Values inside Details are
// shared and must not be modified.
func (e LogEntry) clone() LogEntry {
	e.Details = maps.Clone(e.Details)
	if e.ItemID != nil {
		id := *e.ItemID
		e.ItemID = &id
	}
	return e
}

// Item returns the item id, or "" for bulk actions.
func (e LogEntry) Item() string {
	if e.ItemID == nil {
		return ""
	}
	return *e.ItemID
}

// AuditLogConfig configures NewAuditLog. Only Store is required.
type AuditLogConfig struct {
	Store kv.Store
	Key   string
	NewID IDFunc
	Now   func() time.Time
}

// AuditLog is the append-only, most-recent-first record of every change.
// After each change the full sequence is written to its storage slot;
// write failures are logged and never surface to the caller.
type AuditLog struct {
	store kv.Store
	key   string
	newID IDFunc
	now   func() time.Time

	mu      sync.RWMutex
	entries []LogEntry
	loaded  bool
}

// NewAuditLog returns an empty, unloaded log.
func NewAuditLog(cfg AuditLogConfig) *AuditLog {
	if cfg.Store == nil {
		cfg.Store = kv.NewMemoryStore()
	}
	if cfg.Key == "" {
		cfg.Key = DefaultLogKey
	}
	if cfg.NewID == nil {
		cfg.NewID = NewID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuditLog{
		store: cfg.Store,
		key:   cfg.Key,
		newID: cfg.NewID,
		now:   cfg.Now,
	}
}

// Load reads the persisted sequence. It runs once; later calls are no-ops.
// A missing, unreadable or corrupt slot leaves the log empty.
func (l *AuditLog) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)
}

func (l *AuditLog) loadLocked(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "audit log load failed, starting empty", "key", l.key, "error", err)
		return
	}

	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.WarnContext(ctx, "audit log is corrupt, starting empty", "key", l.key, "error", err)
		return
	}
	l.entries = entries
	slog.DebugContext(ctx, "audit log loaded", "key", l.key, "entries", len(entries))
}

// Loaded reports whether Load has run.
func (l *AuditLog) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Append records a new entry at the head of the log and persists the log.
// An empty itemID is recorded as null. An unloaded log is loaded first so
// the persisted history is never overwritten.
func (l *AuditLog) Append(ctx context.Context, action ActionType, itemID string, details map[string]any) LogEntry {
	src := SourceFromContext(ctx)
	entry := LogEntry{
		ID:         l.newID(),
		Timestamp:  l.now().UTC().Format(timestampLayout),
		ActionType: action,
		Details:    details,
		IPAddress:  src.IP,
		UserAgent:  src.UserAgent,
	}
	if itemID != "" {
		entry.ItemID = &itemID
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadLocked(ctx)
	l.entries = append([]LogEntry{entry}, l.entries...)
	l.persistLocked(ctx)
	return entry.clone()
}

// Entries returns a copy of the log, most recent first. Each entry has its
// own Details map.
func (l *AuditLog) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LogEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// AuditLogFilter narrows Filter results. Zero fields match everything.
type AuditLogFilter struct {
	Dataset DatasetKey
	Action  ActionType
	Limit   int
	Offset  int
}

// Filter returns matching entries, most recent first, and the total number
// of matches before Limit and Offset are applied.
func (l *AuditLog) Filter(f AuditLogFilter) ([]LogEntry, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []LogEntry
	for _, e := range l.entries {
		if f.Dataset != "" && e.ActionType.Dataset() != f.Dataset {
			continue
		}
		if f.Action != "" && e.ActionType != f.Action {
			continue
		}
		matched = append(matched, e.clone())
	}

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []LogEntry{}, total
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total
}

// Clear removes every entry and persists the empty log.
func (l *AuditLog) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaded = true
	l.entries = nil
	l.persistLocked(ctx)
	slog.InfoContext(ctx, "audit log cleared", "key", l.key)
}

// MarshalIndent renders the log for download.
func (l *AuditLog) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(nonNil(l.Entries()), "", "  ")
}

// persistLocked writes the full sequence. Callers hold l.mu so that writes
// reach the store in the same order as the changes they describe.
func (l *AuditLog) persistLocked(ctx context.Context) {
	data, err := json.Marshal(nonNil(l.entries))
	if err == nil {
		err = l.store.Set(context.WithoutCancel(ctx), l.key, data)
	}
	if err != nil {
		slog.ErrorContext(ctx, "audit log not saved",
			"key", l.key,
			"entries", len(l.entries),
			"error", fmt.Errorf("%w: %v", ErrPersistence, err),
		)
	}
}

func nonNil(entries []LogEntry) []LogEntry {
	if entries == nil {
		return []LogEntry{}
	}
	return entries
}
