package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/kv"
)

// Options configures NewService. The zero value gives an in-memory audit
// log, random identifiers and a single ingestion slot.
type Options struct {
	// Store is the durable slot for the audit log.
	Store kv.Store

	// LogKey overrides DefaultLogKey.
	LogKey string

	// NewID overrides identifier generation for records and log entries.
	NewID IDFunc

	// Now overrides the clock used for log timestamps.
	Now func() time.Time

	// MaxConcurrentUploads bounds parallel ingestions. Defaults to 1 so
	// that uploads to the same dataset replace it in a well-defined order.
	MaxConcurrentUploads int

	// MaxWaitTime is how long an ingestion waits for a slot.
	MaxWaitTime time.Duration

	// MaxFileSize caps an uploaded body in bytes. Zero means unlimited.
	MaxFileSize int64
}

// Service owns both record stores and the audit log. It is the single
// entry point for the web layer, the CLI and the inbox watcher.
type Service struct {
	products  *RecordStore
	ecommerce *RecordStore
	audit     *AuditLog

	uploadLimiter *UploadLimiter
	maxFileSize   int64
	now           func() time.Time
}

// NewService builds the stores and loads the audit log from its slot.
func NewService(ctx context.Context, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxConcurrentUploads <= 0 {
		opts.MaxConcurrentUploads = 1
	}

	audit := NewAuditLog(AuditLogConfig{
		Store: opts.Store,
		Key:   opts.LogKey,
		NewID: opts.NewID,
		Now:   opts.Now,
	})
	audit.Load(ctx)

	return &Service{
		products:      NewRecordStore(ProductCatalog, audit, opts.NewID),
		ecommerce:     NewRecordStore(ECommerce, audit, opts.NewID),
		audit:         audit,
		uploadLimiter: NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxWaitTime),
		maxFileSize:   opts.MaxFileSize,
		now:           opts.Now,
	}
}

// Store returns the record store for key.
func (s *Service) Store(key DatasetKey) (*RecordStore, error) {
	switch key {
	case DatasetProduct:
		return s.products, nil
	case DatasetECommerce:
		return s.ecommerce, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, key)
	}
}

// Audit returns the audit log.
func (s *Service) Audit() *AuditLog {
	return s.audit
}

// Seed replaces a dataset with records from bundled data. Seeding is not an
// edit and is not recorded in the audit log.
func (s *Service) Seed(key DatasetKey, raw []Fields) (int, error) {
	store, err := s.Store(key)
	if err != nil {
		return 0, err
	}
	return store.ReplaceAll(raw), nil
}

// List returns the records of a dataset in order.
func (s *Service) List(key DatasetKey) ([]Record, error) {
	store, err := s.Store(key)
	if err != nil {
		return nil, err
	}
	return store.List(), nil
}

// Add appends a record to a dataset.
func (s *Service) Add(ctx context.Context, key DatasetKey, fields Fields) (Record, error) {
	store, err := s.Store(key)
	if err != nil {
		return Record{}, err
	}
	return store.Add(ctx, fields), nil
}

// Update merges patch into an existing record.
func (s *Service) Update(ctx context.Context, key DatasetKey, id string, patch Fields) (Record, error) {
	store, err := s.Store(key)
	if err != nil {
		return Record{}, err
	}
	return store.Update(ctx, id, patch)
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, key DatasetKey, id string) (Record, error) {
	store, err := s.Store(key)
	if err != nil {
		return Record{}, err
	}
	return store.Delete(ctx, id)
}

// ListProducts returns the product catalog.
func (s *Service) ListProducts() []Record { return s.products.List() }

// ListECommerce returns the eCommerce dataset.
func (s *Service) ListECommerce() []Record { return s.ecommerce.List() }

// AddProduct appends a product catalog record.
func (s *Service) AddProduct(ctx context.Context, fields Fields) Record {
	return s.products.Add(ctx, fields)
}

// AddECommerce appends an eCommerce record.
func (s *Service) AddECommerce(ctx context.Context, fields Fields) Record {
	return s.ecommerce.Add(ctx, fields)
}

// UpdateProduct merges patch into a product catalog record.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch Fields) (Record, error) {
	return s.products.Update(ctx, id, patch)
}

// UpdateECommerce merges patch into an eCommerce record.
func (s *Service) UpdateECommerce(ctx context.Context, id string, patch Fields) (Record, error) {
	return s.ecommerce.Update(ctx, id, patch)
}

// DeleteProduct removes a product catalog record.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Record, error) {
	return s.products.Delete(ctx, id)
}

// DeleteECommerce removes an eCommerce record.
func (s *Service) DeleteECommerce(ctx context.Context, id string) (Record, error) {
	return s.ecommerce.Delete(ctx, id)
}

// ListLogEntries returns the audit log, most recent first.
func (s *Service) ListLogEntries() []LogEntry {
	return s.audit.Entries()
}

// ClearLog removes every audit entry, including the persisted copy.
func (s *Service) ClearLog(ctx context.Context) {
	s.audit.Clear(ctx)
}

// UploadLimiterStatus returns the current state of the ingestion limiter.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.uploadLimiter.Status()
}

// WaitForUploads blocks until running ingestions finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.uploadLimiter.WaitForDrain(ctx)
}
