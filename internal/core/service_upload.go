package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/logging"
	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
)

// Ingest replaces a dataset with the rows of a CSV body.
//
// The whole body is parsed before anything changes. A body with malformed
// rows fails with a *ParseError (ErrParse). A body whose rows all fail the
// dataset's validity check fails with ErrEmptyBatch. Otherwise the dataset
// is replaced and one upload entry is added to the audit log. An empty body
// replaces the dataset with nothing.
//
// Returns ErrTooManyUploads when no ingestion slot frees up in time.
func (s *Service) Ingest(ctx context.Context, key DatasetKey, fileName string, r io.Reader) (*IngestResult, error) {
	store, err := s.Store(key)
	if err != nil {
		return nil, err
	}
	ds := store.Dataset()

	if err := s.uploadLimiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.uploadLimiter.Release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	uploadID := uuid.New().String()
	logger := logging.WithFields(ctx, "upload_id", uploadID, "dataset", key, "file", fileName)

	source, counter := WrapForStreaming(r, s.maxFileSize)
	parsed, err := ParseCSV(source)
	if err != nil {
		logger.Warn("upload read failed", "bytes", counter.BytesRead, "error", err)
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if !parsed.OK() {
		logger.Warn("upload rejected: malformed csv", "errors", len(parsed.Errors))
		return nil, &ParseError{FileName: fileName, Rows: parsed.Errors}
	}

	accepted := 0
	for _, f := range parsed.Records {
		if ds.Valid(f) {
			accepted++
		}
	}
	if accepted == 0 && len(parsed.Records) > 0 {
		logger.Warn("upload rejected: no valid rows", "rows", len(parsed.Records))
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyBatch)
	}

	var entry LogEntry
	count := store.replaceAll(parsed.Records, func(kept int) {
		entry = s.audit.Append(ctx, ds.Actions.Upload, "", map[string]any{
			"message":  fmt.Sprintf("Uploaded %d %s from CSV.", kept, pluralize(ds.Noun, kept)),
			"fileName": fileName,
			"count":    kept,
			"uploadId": uploadID,
		})
	})

	result := &IngestResult{
		UploadID:  uploadID,
		Dataset:   key,
		FileName:  fileName,
		TotalRows: len(parsed.Records),
		Accepted:  count,
		Skipped:   len(parsed.Records) - count,
		Message:   fmt.Sprintf("Successfully uploaded and processed %d %s.", count, pluralize("row", count)),
		Duration:  time.Since(start),
		Entry:     entry,
	}

	logger.Info("upload completed",
		"rows", result.TotalRows,
		"accepted", result.Accepted,
		"skipped", result.Skipped,
		"bytes", counter.BytesRead,
		"duration", result.Duration,
	)
	return result, nil
}

// IngestProductCSV replaces the product catalog from a CSV body.
func (s *Service) IngestProductCSV(ctx context.Context, fileName string, r io.Reader) (*IngestResult, error) {
	return s.Ingest(ctx, DatasetProduct, fileName, r)
}

// IngestECommerceCSV replaces the eCommerce dataset from a CSV body.
func (s *Service) IngestECommerceCSV(ctx context.Context, fileName string, r io.Reader) (*IngestResult, error) {
	return s.Ingest(ctx, DatasetECommerce, fileName, r)
}

func pluralize(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return inflection.Plural(noun)
}
