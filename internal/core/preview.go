package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// PreviewSummary contains the summary counts for upload preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	KeptRows        int `json:"keptRows"`
	SkippedRows     int `json:"skippedRows"`
	ErrorRows       int `json:"errorRows"`
	ReplacedRows    int `json:"replacedRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	LineNumber int    `json:"lineNumber"`
	Fields     Fields `json:"fields"`
}

// DuplicatePreview lists the lines sharing one display value.
type DuplicatePreview struct {
	Value       string `json:"value"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is the complete result of a dry-run upload.
type PreviewResponse struct {
	Dataset          DatasetKey         `json:"dataset"`
	FileName         string             `json:"fileName"`
	Summary          PreviewSummary     `json:"summary"`
	Header           []string           `json:"header"`
	AddedColumns     []string           `json:"addedColumns,omitempty"`
	DroppedColumns   []string           `json:"droppedColumns,omitempty"`
	KeptSamples      []RowPreview       `json:"keptSamples"`
	SkippedSamples   []RowPreview       `json:"skippedSamples"`
	Errors           []string           `json:"errors"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	WouldFail        error              `json:"-"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// Sample limits
const (
	maxKeptSamples      = 10
	maxSkippedSamples   = 10
	maxDuplicateSamples = 10
)

// AnalyzeUpload reads a CSV body the way Ingest does and reports what an
// ingestion would do, without changing the dataset or the audit log.
// WouldFail holds the error Ingest would return, if any.
func (s *Service) AnalyzeUpload(ctx context.Context, key DatasetKey, fileName string, r io.Reader) (*PreviewResponse, error) {
	startTime := time.Now()

	store, err := s.Store(key)
	if err != nil {
		return nil, err
	}
	ds := store.Dataset()

	source, _ := WrapForStreaming(r, s.maxFileSize)
	parsed, err := ParseCSV(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		Dataset:  key,
		FileName: fileName,
		Header:   parsed.Header,
		Errors:   parsed.Errors,
		Summary: PreviewSummary{
			TotalRows:    len(parsed.Records),
			ErrorRows:    len(parsed.Errors),
			ReplacedRows: store.Len(),
		},
	}

	// Data lines follow the header; blank lines are not counted.
	seen := make(map[string][]int)
	var order []string
	for i, f := range parsed.Records {
		line := i + 2
		if !ds.Valid(f) {
			resp.Summary.SkippedRows++
			if len(resp.SkippedSamples) < maxSkippedSamples {
				resp.SkippedSamples = append(resp.SkippedSamples, RowPreview{LineNumber: line, Fields: f})
			}
			continue
		}

		resp.Summary.KeptRows++
		if len(resp.KeptSamples) < maxKeptSamples {
			resp.KeptSamples = append(resp.KeptSamples, RowPreview{LineNumber: line, Fields: f})
		}

		if v := strings.ToLower(strings.TrimSpace(f.String(ds.DisplayField))); v != "" {
			if _, ok := seen[v]; !ok {
				order = append(order, v)
			}
			seen[v] = append(seen[v], line)
		}
	}

	for _, v := range order {
		lines := seen[v]
		if len(lines) < 2 {
			continue
		}
		resp.Summary.DuplicateInFile += len(lines) - 1
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{Value: v, LineNumbers: lines})
		}
	}

	if len(ds.Columns) == 0 && parsed.Header != nil {
		resp.AddedColumns, resp.DroppedColumns = diffColumns(store.Columns(), parsed.Header)
	}

	switch {
	case !parsed.OK():
		resp.WouldFail = &ParseError{FileName: fileName, Rows: parsed.Errors}
	case resp.Summary.KeptRows == 0 && resp.Summary.TotalRows > 0:
		resp.WouldFail = fmt.Errorf("%s: %w", fileName, ErrEmptyBatch)
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp, nil
}

// diffColumns reports header names missing from current and current names
// missing from the header. An empty current set reports nothing.
func diffColumns(current, header []string) (added, dropped []string) {
	if len(current) == 0 {
		return nil, nil
	}
	in := func(set []string, name string) bool {
		for _, s := range set {
			if s == name {
				return true
			}
		}
		return false
	}
	for _, h := range header {
		if h != "" && !in(current, h) {
			added = append(added, h)
		}
	}
	for _, c := range current {
		if !in(header, c) {
			dropped = append(dropped, c)
		}
	}
	return added, dropped
}
