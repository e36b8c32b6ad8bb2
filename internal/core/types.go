package core

import "time"

// FieldSpec describes one input on a dataset's add/edit form.
type FieldSpec struct {
	Name      string   `json:"name"`              // Field name as stored on the record
	Label     string   `json:"label"`             // Display label, also used in "is required" messages
	Required  bool     `json:"required"`          // Submission must carry a value
	Trim      bool     `json:"-"`                 // Whitespace-only counts as empty for Required
	Options   []string `json:"options,omitempty"` // Choices for a select input; empty means free text
	Multiline bool     `json:"multiline"`         // Rendered as a textarea
}

func (s FieldSpec) allowsOther() bool {
	for _, o := range s.Options {
		if o == OtherOption {
			return true
		}
	}
	return false
}

// IngestResult reports a completed CSV ingestion.
type IngestResult struct {
	UploadID  string        `json:"uploadId"`
	Dataset   DatasetKey    `json:"dataset"`
	FileName  string        `json:"fileName"`
	TotalRows int           `json:"totalRows"`
	Accepted  int           `json:"accepted"`
	Skipped   int           `json:"skipped"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Entry     LogEntry      `json:"logEntry"`
}

// Query selects a page of a dataset.
type Query struct {
	Status   StatusFilter
	Page     int // 1-based
	PageSize int
}

// Page is one page of query results.
type Page struct {
	Dataset    DatasetKey   `json:"dataset"`
	Columns    []string     `json:"columns"`
	Records    []Record     `json:"records"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
	Status     StatusFilter `json:"status,omitempty"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }
