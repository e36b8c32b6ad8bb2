package web

// JSON read endpoints and CSV export.

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/go-chi/chi/v5"
)

// datasetInfo describes a dataset to API clients.
type datasetInfo struct {
	Key           core.DatasetKey  `json:"key"`
	Label         string           `json:"label"`
	Records       int              `json:"records"`
	Columns       []string         `json:"columns"`
	StatusColumns []string         `json:"statusColumns"`
	Filterable    bool             `json:"filterable"`
	FormFields    []core.FieldSpec `json:"formFields"`
}

// handleListDatasets returns every dataset with its current size.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	var out []datasetInfo
	for _, ds := range core.Datasets() {
		store, err := s.service.Store(ds.Key)
		if err != nil {
			continue
		}
		out = append(out, datasetInfo{
			Key:           ds.Key,
			Label:         ds.Label,
			Records:       store.Len(),
			Columns:       store.Columns(),
			StatusColumns: ds.StatusColumns,
			Filterable:    ds.StatusFilterField != "",
			FormFields:    ds.FormFields,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleQuery returns one page of a dataset.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	page, err := s.service.Query(ds.Key, parseQuery(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGetRecord returns a single record.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	store, err := s.service.Store(ds.Key)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	id := chi.URLParam(r, "id")
	rec, ok := store.Get(id)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%s %q: %w", ds.Key, id, core.ErrNotFound), 0)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleExport downloads a dataset as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var buf bytes.Buffer
	if _, err := s.service.ExportCSV(&buf, ds.Key); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", ds.Key, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

// handleUploadStatus reports the ingestion limiter state.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.UploadLimiterStatus())
}
