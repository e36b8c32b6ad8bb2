package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
)

// uploadedFile opens the "file" part of a multipart upload. The body is
// capped at the configured file size plus multipart overhead; the service
// enforces the exact limit on the file content itself.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	// Parts beyond 32MB spill to temporary files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", requestError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file provided: %v", errBadRequest, err)
	}
	return file, header.Filename, nil
}

// ingest runs an upload for the {dataset} in the URL.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) (core.Dataset, *core.IngestResult, error) {
	ds, err := datasetParam(r)
	if err != nil {
		return ds, nil, err
	}
	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		return ds, nil, err
	}
	defer file.Close()

	res, err := s.service.Ingest(withRequestMetadata(r), ds.Key, name, file)
	return ds, res, err
}

// analyze runs a dry-run upload for the {dataset} in the URL.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (core.Dataset, *core.PreviewResponse, error) {
	ds, err := datasetParam(r)
	if err != nil {
		return ds, nil, err
	}
	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		return ds, nil, err
	}
	defer file.Close()

	preview, err := s.service.AnalyzeUpload(r.Context(), ds.Key, name, io.Reader(file))
	return ds, preview, err
}

// handleUpload replaces a dataset with an uploaded CSV.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.ingest(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePreview reports what an upload would do.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	_, preview, err := s.analyze(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	resp := struct {
		*core.PreviewResponse
		CanUpload bool   `json:"canUpload"`
		Problem   string `json:"problem,omitempty"`
		Code      string `json:"code,omitempty"`
	}{PreviewResponse: preview, CanUpload: preview.WouldFail == nil}
	if preview.WouldFail != nil {
		msg := core.MapError(preview.WouldFail)
		resp.Problem, resp.Code = msg.Message, msg.Code
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUploadForm is the upload button on the admin page.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	ds, res, err := s.ingest(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.page(w, r, "Upload complete", datasetPath(ds), mw.IsAdmin(r), templates.UploadResultPage(res, datasetPath(ds)))
}

// handlePreviewForm is the preview button on the admin page.
func (s *Server) handlePreviewForm(w http.ResponseWriter, r *http.Request) {
	ds, preview, err := s.analyze(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.page(w, r, "Upload preview", datasetPath(ds), mw.IsAdmin(r), templates.PreviewPage(preview, datasetPath(ds)))
}
