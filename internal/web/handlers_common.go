package web

// Shared request parsing and rendering helpers.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// maxFormBody caps JSON and urlencoded record submissions.
const maxFormBody = 1 << 20

// multipartOverhead is allowed on top of the file size limit for the
// multipart boundaries and headers.
const multipartOverhead = 64 << 10

// datasetParam resolves the {dataset} URL parameter.
func datasetParam(r *http.Request) (core.Dataset, error) {
	key, err := core.ParseDatasetKey(chi.URLParam(r, "dataset"))
	if err != nil {
		return core.Dataset{}, err
	}
	ds, _ := core.Lookup(key)
	return ds, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseQuery reads page, pageSize and status. An unknown status falls
// back to all.
func parseQuery(r *http.Request) core.Query {
	status, _ := core.ParseStatusFilter(r.URL.Query().Get("status"))
	return core.Query{
		Status:   status,
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "pageSize", core.DefaultPageSize),
	}
}

// render buffers c so that a failed render still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.ErrorContext(r.Context(), "render failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// page renders body inside the layout.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title, active string, admin bool, body templ.Component) {
	s.render(w, r, http.StatusOK, templates.Layout(title, templates.Nav{Admin: admin, Active: active}, body))
}

// formFields reads the dataset's form inputs from a urlencoded body.
// A select set to "Other" takes the value of its paired free-text input.
// Inputs missing from the body are left out so that updates keep them.
func formFields(w http.ResponseWriter, r *http.Request, ds core.Dataset) (core.Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		return core.Fields{}, requestError(err)
	}

	var f core.Fields
	for _, spec := range ds.FormFields {
		values, ok := r.PostForm[spec.Name]
		if !ok || len(values) == 0 {
			continue
		}
		value := values[0]
		if len(spec.Options) > 0 {
			value = core.ResolveOther(value, r.PostForm.Get(spec.Name+templates.OtherSuffix))
		}
		f.SetString(spec.Name, value)
	}
	return f, nil
}

// jsonFields decodes a JSON object body. Values may be strings, numbers,
// booleans or null; "_id" is ignored.
func jsonFields(w http.ResponseWriter, r *http.Request) (core.Fields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBody))
	if err != nil {
		return core.Fields{}, requestError(err)
	}
	var f core.Fields
	if err := json.Unmarshal(body, &f); err != nil {
		return core.Fields{}, requestError(err)
	}
	f.Delete("_id")
	return f, nil
}

// requestError marks a body that could not be decoded. Oversized bodies
// keep their *http.MaxBytesError so they map to 413.
func requestError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// datasetPath is the admin page of a dataset.
func datasetPath(ds core.Dataset) string {
	return "/admin/" + string(ds.Key)
}

// publicPath is the read-only page of a dataset.
func publicPath(key core.DatasetKey) string {
	if key == core.DatasetProduct {
		return "/products"
	}
	return "/" + strings.ToLower(string(key))
}
