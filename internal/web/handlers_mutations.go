package web

// Record add, update and delete, as JSON endpoints and as HTML forms.
// Both paths run the dataset's form validation before touching the store;
// the store itself accepts any field set.

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// addRecord validates fields and appends them to the dataset.
func (s *Server) addRecord(r *http.Request, ds core.Dataset, fields core.Fields) (core.Record, error) {
	if errs := core.ValidateForm(ds, fields); errs != nil {
		return core.Record{}, errs
	}
	return s.service.Add(withRequestMetadata(r), ds.Key, fields)
}

// updateRecord validates the merged result before applying patch.
func (s *Server) updateRecord(r *http.Request, ds core.Dataset, id string, patch core.Fields) (core.Record, error) {
	store, err := s.service.Store(ds.Key)
	if err != nil {
		return core.Record{}, err
	}
	current, ok := store.Get(id)
	if !ok {
		return core.Record{}, fmt.Errorf("%s %q: %w", ds.Key, id, core.ErrNotFound)
	}
	if errs := core.ValidateForm(ds, current.Fields.Merge(patch)); errs != nil {
		return core.Record{}, errs
	}
	return s.service.Update(withRequestMetadata(r), ds.Key, id, patch)
}

// handleAddRecord creates a record from a JSON object.
func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	fields, err := jsonFields(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	rec, err := s.addRecord(r, ds, fields)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("record added", "dataset", ds.Key, "id", rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// handleUpdateRecord merges a JSON object into an existing record.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	patch, err := jsonFields(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	rec, err := s.updateRecord(r, ds, chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("record updated", "dataset", ds.Key, "id", rec.ID, "fields", patch.Names())
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteRecord removes a record and returns it.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	rec, err := s.service.Delete(withRequestMetadata(r), ds.Key, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("record deleted", "dataset", ds.Key, "id", rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

// handleNewRecordForm shows an empty add form.
func (s *Server) handleNewRecordForm(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.renderForm(w, r, http.StatusOK, templates.FormView{
		Dataset: ds,
		Title:   "Add " + ds.Noun,
		Action:  datasetPath(ds) + "/records",
		Cancel:  datasetPath(ds),
	})
}

// handleEditRecordForm shows the edit form filled with the current values.
func (s *Server) handleEditRecordForm(w http.ResponseWriter, r *http.Request) {
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
	s.renderForm(w, r, http.StatusOK, editForm(ds, rec.ID, rec.Fields, nil))
}

// handleAddRecordForm handles the add form submission.
func (s *Server) handleAddRecordForm(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	fields, err := formFields(w, r, ds)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	rec, err := s.addRecord(r, ds, fields)
	if errs, ok := err.(core.ValidationErrors); ok {
		s.renderForm(w, r, http.StatusUnprocessableEntity, templates.FormView{
			Dataset: ds,
			Title:   "Add " + ds.Noun,
			Action:  datasetPath(ds) + "/records",
			Cancel:  datasetPath(ds),
			Values:  fields,
			Errors:  errs.ByField(),
		})
		return
	}
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.redirectWithNotice(w, r, ds, fmt.Sprintf("Added %s.", rec.Fields.String(ds.DisplayField)))
}

// handleUpdateRecordForm handles the edit form submission.
func (s *Server) handleUpdateRecordForm(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	patch, err := formFields(w, r, ds)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.updateRecord(r, ds, id, patch)
	if errs, ok := err.(core.ValidationErrors); ok {
		s.renderForm(w, r, http.StatusUnprocessableEntity, editForm(ds, id, patch, errs.ByField()))
		return
	}
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.redirectWithNotice(w, r, ds, fmt.Sprintf("Updated %s.", rec.Fields.String(ds.DisplayField)))
}

// handleDeleteRecordForm handles the delete button.
func (s *Server) handleDeleteRecordForm(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	rec, err := s.service.Delete(withRequestMetadata(r), ds.Key, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.redirectWithNotice(w, r, ds, fmt.Sprintf("Deleted %s.", rec.Fields.String(ds.DisplayField)))
}

func editForm(ds core.Dataset, id string, values core.Fields, errs map[string]string) templates.FormView {
	return templates.FormView{
		Dataset: ds,
		Title:   "Edit " + ds.Noun,
		Action:  datasetPath(ds) + "/records/" + url.PathEscape(id),
		Cancel:  datasetPath(ds),
		Values:  values,
		Errors:  errs,
	}
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, v templates.FormView) {
	nav := templates.Nav{Admin: mw.IsAdmin(r), Active: datasetPath(v.Dataset)}
	s.render(w, r, status, templates.Layout(v.Title, nav, templates.RecordForm(v)))
}

// redirectWithNotice sends the browser back to the dataset page with a
// one-line confirmation.
func (s *Server) redirectWithNotice(w http.ResponseWriter, r *http.Request, ds core.Dataset, notice string) {
	http.Redirect(w, r, datasetPath(ds)+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}
