package web

import (
	"net/http"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
)

// handleHome renders the dataset overview.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	admin := mw.IsAdmin(r)

	var cards []templates.DatasetCard
	for _, ds := range core.Datasets() {
		store, err := s.service.Store(ds.Key)
		if err != nil {
			continue
		}
		card := templates.DatasetCard{
			Key:   ds.Key,
			Label: ds.Label,
			Count: store.Len(),
			Path:  publicPath(ds.Key),
		}
		if admin {
			card.Manage = datasetPath(ds)
		}
		cards = append(cards, card)
	}

	logEntries := -1
	if admin {
		logEntries = s.service.Audit().Len()
	}
	s.page(w, r, "Home", "/", admin, templates.HomePage(cards, logEntries))
}

// handlePublicDataset renders the read-only listing of one dataset.
func (s *Server) handlePublicDataset(key core.DatasetKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, _ := core.Lookup(key)
		s.renderDataset(w, r, ds, false, publicPath(key), "")
	}
}

// handleAdminDataset renders the editable listing.
func (s *Server) handleAdminDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.renderDataset(w, r, ds, true, datasetPath(ds), r.URL.Query().Get("notice"))
}

func (s *Server) renderDataset(w http.ResponseWriter, r *http.Request, ds core.Dataset, admin bool, base, flash string) {
	page, err := s.service.Query(ds.Key, parseQuery(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	view := templates.NewDatasetView(ds, page, admin, base)
	view.Flash = flash
	s.page(w, r, ds.Label, base, mw.IsAdmin(r), templates.DatasetPage(view))
}

// handleHealth reports liveness and the ingestion slot state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.UploadLimiterStatus(),
	})
}
