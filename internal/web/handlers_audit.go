package web

import (
	"net/http"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
)

// LogDownloadName is the file name offered for the log download.
const LogDownloadName = "kerv_dashboard_audit_log.json"

// logPageSize bounds the log page; the download always carries everything.
const logPageSize = 100

// parseLogFilter reads dataset, action, limit and offset. Unknown dataset
// names are ignored.
func parseLogFilter(r *http.Request, defaultLimit int) core.AuditLogFilter {
	q := r.URL.Query()
	f := core.AuditLogFilter{
		Action: core.ActionType(q.Get("action")),
		Limit:  parseIntParam(r, "limit", defaultLimit),
		Offset: parseIntParam(r, "offset", 0),
	}
	if key, err := core.ParseDatasetKey(q.Get("dataset")); err == nil {
		f.Dataset = key
	}
	return f
}

// handleLogList returns log entries as JSON with the unpaged total.
func (s *Server) handleLogList(w http.ResponseWriter, r *http.Request) {
	entries, total := s.service.Audit().Filter(parseLogFilter(r, 0))
	if entries == nil {
		entries = []core.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
	})
}

// handleLogPage renders the activity log.
func (s *Server) handleLogPage(w http.ResponseWriter, r *http.Request) {
	filter := parseLogFilter(r, logPageSize)
	entries, total := s.service.Audit().Filter(filter)
	view := templates.LogView{
		Entries: entries,
		Total:   total,
		Filter:  filter,
		Flash:   r.URL.Query().Get("notice"),
	}
	s.page(w, r, "Activity Log", "/admin/log", mw.IsAdmin(r), templates.LogPage(view))
}

// handleLogDownload sends the whole log as indented JSON.
func (s *Server) handleLogDownload(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Audit().MarshalIndent()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+LogDownloadName+`"`)
	w.Write(data)
}

// handleLogClear empties the log.
func (s *Server) handleLogClear(w http.ResponseWriter, r *http.Request) {
	s.clearLog(r)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogClearForm is the clear button on the log page.
func (s *Server) handleLogClearForm(w http.ResponseWriter, r *http.Request) {
	s.clearLog(r)
	http.Redirect(w, r, "/admin/log?notice=Activity+log+cleared.", http.StatusSeeOther)
}

func (s *Server) clearLog(r *http.Request) {
	n := s.service.Audit().Len()
	s.service.ClearLog(withRequestMetadata(r))
	logging.FromContext(r.Context()).Info("audit log cleared", "entries", n, "ip", clientIP(r))
}
