package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/JonMunkholm/FeedStatus/internal/web/templates"
)

// handleLoginForm shows the login form, or skips it when the flag is set.
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := mw.SafeRedirect(r.URL.Query().Get("next"))
	if mw.IsAdmin(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.page(w, r, "Login", mw.LoginPath, false, templates.LoginPage("", next, ""))
}

// handleLogin checks the submitted credentials and sets the admin flag.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, requestError(err), 0)
		return
	}
	username := r.PostForm.Get("username")
	next := mw.SafeRedirect(r.PostForm.Get("next"))

	if !mw.CheckCredentials(s.cfg.Auth, username, r.PostForm.Get("password")) {
		logging.FromContext(r.Context()).Warn("login failed", "username", username, "ip", clientIP(r))
		err := fmt.Errorf("login as %q: %w", username, core.ErrInvalidCredentials)
		if wantsJSON(r) {
			s.respondError(w, r, err, http.StatusUnauthorized)
			return
		}
		msg := core.MapError(err)
		s.render(w, r, http.StatusUnauthorized, templates.Layout("Login", templates.Nav{Active: mw.LoginPath},
			templates.LoginPage(username, next, msg.Message)))
		return
	}

	mw.SetAdmin(w, s.cfg.Auth.CookieSecure)
	logging.FromContext(r.Context()).Info("login succeeded", "username", username, "ip", clientIP(r))
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout clears the admin flag.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	mw.ClearAdmin(w, s.cfg.Auth.CookieSecure)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
