package middleware

// auth.go gates the admin screens behind a cookie flag.
//
// The flag is the literal value "true" in a client-held cookie. Anyone can
// set it, so it only keeps casual visitors away from the edit screens. It is
// not a security boundary and must not protect anything sensitive.

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/config"
)

// AdminCookie is the cookie carrying the signed-in flag.
const AdminCookie = "isAdminAuthenticated"

// LoginPath is where unauthenticated page requests are redirected.
const LoginPath = "/login"

// IsAdmin reports whether the request carries the signed-in flag.
func IsAdmin(r *http.Request) bool {
	c, err := r.Cookie(AdminCookie)
	return err == nil && c.Value == "true"
}

// SetAdmin stores the signed-in flag on the client.
func SetAdmin(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    "true",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAdmin removes the signed-in flag.
func ClearAdmin(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAdmin rejects requests without the signed-in flag. API requests
// get a 401 JSON body; page requests are redirected to the login form with
// the original path in ?next=.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Debug("auth: admin flag missing",
			"path", r.URL.Path,
			"method", r.Method,
			"remote_addr", r.RemoteAddr,
		)

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"login required","message":"Please log in to make changes","code":"AUTH002"}`))
			return
		}

		target := LoginPath
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// CheckCredentials compares a login attempt with the configured admin
// account. Both fields are always compared so timing does not reveal which
// one was wrong.
func CheckCredentials(cfg config.AuthConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password))
	return userOK&passOK == 1
}

// SafeRedirect keeps post-login redirects on this site.
func SafeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
