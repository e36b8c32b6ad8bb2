package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/FeedStatus/internal/config"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(okHandler))

	tests := []struct {
		name     string
		method   string
		path     string
		cookie   string
		status   int
		location string
	}{
		{"flag set", http.MethodGet, "/admin/product", "true", http.StatusOK, ""},
		{"page redirect keeps target", http.MethodGet, "/admin/log?dataset=product", "", http.StatusSeeOther, "/login?next=%2Fadmin%2Flog%3Fdataset%3Dproduct"},
		{"post redirect drops target", http.MethodPost, "/admin/product/records", "", http.StatusSeeOther, "/login"},
		{"wrong value", http.MethodGet, "/admin/product", "yes", http.StatusSeeOther, "/login?next=%2Fadmin%2Fproduct"},
		{"api", http.MethodDelete, "/api/product/1", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if loc := rec.Header().Get("Location"); loc != tt.location {
				t.Errorf("Location = %q, want %q", loc, tt.location)
			}
		})
	}
}

func TestSetAndClearAdmin(t *testing.T) {
	rec := httptest.NewRecorder()
	SetAdmin(rec, true)
	set := rec.Result().Cookies()
	if len(set) != 1 || set[0].Value != "true" || !set[0].Secure || !set[0].HttpOnly {
		t.Errorf("SetAdmin cookie = %+v", set)
	}

	rec = httptest.NewRecorder()
	ClearAdmin(rec, false)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Value != "" || cleared[0].MaxAge >= 0 {
		t.Errorf("ClearAdmin cookie = %+v", cleared)
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := config.AuthConfig{Username: "kerv", Password: "kerv"}
	tests := []struct {
		user, pass string
		want       bool
	}{
		{"kerv", "kerv", true},
		{"kerv", "KERV", false},
		{"Kerv", "kerv", false},
		{"", "", false},
		{"kerv", "kerv ", false},
	}
	for _, tt := range tests {
		if got := CheckCredentials(cfg, tt.user, tt.pass); got != tt.want {
			t.Errorf("CheckCredentials(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/admin/product":       "/admin/product",
		"//evil.example":       "/",
		"https://evil.example": "/",
		`/\evil.example`:       "/",
		"admin":                "/",
	}
	for in, want := range tests {
		if got := SafeRedirect(in); got != want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})(http.HandlerFunc(okHandler))

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps address", "203.0.113.9:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:4000"},
		{"trusted cidr uses X-Real-IP", "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted single ip", "192.168.1.5:80", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"first forwarded hop", "10.1.2.3:4000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"invalid header ignored", "10.1.2.3:4000", map[string]string{"X-Real-IP": "garbage"}, "10.1.2.3:4000"},
		{"no headers", "10.1.2.3:4000", nil, "10.1.2.3:4000"},
		{"ipv6 forwarded", "10.1.2.3:4000", map[string]string{"X-Real-IP": "2001:db8::1"}, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=7", "path=/api/orders", "admin=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
