package web

import (
	"crypto/subtle"
	"net/http"
	"path/filepath"

	"notioncal/internal/config"
	appLog "notioncal/internal/log"
)

// Server exposes the generated calendar for subscription. Two endpoints:
// /health (always unauthenticated) and /<filename> serving the calendar
// file. Calendar clients poll the latter; the atomic replace on the file
// guarantees they never download a partial document.
type Server struct {
	cfg     *config.Config
	outPath string
	mux     *http.ServeMux
}

// NewServer constructs a Server serving the calendar file at outPath.
func NewServer(cfg *config.Config, outPath string) *Server {
	s := &Server{
		cfg:     cfg,
		outPath: outPath,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, wrapped with basic
// auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Start serves until the listener fails. Callers run it in the
// background; the refresh loop is driven separately in cmd/notioncal.
func (s *Server) Start() error {
	appLog.Info("starting HTTP server", "listen", s.cfg.Listen, "calendar", "/"+filepath.Base(s.outPath))
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="notioncal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/"+filepath.Base(s.outPath), s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	http.ServeFile(w, r, s.outPath)
}
