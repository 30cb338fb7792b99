// Package restserver wires the harvester's REST surface (spec.md §6) onto
// the Control Facade. It follows the teacher's aggregator server idiom
// (internal/aggregator/server.go): stdlib net/http, with optional systemd
// socket activation, and a Start/Stop lifecycle gated by a mutex.
package restserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"

	"harvester/internal/control"
	"harvester/pkg/logging"
)

// Server binds the REST table in spec.md §6 to a Facade and serves it over
// HTTP, using systemd socket activation when available.
type Server struct {
	addr    string
	facade  *control.Facade
	metrics http.Handler

	mu         sync.Mutex
	httpServer *http.Server
}

// New constructs an unstarted Server bound to addr (host:port, used only
// when no systemd socket is handed in at Start). metrics may be nil, in
// which case GET /metrics is not registered.
func New(addr string, facade *control.Facade, metrics http.Handler) *Server {
	return &Server{addr: addr, facade: facade, metrics: metrics}
}

// Start builds the mux and begins serving. It returns once the listener is
// bound; a background goroutine logs (rather than propagates) errors from a
// closed server, matching the teacher's "serve in background, surface errors
// to the log" pattern.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("restserver: already started")
	}

	handler := s.mux()

	listener, err := systemdListener()
	if err != nil {
		logging.Warn("restserver", "systemd socket activation unavailable: %v", err)
	}

	server := &http.Server{Handler: handler}
	s.httpServer = server

	if listener != nil {
		logging.Info("restserver", "serving on systemd-activated socket")
		go func() {
			if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
				logging.Error("restserver", err, "server error")
			}
		}()
		notifyReady()
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.httpServer = nil
		return fmt.Errorf("restserver: listen %s: %w", s.addr, err)
	}
	server.Addr = ln.Addr().String()

	logging.Info("restserver", "serving on %s", s.addr)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("restserver", err, "server error")
		}
	}()
	notifyReady()
	return nil
}

// Stop gracefully shuts down the HTTP server, matching the teacher's
// 5-second shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func systemdListener() (net.Listener, error) {
	listeners, err := activation.Listeners()
	if err != nil {
		return nil, err
	}
	if len(listeners) == 0 {
		return nil, nil
	}
	return listeners[0], nil
}

func notifyReady() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("restserver", "sd_notify READY not sent: %v", err)
	}
}

func (s *Server) mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeResult(w, s.facade.StartHarvest())
		case http.MethodGet:
			writeResult(w, s.facade.Overview())
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/state", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.State())
	}))
	mux.HandleFunc("/progress", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.Progress())
	}))
	mux.HandleFunc("/outdated", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.IsOutdated())
	}))
	mux.HandleFunc("/abort", methodGuard(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.Abort())
	}))
	mux.HandleFunc("/download", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.Save())
	}))
	mux.HandleFunc("/submit", methodGuard(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.Submit())
	}))
	mux.HandleFunc("/reset", methodGuard(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.Reset())
	}))
	mux.HandleFunc("/max-documents", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.MaxDocuments())
	}))
	mux.HandleFunc("/data-provider", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.DataProvider())
	}))
	mux.HandleFunc("/harvested-documents", methodGuard(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.facade.HarvestedDocuments())
	}))
	mux.HandleFunc("/log", methodGuard(http.MethodGet, handleLog))

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	return mux
}

func methodGuard(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func writeResult(w http.ResponseWriter, result control.Result) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(result.Status)
	fmt.Fprintln(w, result.Body)
}

// handleLog implements GET /log: query parameters "date" (RFC3339, entries
// at or after it), "level" (debug/info/warn/error, default debug, i.e. no
// lower bound), and "class" (CSV of subsystem names, default all).
func handleLog(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r.URL.Query().Get("date"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, err.Error())
		return
	}

	minLevel, err := parseLevel(r.URL.Query().Get("level"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, err.Error())
		return
	}

	var classes []string
	if raw := r.URL.Query().Get("class"); raw != "" {
		classes = strings.Split(raw, ",")
	}

	entries := logging.Query(since, minLevel, classes)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s [%s] %s\n", e.Time.Format(time.RFC3339), e.Level, e.Subsystem, e.Message)
	}
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

func parseLevel(raw string) (logging.LogLevel, error) {
	switch strings.ToLower(raw) {
	case "", "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn", "warning":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level %q", raw)
	}
}

// Addr reports the address the server is bound to once started on its own
// TCP listener (so a ":0" configuration yields the chosen port), and the
// configured address otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil && s.httpServer.Addr != "" {
		return s.httpServer.Addr
	}
	return s.addr
}
