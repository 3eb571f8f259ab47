package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/config"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/metrics"
	"github.com/matheus3301/lnf/internal/session"
)

// HTTPServer serves metrics, health and read-only views on cfg.MetricsAddr.
// A nil HTTPServer is disabled.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewHTTPServer binds cfg.MetricsAddr. It returns nil when no address is configured.
func NewHTTPServer(p Params, cfg *config.Config, mgr *claim.Manager, m *metrics.Metrics, logger *zap.Logger) (*HTTPServer, error) {
	if cfg.MetricsAddr == "" {
		return nil, nil
	}
	ln, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}
	h := &handlers{session: p.SessionName, mgr: mgr, mediaDir: session.MediaDir(p.SessionName), logger: logger}
	return &HTTPServer{
		srv: &http.Server{
			Handler:           newRouter(h, m),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *HTTPServer) Addr() string {
	if s == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves in the background.
func (s *HTTPServer) Start() error {
	if s == nil {
		return nil
	}
	s.logger.Info("http server starting", zap.String("addr", s.Addr()))
	go func() {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown", zap.Error(err))
	}
}

func newRouter(h *handlers, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}", h.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/handoff.png", h.handoffPNG).Methods(http.MethodGet)
	r.HandleFunc("/media/{name}", h.media).Methods(http.MethodGet)
	return r
}

type handlers struct {
	session  string
	mgr      *claim.Manager
	mediaDir string
	logger   *zap.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	list, err := h.mgr.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"session":       h.session,
		"conversations": len(list),
	})
}

func (h *handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.mgr.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) getConversation(w http.ResponseWriter, r *http.Request) {
	sess, err := h.mgr.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": sess.Snapshot(),
		"banner":       sess.Banner(),
		"affordances":  sess.Affordances(),
	})
}

func (h *handlers) handoffPNG(w http.ResponseWriter, r *http.Request) {
	ticket, _, err := h.mgr.IssueHandoff(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	png, err := handoff.EncodePNG(ticket.Token, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// media serves uploaded profile images. Only bare file names are accepted.
func (h *handlers) media(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name != filepath.Base(name) || name == "." || name == ".." {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.mediaDir, name))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, claim.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
