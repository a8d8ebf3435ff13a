package httpapi

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/uptimeprober/internal/httpapi/middleware"
)

// Server is the read-only snapshot viewer. It never parses the snapshot;
// clients get exactly the bytes the prober wrote.
type Server struct {
	Logger       *zap.Logger
	SnapshotPath string
}

func NewServer(l *zap.Logger, snapshotPath string) *Server {
	return &Server{Logger: l, SnapshotPath: snapshotPath}
}

// Router wires the viewer routes. ratePerMin <= 0 disables rate limiting.
func (s *Server) Router(ratePerMin int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(apimw.AccessLog(s.Logger))
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(ratePerMin, max(ratePerMin/2, 1)))
		r.Get("/", s.handleSnapshot)
		r.Get("/api/snapshot", s.handleSnapshot)
	})

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	b, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		s.unavailable(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.SnapshotPath); err != nil {
		s.unavailable(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) unavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	s.Logger.Error("snapshot_read_failed", zap.String("path", s.SnapshotPath), zap.Error(err))
	http.Error(w, "snapshot unreadable", http.StatusInternalServerError)
}
