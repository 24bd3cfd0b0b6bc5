// Package web exposes a small read-only HTTP view of the current
// selections, so scripts and other tools can pull the picked slots without
// touching the browser.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"weekslot/internal/config"
	"weekslot/internal/format"
	"weekslot/internal/grid"
	appLog "weekslot/internal/log"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
)

// Server provides the status API: /health, /api/slots and /slots.txt.
type Server struct {
	cfg      *config.Config
	store    *selection.Store
	analyzer *grid.Analyzer
	modes    *mode.Controller
	mux      *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, store *selection.Store, analyzer *grid.Analyzer, modes *mode.Controller) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		analyzer: analyzer,
		modes:    modes,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/slots", s.handleSlots)
	s.mux.HandleFunc("/slots.txt", s.handleSlotsText)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type slotEntry struct {
	Date    string `json:"date"`
	DateKey string `json:"date_key"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Label   string `json:"label"`
}

type slotsResponse struct {
	SelectionMode bool        `json:"selection_mode"`
	VisibleDays   int         `json:"visible_days"`
	Slots         []slotEntry `json:"slots"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	slots := s.store.Slots()
	resp := slotsResponse{
		SelectionMode: s.modes.IsActive(),
		VisibleDays:   len(s.analyzer.Columns()),
		Slots:         make([]slotEntry, 0, len(slots)),
	}
	for _, sl := range slots {
		resp.Slots = append(resp.Slots, slotEntry{
			Date:    sl.Date.Format("2006-01-02"),
			DateKey: sl.Column.DateKey,
			Start:   sl.Start().Format("15:04"),
			End:     sl.End().Format("15:04"),
			Label:   format.Line(sl, s.cfg.Locale, s.cfg.Use24h),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSlotsText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(format.Text(s.store.Slots(), s.cfg.Locale, s.cfg.Use24h)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
