// Package api exposes harvest runs over HTTP for external tooling. The
// server accepts one harvest at a time; the underlying browser session is
// exclusive, so concurrent runs are rejected rather than queued.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/types"
)

// Runner executes one harvest per call. Implementations own browser and
// storage lifecycles internally.
type Runner interface {
	RunProduct(ctx context.Context, platform, productURL string) (*types.RunResult, error)
	RunSearch(ctx context.Context, platform, searchTerm string) (*types.RunResult, error)
}

// HarvestRequest is the POST /api/harvest body. Exactly one of URL and
// SearchTerm must be set.
type HarvestRequest struct {
	URL        string `json:"url,omitempty"`
	SearchTerm string `json:"searchTerm,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

// Server is the HTTP control surface.
type Server struct {
	mux    *http.ServeMux
	srv    *http.Server
	runner Runner
	logger *slog.Logger
	busy   atomic.Bool
}

// NewServer creates the server and registers its routes.
func NewServer(cfg *config.API, runner Runner, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		runner: runner,
		logger: logger.With("component", "api_server"),
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/platforms", s.handlePlatforms)
	s.mux.HandleFunc("POST /api/harvest", s.handleHarvest)
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"platforms": source.Platforms(),
	})
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	var req HarvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if (req.URL == "") == (req.SearchTerm == "") {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{
			"error": "exactly one of url and searchTerm is required",
		})
		return
	}
	if req.SearchTerm != "" && req.Platform == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{
			"error": "platform is required with searchTerm",
		})
		return
	}

	// One browser, one harvest. A second request waits its turn client-side.
	if !s.busy.CompareAndSwap(false, true) {
		s.jsonResponse(w, http.StatusConflict, map[string]string{"error": "a harvest is already running"})
		return
	}
	defer s.busy.Store(false)

	var (
		result *types.RunResult
		err    error
	)
	if req.URL != "" {
		result, err = s.runner.RunProduct(r.Context(), req.Platform, req.URL)
	} else {
		result, err = s.runner.RunSearch(r.Context(), req.Platform, req.SearchTerm)
	}

	if err != nil {
		s.logger.Error("harvest failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, &types.RunResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
