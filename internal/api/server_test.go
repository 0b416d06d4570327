package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/types"
)

type stubRunner struct {
	mu       sync.Mutex
	products []string
	searches []string
	entered  chan struct{} // closed when RunProduct is first reached
	block    chan struct{} // when set, RunProduct blocks until closed
	result   *types.RunResult
}

func (r *stubRunner) RunProduct(ctx context.Context, platform, productURL string) (*types.RunResult, error) {
	r.mu.Lock()
	r.products = append(r.products, productURL)
	if r.entered != nil {
		close(r.entered)
		r.entered = nil
	}
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.result, nil
}

func (r *stubRunner) RunSearch(ctx context.Context, platform, searchTerm string) (*types.RunResult, error) {
	r.mu.Lock()
	r.searches = append(r.searches, searchTerm)
	r.mu.Unlock()
	return r.result, nil
}

func newTestServer(runner Runner) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(&config.API{Port: 0}, runner, logger)
}

func TestHarvestEndpointProduct(t *testing.T) {
	runner := &stubRunner{result: &types.RunResult{Success: true, TotalReviews: 12, Platform: "trendyol"}}
	s := newTestServer(runner)

	body := `{"url": "https://www.trendyol.com/kedi-mamasi-p-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/harvest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result types.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || result.TotalReviews != 12 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(runner.products) != 1 {
		t.Errorf("runner called %d times, want 1", len(runner.products))
	}
}

func TestHarvestEndpointValidation(t *testing.T) {
	s := newTestServer(&stubRunner{result: &types.RunResult{Success: true}})

	tests := []struct {
		name string
		body string
	}{
		{"neither url nor term", `{}`},
		{"both url and term", `{"url": "https://x", "searchTerm": "y"}`},
		{"term without platform", `{"searchTerm": "kedi maması"}`},
		{"broken json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/harvest", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHarvestEndpointRejectsConcurrentRuns(t *testing.T) {
	entered := make(chan struct{})
	runner := &stubRunner{
		result:  &types.RunResult{Success: true},
		entered: entered,
		block:   make(chan struct{}),
	}
	s := newTestServer(runner)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/api/harvest",
			strings.NewReader(`{"url": "https://www.trendyol.com/a-p-1"}`))
		s.mux.ServeHTTP(httptest.NewRecorder(), req)
	}()

	// The busy flag is claimed before the runner is entered.
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/api/harvest",
		strings.NewReader(`{"url": "https://www.trendyol.com/b-p-2"}`))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("second harvest: status = %d, want 409", rec.Code)
	}

	close(runner.block)
	<-done
}

func TestHealthAndPlatforms(t *testing.T) {
	s := newTestServer(&stubRunner{result: &types.RunResult{}})

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/platforms", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("platforms: status = %d", rec.Code)
	}
	var payload struct {
		Platforms []string `json:"platforms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Platforms) == 0 {
		t.Error("expected at least one registered platform")
	}
}
