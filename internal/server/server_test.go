package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"catalog-webflux/internal/config"
	"catalog-webflux/internal/database"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		Listing: config.ListingConfig{
			PaceInterval: time.Millisecond,
			Repeat:       2,
			ChunkSize:    2,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := zap.NewNop()

	store, err := database.Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	if err := database.Seed(context.Background(), store.Categories, store.Products, logger); err != nil {
		t.Fatalf("database.Seed: %v", err)
	}

	srv, err := NewServer(cfg, logger, store)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if body["status"] != "ok" || body["store"] != config.DriverMemory {
		t.Errorf("unexpected health body %+v", body)
	}
}

func TestSeededCatalogIsServed(t *testing.T) {
	srv := newTestServer(t, testConfig())
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	for _, path := range []string{"/", "/listar", "/listar-datadriver", "/listar-full", "/listar-chunked", "/form"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listar", nil))
	if !strings.Contains(w.Body.String(), "BALON DE FUTBOL GOLTY") {
		t.Error("expected seeded products in the list")
	}
}

func TestRateLimitingAppliesToMutatingRoutes(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := net.SplitHostPort(mr.Addr())

	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Host: host, Port: port}
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}

	srv := newTestServer(t, cfg)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(url.Values{"name": {""}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("first submission: expected form re-render, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("second submission: expected 429, got %d", code)
	}
}
