package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envcascade/internal/node"
	"github.com/eugenenazirov/envcascade/internal/storage"
)

var testNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func setupTestRouter(t *testing.T, src string) (http.Handler, *storage.MemoryStorage) {
	t.Helper()

	store := storage.NewMemoryStorage()
	if src != "" {
		n, err := node.Parse([]byte(src))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		err = store.SetSnapshot(storage.Snapshot{
			Config:      n.(*node.Mapping),
			Environment: "test",
			Candidates:  []string{"./config", "./config.test", "./config.yml", "./config.test.yml"},
			Files:       []string{"./config.yml", "./config.test.yml"},
			Unresolved:  []string{"DB_PASSWORD"},
			LoadedAt:    testNow,
		})
		if err != nil {
			t.Fatalf("SetSnapshot: %v", err)
		}
	}

	handler := NewHandler(store, WithClock(func() time.Time { return testNow }))
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, store
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const testConfig = `
service: api
db:
  host: db1
  port: 5432
  replicas:
    - r1
    - r2
`

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	rec := get(t, router, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || !resp.Timestamp.Equal(testNow) {
		t.Fatalf("unexpected health response %+v", resp)
	}
}

func TestHealthEndpointBeforeLoad(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	var resp healthResponse
	if err := json.NewDecoder(get(t, router, "/api/health").Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "loading" {
		t.Fatalf("expected loading status, got %q", resp.Status)
	}
}

func TestGetConfig(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	rec := get(t, router, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	want := `{"service":"api","db":{"host":"db1","port":5432,"replicas":["r1","r2"]}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestGetConfigWithNonFiniteFloat(t *testing.T) {
	router, _ := setupTestRouter(t, "limit: .inf\nscale: 2.5\n")

	rec := get(t, router, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"limit":null,"scale":2.5}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestGetConfigAsYAML(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	rec := get(t, router, "/api/config?format=yaml")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "service: api\ndb:\n") {
		t.Fatalf("unexpected YAML body:\n%s", rec.Body.String())
	}
}

func TestGetConfigPath(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	tests := []struct {
		target string
		status int
		body   string
	}{
		{target: "/api/config/db/host", status: http.StatusOK, body: `"db1"`},
		{target: "/api/config/db.port", status: http.StatusOK, body: `5432`},
		{target: "/api/config/db/replicas/1", status: http.StatusOK, body: `"r2"`},
		{target: "/api/config/db", status: http.StatusOK, body: `{"host":"db1","port":5432,"replicas":["r1","r2"]}`},
		{target: "/api/config/db/missing", status: http.StatusNotFound},
	}

	for _, tc := range tests {
		rec := get(t, router, tc.target)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.target, tc.status, rec.Code)
		}
		if tc.body != "" && strings.TrimSpace(rec.Body.String()) != tc.body {
			t.Fatalf("%s: expected %s, got %s", tc.target, tc.body, rec.Body.String())
		}
	}
}

func TestGetSources(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	rec := get(t, router, "/api/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp sourcesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Environment != "test" || len(resp.Candidates) != 4 || len(resp.Files) != 2 {
		t.Fatalf("unexpected sources response %+v", resp)
	}
	if len(resp.Unresolved) != 1 || resp.Unresolved[0] != "DB_PASSWORD" {
		t.Fatalf("unexpected unresolved list %v", resp.Unresolved)
	}
}

func TestEndpointsBeforeLoad(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	for _, target := range []string{"/api/config", "/api/config/db", "/api/sources"} {
		if rec := get(t, router, target); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503 before load, got %d", target, rec.Code)
		}
	}
}

func TestUnsupportedMethod(t *testing.T) {
	router, _ := setupTestRouter(t, testConfig)

	req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
