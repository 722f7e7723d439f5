package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envcascade/internal/application"
	"github.com/eugenenazirov/envcascade/internal/config"
	"github.com/eugenenazirov/envcascade/internal/loader"
	"github.com/eugenenazirov/envcascade/internal/node"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func performRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "")
	if err := os.Unsetenv("DB_PASSWORD"); err != nil {
		t.Fatalf("unset DB_PASSWORD: %v", err)
	}

	writeFiles(t, dir, map[string]string{
		// Settings of the inspection service itself.
		"service.yaml": "server:\n  port: \"9191\"\n  enable_request_logging: false\n  rate_limit:\n    rps: 0\n    burst: 0\nsource:\n  file: " + filepath.Join(dir, "app.yml") + "\n",
		// The served cascade.
		"app.yml":                  "db:\n  host: ${DB_HOST:localhost}\n  pool: 5\nfeatures: [a, b]\n",
		"app.production.yml":       "db:\n  pool: 50\n",
		"app.production.local.yml": "db:\n  password: ${DB_PASSWORD}\n",
	})

	cfg, err := config.LoadFrom(config.Sources{}, &config.CLIOverrides{ConfigFile: filepath.Join(dir, "service")})
	if err != nil {
		t.Fatalf("config.LoadFrom returned error: %v", err)
	}
	if cfg.Port != "9191" || cfg.RateLimitRPS != 0 {
		t.Fatalf("unexpected service config %+v", cfg)
	}

	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}
	handler := app.Server().Handler

	rec := performRequest(t, handler, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}
	var served map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&served); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	db, _ := served["db"].(map[string]any)
	if db["host"] != "db.internal" || db["pool"] != float64(50) || db["password"] != "${DB_PASSWORD}" {
		t.Fatalf("unexpected merged db section %v", db)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config/features/1")
	if rec.Code != http.StatusOK || rec.Body.String() != "\"b\"\n" {
		t.Fatalf("unexpected path lookup: %d %q", rec.Code, rec.Body.String())
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/sources")
	var sources struct {
		Environment string   `json:"environment"`
		Files       []string `json:"files"`
		Unresolved  []string `json:"unresolved"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sources); err != nil {
		t.Fatalf("decode sources: %v", err)
	}
	if sources.Environment != "production" || len(sources.Files) != 3 {
		t.Fatalf("unexpected sources %+v", sources)
	}
	if len(sources.Unresolved) != 1 || sources.Unresolved[0] != "DB_PASSWORD" {
		t.Fatalf("expected DB_PASSWORD to be unresolved, got %v", sources.Unresolved)
	}
}

func TestReadAsyncMatchesRead(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "development")

	writeFiles(t, dir, map[string]string{
		"settings.yml":                   "name: base\nlevels: [1, 2]\n",
		"settings.development.yaml":      "name: dev\n",
		"settings.development.local.yml": "debug: true\n",
	})
	opts := loader.Options{FilePath: filepath.Join(dir, "settings")}

	loaded, err := loader.Read(opts)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := <-loader.ReadAsync(ctx, opts)
	if result.Err != nil {
		t.Fatalf("ReadAsync returned error: %v", result.Err)
	}
	if !node.Equal(loaded, result.Config) {
		t.Fatalf("async result differs from sync result")
	}

	want, err := node.Parse([]byte("name: dev\nlevels: [1, 2]\ndebug: true\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !node.Equal(loaded, want) {
		t.Fatalf("unexpected merged configuration %v", node.ToValue(loaded))
	}
}
