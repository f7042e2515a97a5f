package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/journal/pkg/adapters/fs"
	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":          "<h1>home</h1>",
		"journal.html":        "<h1>journal</h1>",
		"projects.html":       "<h1>projects</h1>",
		"manifest.json":       `{"name":"journal"}`,
		"sw.js":               "self.addEventListener('fetch', () => {});",
		"static/css/site.css": "body{}",
		"static/secrets.env":  "TOKEN=x",
		"static/img/logo.svg": "<svg/>",
	}
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return dir
}

type testServer struct {
	*Server
	repo    *fs.Repository
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()

	m := metrics.New(nil)
	repo := fs.NewRepository(fs.Config{Path: filepath.Join(t.TempDir(), "reflections.json"), Metrics: m})
	require.NoError(t, repo.Initialize(context.Background()))
	svc := core.NewService(repo, core.WithSubmissionObserver(m.Submission))

	cfg := &Config{
		StaticDir: writeSite(t),
		Assets:    []string{"**/*.{css,svg}"},
		BodyLimit: "64K",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	srv, err := NewServer(svc, discardLogger(), m, cfg)
	require.NoError(t, err)
	return &testServer{Server: srv, repo: repo, metrics: m}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func TestNewServer(t *testing.T) {
	repo := fs.NewRepository(fs.Config{Path: filepath.Join(t.TempDir(), "r.json")})
	svc := core.NewService(repo)

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(svc, discardLogger(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", server.config.Addr)
		assert.NotNil(t, server.limiter)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(svc, nil, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when service is nil", func(t *testing.T) {
		_, err := NewServer(nil, discardLogger(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t)

	rec := server.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestReflections_EmptyList(t *testing.T) {
	server := setupTestServer(t)

	rec := server.do(http.MethodGet, "/api/reflections", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReflections_SubmitAndList(t *testing.T) {
	server := setupTestServer(t)

	rec := server.do(http.MethodPost, "/api/reflections", `{"text":"  Learned how defer stacks run.  ","name":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Learned how defer stacks run.", created.Text)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, "Weekly Reflection", created.Title)
	assert.Equal(t, "api", created.Source)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.Date)

	rec = server.do(http.MethodGet, "/api/reflections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []core.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, created, entries[0])
}

func TestReflections_LegacyFields(t *testing.T) {
	server := setupTestServer(t)

	for _, body := range []string{
		`{"content":"posted with the content field"}`,
		`{"reflection":"posted with the reflection field"}`,
	} {
		rec := server.do(http.MethodPost, "/api/reflections", body)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	entries, err := server.svc.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReflections_Rejected(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{"text":"   "}`, "no reflection entered"},
		{"missing", `{}`, "no reflection entered"},
		{"too short", `{"text":"short"}`, "reflection too short: please write at least 10 characters"},
		{"malformed", `{"text":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := server.do(http.MethodPost, "/api/reflections", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
		})
	}

	_, err := os.Stat(server.repo.Path)
	assert.True(t, os.IsNotExist(err), "rejected input must not touch the store")
}

type failingRepo struct{}

func (failingRepo) List(context.Context) ([]core.Entry, error) {
	return nil, errors.New("disk on fire")
}

func (failingRepo) Append(context.Context, core.Entry) (core.AppendResult, error) {
	return core.AppendResult{}, &core.StorageWriteError{Op: "write", Path: "/secret/path", Err: errors.New("disk on fire")}
}

func (failingRepo) Initialize(context.Context) error { return nil }

func TestReflections_StorageFailure(t *testing.T) {
	srv, err := NewServer(core.NewService(failingRepo{}), discardLogger(), nil, &Config{})
	require.NoError(t, err)
	server := &testServer{Server: srv}

	rec := server.do(http.MethodPost, "/api/reflections", `{"text":"this will not be stored"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to save reflection", decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "/secret/path")

	rec = server.do(http.MethodGet, "/api/reflections", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestReflections_RateLimit(t *testing.T) {
	server := setupTestServer(t, func(c *Config) {
		c.RateRPS = 0.001
		c.RateBurst = 2
	})

	body := `{"text":"rate limited reflection"}`
	assert.Equal(t, http.StatusCreated, server.do(http.MethodPost, "/api/reflections", body).Code)
	assert.Equal(t, http.StatusCreated, server.do(http.MethodPost, "/api/reflections", body).Code)

	rec := server.do(http.MethodPost, "/api/reflections", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, server.do(http.MethodGet, "/api/reflections", "").Code)
}

func TestReflections_ConcurrentSubmissions(t *testing.T) {
	server := setupTestServer(t)

	const clients = 20
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := server.do(http.MethodPost, "/api/reflections", fmt.Sprintf(`{"text":"concurrent reflection %d"}`, i))
			assert.Equal(t, http.StatusCreated, rec.Code)
		}(i)
	}
	wg.Wait()

	entries, err := server.svc.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, clients)

	ids := make(map[int64]bool)
	for _, e := range entries {
		ids[e.ID] = true
	}
	assert.Len(t, ids, clients, "ids must be unique")
}

func TestStaticPages(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		path        string
		code        int
		contentType string
		body        string
	}{
		{"/", http.StatusOK, contentTypeHTML, "<h1>home</h1>"},
		{"/index.html", http.StatusOK, contentTypeHTML, "<h1>home</h1>"},
		{"/journal", http.StatusOK, contentTypeHTML, "<h1>journal</h1>"},
		{"/projects.html", http.StatusOK, contentTypeHTML, "<h1>projects</h1>"},
		{"/manifest.json", http.StatusOK, contentTypeManifest, `{"name":"journal"}`},
		{"/sw.js", http.StatusOK, contentTypeJS, "self.addEventListener('fetch', () => {});"},
		{"/about", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := server.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.contentType, rec.Header().Get(echo.HeaderContentType))
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Equal(t, core.ErrNotFound.Error(), decodeError(t, rec))
			}
		})
	}
}

func TestStaticHook(t *testing.T) {
	server := setupTestServer(t)
	server.Static("/offline", "index.html", "text/plain")

	rec := server.do(http.MethodGet, "/offline", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get(echo.HeaderContentType))
}

func TestStaticAssets(t *testing.T) {
	server := setupTestServer(t)

	rec := server.do(http.MethodGet, "/static/css/site.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/css")

	assert.Equal(t, http.StatusOK, server.do(http.MethodGet, "/static/img/logo.svg", "").Code)

	for _, path := range []string{
		"/static/secrets.env",
		"/static/css/missing.css",
		"/static/../manifest.json",
		"/static/",
	} {
		assert.Equal(t, http.StatusNotFound, server.do(http.MethodGet, path, "").Code, path)
	}
}

func TestMetricsAndState(t *testing.T) {
	server := setupTestServer(t)

	server.do(http.MethodPost, "/api/reflections", `{"text":"observed reflection"}`)

	rec := server.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "journal_http_requests_total")
	assert.Contains(t, body, `journal_submissions_total{result="saved"} 1`)
	assert.Contains(t, body, "journal_store_appends_total")

	rec = server.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Service    core.ServiceState  `json:"service"`
		Repository fs.RepositoryState `json:"repository"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "fs-repository", state.Service.RepositoryType)
	assert.Equal(t, server.repo.Path, state.Repository.Path)
	assert.NotNil(t, state.Repository.LastAppend)
}
