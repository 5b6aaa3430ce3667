package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LJTian/ClimateNewsHub/internal/aggregator"
	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/LJTian/ClimateNewsHub/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "s3cret"

// stubCollector 每个源返回一条固定文章，"smh" 模拟抓取失败
type stubCollector struct {
	registry *collector.Registry
	calls    atomic.Int32
}

func (s *stubCollector) Run(_ context.Context, src collector.Source) aggregator.Result {
	s.calls.Add(1)
	if src.Name == "smh" {
		return aggregator.Result{Source: src.Name, Err: errors.New("connection reset by peer")}
	}
	return aggregator.Result{
		Source:   src.Name,
		Articles: []collector.Article{{Source: src.Name, Title: "story", URL: src.BaseURL + "/climate"}},
	}
}

func (s *stubCollector) RunAll(ctx context.Context) []aggregator.Result {
	var out []aggregator.Result
	for _, src := range s.registry.All() {
		out = append(out, s.Run(ctx, src))
	}
	return out
}

func newTestRouter(t *testing.T, cache *storage.Cache) (*gin.Engine, *stubCollector) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := collector.MustRegistry(collector.DefaultSources)
	stub := &stubCollector{registry: reg}
	s := NewServer(reg, stub, cache, logger.NewNop(), prometheus.NewRegistry())
	return NewRouter(s, testKey, logger.NewNop()), stub
}

func do(r http.Handler, path, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if key != "" {
		req.Header.Set("x-rapidapi-proxy-secret", key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyRequired(t *testing.T) {
	r, stub := newTestRouter(t, nil)

	for _, path := range []string{"/", "/news", "/news/guardian", "/news/notareal"} {
		for _, key := range []string{"", "wrong"} {
			w := do(r, path, key)
			assert.Equal(t, http.StatusForbidden, w.Code, "path=%s key=%q", path, key)
			assert.JSONEq(t, `{"error":"Forbidden: Invalid API Key"}`, w.Body.String())
		}
	}
	assert.Zero(t, stub.calls.Load())
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := collector.MustRegistry(collector.DefaultSources)
	s := NewServer(reg, &stubCollector{registry: reg}, nil, nil, prometheus.NewRegistry())
	r := NewRouter(s, "", logger.NewNop())

	assert.Equal(t, http.StatusForbidden, do(r, "/", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/", "anything").Code)
}

func TestHealthAndMetricsSkipAPIKey(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "/metrics", "").Code)
}

func TestWelcome(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, "/", testKey)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Welcome to Climate Change News Scraper API"`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListNews(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, "/news", testKey)
	require.Equal(t, http.StatusOK, w.Code)

	var got []collector.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	// 11 个源中 smh 失败
	assert.Len(t, got, 10)
	for _, a := range got {
		assert.NotEqual(t, "smh", a.Source)
	}
}

func TestListSourceNewsCaseInsensitive(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, "/news/GuArDiAn", testKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`[{"source":"guardian","title":"story","url":"https://www.theguardian.com/climate"}]`,
		w.Body.String())
}

func TestListSourceNewsFailingSourceIsEmptyArray(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, "/news/smh", testKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListSourceNewsNotFound(t *testing.T) {
	r, stub := newTestRouter(t, nil)

	for _, id := range []string{"notareal", "NOTAREAL"} {
		w := do(r, "/news/"+id, testKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Newspaper not found"}`, w.Body.String())
	}
	assert.Zero(t, stub.calls.Load())
}

func TestListNewsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := storage.NewCache(mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	r, stub := newTestRouter(t, cache)

	first := do(r, "/news/guardian", testKey)
	second := do(r, "/news/guardian", testKey)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, stub.calls.Load())

	mr.FastForward(2 * time.Minute)
	do(r, "/news/guardian", testKey)
	assert.EqualValues(t, 2, stub.calls.Load())
}

// 有源失败时结果不完整，不写缓存，下次请求重新抓取
func TestIncompleteResultsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := storage.NewCache(mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	r, stub := newTestRouter(t, cache)
	sources := int32(len(collector.DefaultSources))

	for i := 0; i < 2; i++ {
		w := do(r, "/news/smh", testKey)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	}
	assert.EqualValues(t, 2, stub.calls.Load())
	assert.False(t, mr.Exists(storage.SourceKey("smh")))

	for i := 0; i < 2; i++ {
		w := do(r, "/news", testKey)
		require.Equal(t, http.StatusOK, w.Code)
		var got []collector.Article
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 10)
	}
	assert.EqualValues(t, 2+2*sources, stub.calls.Load())
	assert.False(t, mr.Exists(storage.AllKey()))

	do(r, "/news/guardian", testKey)
	assert.True(t, mr.Exists(storage.SourceKey("guardian")))
}

func TestListNewsCacheFailureFallsBackToFetch(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := storage.NewCache(mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()
	mr.Close()

	r, stub := newTestRouter(t, cache)

	w := do(r, "/news/guardian", testKey)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, stub.calls.Load())
}

func TestRequestIDIsPropagated(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "upstream-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "upstream-123", w.Header().Get("X-Request-ID"))
}
