package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/orderlens/internal/extractor"
	"github.com/chrisdamba/orderlens/internal/factories"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/output"
	"github.com/chrisdamba/orderlens/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractor struct {
	creds   []extractor.Credential
	ctxErrs []error
}

func (f *fakeExtractor) Extract(ctx context.Context, cred extractor.Credential) models.ExtractionResult {
	f.creds = append(f.creds, cred)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	orders := factories.NewOrderFactory(rand.NewSource(1), nil).CreateOrders(12)
	return models.ExtractionResult{
		RunID:   "run-42",
		Success: true,
		Outcome: models.OutcomeLive,
		Data: models.ExtractionData{
			Orders:      orders,
			ExtractedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			Source:      models.SourceAPI,
			TotalOrders: len(orders),
		},
	}
}

func newTestServer(t *testing.T, pub *output.Publisher) (*Server, *fakeExtractor, *session.Store) {
	t.Helper()
	ex := &fakeExtractor{}
	store := session.NewStore(nil)
	return New("test", store, ex, pub, "default=1"), ex, store
}

func do(t *testing.T, s *Server, method, path string, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/health/self", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"true"}`, w.Body.String())
}

func TestOrdersBeforeExtraction(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtractStoresAndPublishes(t *testing.T) {
	var buf bytes.Buffer
	s, ex, store := newTestServer(t, output.NewPublisher(output.NewConsoleOutput(&buf), ""))

	w := do(t, s, http.MethodPost, "/api/v1/extract", `{"cookie":"_session_tid=abc"}`,
		http.Header{"Content-Type": {"application/json"}})
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ExtractionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "run-42", res.RunID)
	assert.Equal(t, models.SourceAPI, res.Data.Source)
	assert.Len(t, res.Data.Orders, 12)

	require.Len(t, ex.creds, 1)
	assert.Equal(t, []string{"_session_tid"}, ex.creds[0].Names())

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "run-42", current.RunID)
	assert.Equal(t, 13, strings.Count(buf.String(), "\n"), "envelope plus one line per order")

	w = do(t, s, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractCookieSources(t *testing.T) {
	s, ex, _ := newTestServer(t, nil)

	do(t, s, http.MethodPost, "/api/v1/extract", "", http.Header{UpstreamCookieHeader: {"hdr=1"}})
	do(t, s, http.MethodPost, "/api/v1/extract", "", nil)

	require.Len(t, ex.creds, 2)
	assert.Equal(t, []string{"hdr"}, ex.creds[0].Names())
	assert.Equal(t, []string{"default"}, ex.creds[1].Names())

	w := do(t, s, http.MethodPost, "/api/v1/extract", "{broken", http.Header{"Content-Type": {"application/json"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractOutlivesClientDisconnect(t *testing.T) {
	s, ex, store := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", nil).WithContext(ctx)
	req.Header.Set(UpstreamCookieHeader, "hdr=1")
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, ex.ctxErrs, 1)
	assert.NoError(t, ex.ctxErrs[0])
	_, ok := store.Current()
	assert.True(t, ok)
}

func TestStatsFilter(t *testing.T) {
	s, _, store := newTestServer(t, nil)
	store.Replace((&fakeExtractor{}).Extract(context.Background(), extractor.Credential{}))

	w := do(t, s, http.MethodGet, "/api/v1/stats?service=FOOD", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.AggregateStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, models.ServiceFood, stats.Filter)
	assert.Equal(t, 12, stats.TotalOrders)
	assert.Len(t, stats.RecentOrders, 12)

	w = do(t, s, http.MethodGet, "/api/v1/stats?service=bogus", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, models.ServiceAll, stats.Filter)

	w = do(t, s, http.MethodGet, "/api/v1/stats?service=genie", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalOrders)
	assert.Equal(t, 12, stats.ServiceBreakdown[models.ServiceFood])
}

func TestAllStats(t *testing.T) {
	s, _, store := newTestServer(t, nil)
	store.Replace((&fakeExtractor{}).Extract(context.Background(), extractor.Credential{}))

	w := do(t, s, http.MethodGet, "/api/v1/stats/all", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all map[models.ServiceType]models.AggregateStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, len(models.ServiceFilters))
	assert.Equal(t, 12, all[models.ServiceAll].TotalOrders)
}
