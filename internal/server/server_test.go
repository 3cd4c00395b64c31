package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/buzzcap/buzzmarket/internal/domain"
	"github.com/buzzcap/buzzmarket/internal/storage/sqlite"
)

type fakeEngine struct {
	report   *domain.TickReport
	tickErr  error
	quotes   []domain.Quote
	quoteErr error
}

func (f *fakeEngine) RunTick(ctx context.Context) (*domain.TickReport, error) {
	return f.report, f.tickErr
}

func (f *fakeEngine) Quotes(ctx context.Context) ([]domain.Quote, error) {
	return f.quotes, f.quoteErr
}

type fakeHistory struct {
	obs  []domain.PriceObservation
	runs []sqlite.TickRun
	err  error
}

func (f *fakeHistory) RecentPrices(ctx context.Context, symbol string, n int) ([]domain.PriceObservation, error) {
	return f.obs, f.err
}

func (f *fakeHistory) ListTickRuns(ctx context.Context, limit int) ([]sqlite.TickRun, error) {
	return f.runs, f.err
}

func sampleReport() *domain.TickReport {
	return &domain.TickReport{
		RunID:      "run-1",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		CorpusSize: 10,
		Updates: []domain.TickUpdate{{
			Symbol:   "$AI",
			OldPrice: decimal.RequireFromString("150.00"),
			NewPrice: decimal.RequireFromString("151.50"),
			Mentions: 3,
		}},
	}
}

func newTestServer(secret string, eng MarketEngine, store HistoryStore) *Server {
	return New(Config{TriggerSecret: secret}, eng, store)
}

func doRequest(t *testing.T, s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestTickRequiresSecret(t *testing.T) {
	s := newTestServer("hunter2", &fakeEngine{report: sampleReport()}, &fakeHistory{})

	rec := doRequest(t, s, http.MethodPost, "/api/tick", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/tick", map[string]string{"Authorization": "Bearer wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTickFailsClosedWithoutConfiguredSecret(t *testing.T) {
	s := newTestServer("", &fakeEngine{report: sampleReport()}, &fakeHistory{})

	// Empty token against empty secret must still be rejected.
	rec := doRequest(t, s, http.MethodPost, "/api/tick", map[string]string{"Authorization": "Bearer "})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTickSuccess(t *testing.T) {
	s := newTestServer("hunter2", &fakeEngine{report: sampleReport()}, &fakeHistory{})

	rec := doRequest(t, s, http.MethodPost, "/api/tick", map[string]string{"Authorization": "Bearer hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                `json:"success"`
		RunID   string              `json:"run_id"`
		Updates []domain.TickUpdate `json:"updates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "run-1", body.RunID)
	require.Len(t, body.Updates, 1)
	require.Equal(t, 3, body.Updates[0].Mentions)
}

func TestTickFatalFailure(t *testing.T) {
	s := newTestServer("hunter2", &fakeEngine{tickErr: errors.New("symbol store unreachable")}, &fakeHistory{})

	rec := doRequest(t, s, http.MethodPost, "/api/tick", map[string]string{"Authorization": "Bearer hunter2"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "failed to update market", body["error"])
	require.Contains(t, body["message"], "unreachable")
}

func TestMarketQuery(t *testing.T) {
	quotes := []domain.Quote{{
		Symbol:    "$AI",
		Name:      "Technology",
		Price:     decimal.RequireFromString("151.50"),
		Category:  "Technology",
		Keywords:  []string{"ai"},
		BasePrice: decimal.RequireFromString("150.00"),
		Timestamp: time.Now().UTC(),
	}}
	s := newTestServer("", &fakeEngine{quotes: quotes}, &fakeHistory{})

	// The query boundary needs no secret.
	rec := doRequest(t, s, http.MethodGet, "/api/market", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		Data    []domain.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, "$AI", body.Data[0].Symbol)
	require.Equal(t, []string{"ai"}, body.Data[0].Keywords)
}

func TestHistoryEndpoint(t *testing.T) {
	store := &fakeHistory{obs: []domain.PriceObservation{
		{Symbol: "$AI", Price: decimal.RequireFromString("151.50"), Timestamp: time.Now().UTC()},
	}}
	s := newTestServer("", &fakeEngine{}, store)

	rec := doRequest(t, s, http.MethodGet, "/api/market/history/$AI?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "151.5"))

	rec = doRequest(t, s, http.MethodGet, "/api/market/history/$AI?limit=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamBroadcastsTickReports(t *testing.T) {
	s := newTestServer("", &fakeEngine{}, &fakeHistory{})
	t.Cleanup(s.Close)

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/market/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Give the hub a moment to register the client.
	require.Eventually(t, func() bool {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		return len(s.hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	s.hub.broadcast(sampleReport())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var report domain.TickReport
	require.NoError(t, json.Unmarshal(payload, &report))
	require.Equal(t, "run-1", report.RunID)
}
