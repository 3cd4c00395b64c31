// Package server exposes the market over HTTP: the authenticated tick
// trigger, the read-only market query, and a websocket stream of tick
// results.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buzzcap/buzzmarket/internal/domain"
	"github.com/buzzcap/buzzmarket/internal/storage/sqlite"
	"github.com/buzzcap/buzzmarket/pkg/logger"
)

// MarketEngine is what the HTTP surface needs from the engine.
type MarketEngine interface {
	RunTick(ctx context.Context) (*domain.TickReport, error)
	Quotes(ctx context.Context) ([]domain.Quote, error)
}

// HistoryStore serves the per-symbol history and tick-run audit endpoints.
type HistoryStore interface {
	RecentPrices(ctx context.Context, symbol string, n int) ([]domain.PriceObservation, error)
	ListTickRuns(ctx context.Context, limit int) ([]sqlite.TickRun, error)
}

type Config struct {
	// TriggerSecret is the shared secret for the tick trigger. Empty
	// fails closed: every trigger call is rejected.
	TriggerSecret string
}

type Server struct {
	cfg    Config
	engine MarketEngine
	store  HistoryStore
	hub    *streamHub

	// tickMu serializes whole tick batches across trigger sources.
	tickMu sync.Mutex

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

func New(cfg Config, engine MarketEngine, store HistoryStore) *Server {
	return &Server{
		cfg:    cfg,
		engine: engine,
		store:  store,
		hub:    newStreamHub(),
	}
}

// StartBackground runs the tick on an internal timer. Zero interval means
// scheduling stays fully external.
func (s *Server) StartBackground(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.tickLoop(ctx, interval)
	}()
}

func (s *Server) tickLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// A tick still in flight means this beat is skipped, not
			// queued; the next beat retries.
			if !s.tickMu.TryLock() {
				logger.Warnf("scheduled tick skipped: previous tick still running")
				continue
			}
			report, err := s.engine.RunTick(ctx)
			s.tickMu.Unlock()
			if err != nil {
				logger.Errorf("scheduled tick failed: %v", err)
				continue
			}
			s.hub.broadcast(report)
		}
	}
}

func (s *Server) Close() {
	if s.bgCancel != nil {
		s.bgCancel()
		s.bgWG.Wait()
	}
	s.hub.close()
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	api := r.Group("/api")
	api.POST("/tick", s.wrap(s.handleTick))

	market := api.Group("/market")
	market.GET("", s.wrap(s.handleMarket))
	market.GET("/history/:symbol", s.wrap(s.handleHistory))
	market.GET("/runs", s.wrap(s.handleRuns))
	market.GET("/stream", s.wrap(s.hub.handleSubscribe))

	return r
}

type paramsKeyType string

const paramsKey paramsKeyType = "buzzmarket_path_params"

// wrap adapts net/http handlers to gin, injecting path params into the
// request context.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := map[string]string{}
		for _, p := range c.Params {
			m[p.Key] = p.Value
		}
		ctx := context.WithValue(c.Request.Context(), paramsKey, m)
		c.Request = c.Request.WithContext(ctx)
		h(c.Writer, c.Request)
	}
}

func pathParam(r *http.Request, key string) string {
	if m, ok := r.Context().Value(paramsKey).(map[string]string); ok {
		return m[key]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": http.StatusText(status), "message": msg})
}
