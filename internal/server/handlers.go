package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buzzcap/buzzmarket/pkg/logger"
)

// authorized checks the trigger's bearer token against the shared secret.
// No configured secret rejects everything rather than letting an empty
// header match an empty secret.
func (s *Server) authorized(r *http.Request) bool {
	secret := s.cfg.TriggerSecret
	if secret == "" {
		return false
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// handleTick is the trigger boundary: one authenticated call runs one full
// market update and returns the batch result.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	s.tickMu.Lock()
	report, err := s.engine.RunTick(r.Context())
	s.tickMu.Unlock()
	if err != nil {
		logger.Errorf("tick failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "failed to update market",
			"message": err.Error(),
		})
		return
	}

	s.hub.broadcast(report)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"run_id":      report.RunID,
		"timestamp":   report.FinishedAt.Format(time.RFC3339),
		"corpus_size": report.CorpusSize,
		"updates":     report.Updates,
	})
}

// handleMarket is the query boundary: current quotes for every symbol,
// best-known data even right after a partially failed tick.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.engine.Quotes(r.Context())
	if err != nil {
		logger.Errorf("market query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "failed to fetch market data",
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      quotes,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	obs, err := s.store.RecentPrices(r.Context(), symbol, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "history": obs})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListTickRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
