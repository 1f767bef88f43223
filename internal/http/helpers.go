package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finflow/internal/core"
)

// monthParam extracts the ?month= query parameter, defaulting to the
// current month.
func monthParam(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		return v
	}
	now := time.Now().UTC()
	return core.MonthToken(now.Year(), int(now.Month()))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondJSONError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// formatMoney renders a Money with the configured currency prefix and
// thousands grouping for templates.
func (s *Server) formatMoney(m core.Money) string {
	return core.FormatAmount(m.Amount, s.currencyPrefix, ",")
}

// cacheKeyPrefix scopes cache entries to one user so a write can drop all of
// that user's cached views at once.
func cacheKeyPrefix(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10) + ":"
}
