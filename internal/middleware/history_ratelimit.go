package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nvdoan/wavelink-backend/pkg/clientip"
)

// Message history rate limit: per-IP, different limits for auth vs
// anonymous. Auth: 30 req/min, burst 20. Anonymous: 10 req/min, burst 5.
// Prevents 429 from rapid thread switching while blocking abuse.

const (
	historyAuthBurst = 20
	historyAnonBurst = 5
)

var (
	historyAuthLimiters = newLimiterStore(rate.Limit(0.5), historyAuthBurst)
	historyAnonLimiters = newLimiterStore(rate.Limit(0.17), historyAnonBurst)
)

func historyIsAuthenticated(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && len(strings.TrimPrefix(auth, "Bearer ")) > 0
}

// MessageHistoryRateLimit applies rate limiting only to GET
// /api/messages/history. Returns 429 with headers when exceeded.
func MessageHistoryRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, "/api/messages/history") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		auth := historyIsAuthenticated(r)

		store := historyAnonLimiters
		limit := historyAnonBurst
		if auth {
			store = historyAuthLimiters
			limit = historyAuthBurst
		}

		if !store.get(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many history requests. Please slow down."}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		next.ServeHTTP(w, r)
	})
}
