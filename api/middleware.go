package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

type RateLimiter struct {
	requests map[string]*ClientRequests
	mu       sync.Mutex
}

type ClientRequests struct {
	count    int
	lastSeen time.Time
}

const (
	maxRequests    = 100             // Maximum requests per window
	windowDuration = time.Minute * 5 // Window duration
)

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]*ClientRequests),
	}
}

// RateLimit throttles anonymous clients by IP. Requests carrying a valid
// API key in the Authorization header bypass the limit.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("Authorization")
		if apiKey != "" {
			if valid, err := s.store.TouchAPIKey(r.Context(), apiKey); err == nil && valid {
				next.ServeHTTP(w, r)
				return
			}
		}

		clientIP := r.RemoteAddr

		s.limiter.mu.Lock()

		// Clean up old entries
		now := time.Now()
		for ip, req := range s.limiter.requests {
			if now.Sub(req.lastSeen) > windowDuration {
				delete(s.limiter.requests, ip)
			}
		}

		client, exists := s.limiter.requests[clientIP]
		if !exists {
			client = &ClientRequests{lastSeen: now}
			s.limiter.requests[clientIP] = client
		}

		// Check if window has expired
		if now.Sub(client.lastSeen) > windowDuration {
			client.count = 0
			client.lastSeen = now
		}

		if client.count >= maxRequests {
			reset := client.lastSeen.Add(windowDuration)
			s.limiter.mu.Unlock()
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", reset.Format(time.RFC3339))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		client.count++
		client.lastSeen = now
		remaining := maxRequests - client.count
		reset := client.lastSeen.Add(windowDuration)
		s.limiter.mu.Unlock()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset.Format(time.RFC3339))

		next.ServeHTTP(w, r)
	})
}
