package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimits is the budget one client address gets from the host API
type ClientLimits struct {
	RequestsPerSecond float64       // REST requests per second
	Burst             int           // REST burst
	Sockets           int           // concurrent websocket subscriptions
	IdleAfter         time.Duration // clients unseen this long are forgotten
}

// DefaultClientLimits suit one host page polling snapshots and streaming
// input, with a few spectator sockets.
var DefaultClientLimits = ClientLimits{
	RequestsPerSecond: 20,
	Burst:             40,
	Sockets:           10,
	IdleAfter:         10 * time.Minute,
}

type client struct {
	requests *rate.Limiter
	sockets  int
	lastSeen time.Time
}

// ClientLimiter tracks request budgets and open sockets per client address.
// Idle clients are swept while serving requests, so it runs no goroutine.
type ClientLimiter struct {
	mu        sync.Mutex
	limits    ClientLimits
	clients   map[string]*client
	nextSweep time.Time
	now       func() time.Time
}

// NewClientLimiter creates a limiter; zero fields take the defaults
func NewClientLimiter(limits ClientLimits) *ClientLimiter {
	if limits.RequestsPerSecond <= 0 {
		limits.RequestsPerSecond = DefaultClientLimits.RequestsPerSecond
	}
	if limits.Burst <= 0 {
		limits.Burst = DefaultClientLimits.Burst
	}
	if limits.Sockets <= 0 {
		limits.Sockets = DefaultClientLimits.Sockets
	}
	if limits.IdleAfter <= 0 {
		limits.IdleAfter = DefaultClientLimits.IdleAfter
	}
	return &ClientLimiter{
		limits:  limits,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// get returns the client record, creating it. Caller holds mu.
func (cl *ClientLimiter) get(ip string, now time.Time) *client {
	if now.After(cl.nextSweep) {
		cl.sweep(now)
	}
	c, ok := cl.clients[ip]
	if !ok {
		c = &client{requests: rate.NewLimiter(rate.Limit(cl.limits.RequestsPerSecond), cl.limits.Burst)}
		cl.clients[ip] = c
	}
	c.lastSeen = now
	return c
}

// sweep forgets idle clients without open sockets. Caller holds mu.
func (cl *ClientLimiter) sweep(now time.Time) {
	cutoff := now.Add(-cl.limits.IdleAfter)
	for ip, c := range cl.clients {
		if c.sockets == 0 && c.lastSeen.Before(cutoff) {
			delete(cl.clients, ip)
		}
	}
	cl.nextSweep = now.Add(cl.limits.IdleAfter)
}

// AllowRequest spends one request from the client's budget
func (cl *ClientLimiter) AllowRequest(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	now := cl.now()
	return cl.get(ip, now).requests.AllowN(now, 1)
}

// AcquireSocket reserves a websocket slot for the client
func (cl *ClientLimiter) AcquireSocket(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	c := cl.get(ip, cl.now())
	if c.sockets >= cl.limits.Sockets {
		return false
	}
	c.sockets++
	return true
}

// ReleaseSocket returns a slot taken by AcquireSocket
func (cl *ClientLimiter) ReleaseSocket(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if c, ok := cl.clients[ip]; ok && c.sockets > 0 {
		c.sockets--
	}
}

// Clients returns the number of tracked client addresses
func (cl *ClientLimiter) Clients() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// Middleware answers 429 once a client's request budget is spent
func (cl *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cl.AllowRequest(ClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeError(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the first forwarded address, or the peer address.
// Forwarded headers are only trustworthy behind a proxy that sets them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// OriginPolicy decides which browser origins may open a WebSocket. Patterns
// follow go-chi/cors: an exact origin or one "*" wildcard such as
// "http://localhost:*" or "https://*.school.example".
type OriginPolicy struct {
	patterns []string
}

// NewOriginPolicy creates a policy from origin patterns
func NewOriginPolicy(patterns []string) *OriginPolicy {
	return &OriginPolicy{patterns: append([]string(nil), patterns...)}
}

// Allowed checks an Origin header. Non-browser clients send none and are
// accepted; the game token still guards control.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, pattern := range p.patterns {
		if pattern == "*" || pattern == origin {
			return true
		}
		if i := strings.IndexByte(pattern, '*'); i >= 0 {
			prefix, suffix := pattern[:i], pattern[i+1:]
			if len(origin) > len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}
