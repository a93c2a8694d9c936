package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	registry "github.com/thingful/retryable-registry-prometheus"
	"golang.org/x/time/rate"
)

var (
	limited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pems",
			Name:      "rate_limited_requests",
			Help:      "A counter of rate limited requests",
		}, []string{"path"},
	)
)

func init() {
	registry.MustRegister(limited)
}

// visitor is a type used to hold visit status for a client of the API. We use
// a struct for this as it allows us to keep track of the time of the last
// visit, so allowing old rate limits to be cleaned up.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// expired is a helper function that checks whether a visitor entry should be
// considered expired and so flagged for deletion from our state. Must be
// passed a valid clockwork.Clock as well as an expiry duration.
func (v *visitor) expired(clock clockwork.Clock, expiry time.Duration) bool {
	return clock.Now().Sub(v.lastSeen) > expiry
}

// RateLimiterMiddleware is a middleware that implements simple rate limiting
// of requests using the golang.org/x/time/rate package. The API carries no
// authentication as it only ever faces the farm LAN, so clients are keyed by
// their remote host.
type RateLimiterMiddleware struct {
	rate     int
	burst    int
	expiry   time.Duration
	clock    clockwork.Clock
	visitors map[string]*visitor
	sync.RWMutex
}

// NewRateLimiterMiddleware returns a new middleware instance that has been
// configured to start limiting requests to the API.
func NewRateLimiterMiddleware(clock clockwork.Clock, requestRate, burst int, expiry time.Duration) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		rate:     requestRate,
		burst:    burst,
		expiry:   expiry,
		clock:    clock,
		visitors: make(map[string]*visitor),
	}

	// set up a ticker to remove stale entries every `expiry` seconds
	ticker := clock.NewTicker(expiry)
	go func() {
		for range ticker.Chan() {
			rm.cleanupVisitors()
		}
	}()

	return rm
}

// Handler is the middleware handler function
func (rm *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		limiter := rm.getVisitor(host)
		if !limiter.Allow() {
			limited.With(
				prometheus.Labels{
					"path": r.URL.Path,
				},
			).Inc()

			tooManyRequestsError(w, fmt.Errorf("API rate limit exceeded, please try again later. Your current limit is no more than %v req/sec", rm.rate))
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

// getVisitor attempts to return a rate limiter for the given host. If an
// entry for the visitor is already present in the map we simply return it,
// else we hand over to `addVisitor` to create a new one.
func (rm *RateLimiterMiddleware) getVisitor(host string) *rate.Limiter {
	rm.RLock()
	if v, ok := rm.visitors[host]; ok {
		v.lastSeen = rm.clock.Now()
		rm.RUnlock()
		return v.limiter
	}
	rm.RUnlock()

	return rm.addVisitor(host)
}

// addVisitor adds a new visitor into our map, initializes its limiter and
// adds a timestamp at which the visitor was received. We later use this
// timestamp to remove old entries from the map.
func (rm *RateLimiterMiddleware) addVisitor(host string) *rate.Limiter {
	limiter := rate.NewLimiter(rate.Limit(rm.rate), rm.burst)

	rm.Lock()
	defer rm.Unlock()

	rm.visitors[host] = &visitor{
		limiter:  limiter,
		lastSeen: rm.clock.Now(),
	}

	return rm.visitors[host].limiter
}

// cleanupVisitors must be called repeatedly in a goroutine, and is responsible
// for removing stale entries from our map, i.e. visitors that haven't been
// seen for the length of our `expiry` duration.
func (rm *RateLimiterMiddleware) cleanupVisitors() {
	rm.Lock()
	defer rm.Unlock()
	for host, v := range rm.visitors {
		if v.expired(rm.clock, rm.expiry) {
			delete(rm.visitors, host)
		}
	}
}
