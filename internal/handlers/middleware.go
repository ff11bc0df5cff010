package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Mutating routes each end in a flash write; limit how fast one client
// can trigger them.
const (
	defaultRatePerSec = 2.0
	defaultBurst      = 5
	limiterIdleTTL    = 10 * time.Minute

	errTooManyRequests = "too many requests"
)

// serving reports whether the setup portal is up.
func (h *Handler) serving() bool {
	return h.services.Provisioning != nil && h.services.Serving()
}

// setupURL is where captive clients are sent.
func (h *Handler) setupURL() string {
	if h.services.Provisioning == nil {
		return "/"
	}
	ip := h.services.Address()
	if ip == nil {
		return "/"
	}
	return "http://" + ip.String() + "/"
}

// captiveRedirect answers requests for any foreign host with a redirect to
// the setup page while the portal is up.
func (h *Handler) captiveRedirect(c *gin.Context) {
	if h.services.Provisioning == nil || !h.services.ShouldRedirect(c.Request.Host) {
		c.Next()
		return
	}
	if h.log != nil {
		h.log.Debugw("captive_redirect", "host", c.Request.Host, "path", c.Request.URL.Path)
	}
	c.Redirect(http.StatusFound, h.setupURL())
	c.Abort()
}

// requireProvisioned hides control routes while the setup portal is up.
func (h *Handler) requireProvisioned(c *gin.Context) {
	if h.serving() {
		c.Redirect(http.StatusFound, h.setupURL())
		c.Abort()
		return
	}
	c.Next()
}

// requireSetup limits provisioning routes to setup mode.
func (h *Handler) requireSetup(c *gin.Context) {
	if !h.serving() {
		h.notFound(c)
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) rateLimit(c *gin.Context) {
	if h.limiter == nil || h.limiter.allow(clientIP(c.Request)) {
		c.Next()
		return
	}
	if h.log != nil {
		h.log.Warnw("rate_limited", "client", clientIP(c.Request), "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errTooManyRequests})
}

// clientIP uses the connection address only; the device sits on a LAN with
// no trusted proxies.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	clients map[string]*limiterEntry
	now     func() time.Time
}

func newIPLimiter(perSec float64, burst int) *ipLimiter {
	return &ipLimiter{
		perSec:  rate.Limit(perSec),
		burst:   burst,
		clients: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *ipLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, e := range l.clients {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(l.clients, k)
		}
	}
	e, ok := l.clients[client]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.perSec, l.burst)}
		l.clients[client] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}
