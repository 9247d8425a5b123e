package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tiendaapi/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ── General API rate limiter ──────────────────────────────────────────────────
// Token bucket per client IP. Idle buckets are evicted by a janitor goroutine
// that stops with ctx.

type visitante struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu         sync.Mutex
	visitantes map[string]*visitante
	rps        rate.Limit
	burst      int
}

func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		visitantes: make(map[string]*visitante),
		rps:        rate.Limit(rps),
		burst:      burst,
	}
	go rl.limpiar(ctx, time.Minute, 3*time.Minute)
	return rl
}

func (rl *RateLimiter) limpiar(ctx context.Context, cada, inactividad time.Duration) {
	ticker := time.NewTicker(cada)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitantes {
				if time.Since(v.lastSeen) > inactividad {
					delete(rl.visitantes, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitantes[ip]
	if !ok {
		v = &visitante{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitantes[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Middleware rejects with 429 once the caller's bucket is empty.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.limiter(ip).Allow() {
			log.Warn().Str("ip", ip).Str("path", c.Request.URL.Path).Msg("rate limit excedido")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en unos segundos."))
			return
		}
		c.Next()
	}
}
