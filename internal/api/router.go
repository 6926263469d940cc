package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"classtable-backend/config"
	"classtable-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()
	if cfg.RequestIPHeader != "" {
		// Rate limiting keys on the client IP, so honor the proxy header
		// when one is configured.
		r.TrustedPlatform = cfg.RequestIPHeader
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/calendar/{student_id}/{term}
		api.GET("/calendar/:student_id/:term", h.GetCalendarToken)
	}

	// GET /calendar/_ics/{token}.ics
	r.GET("/calendar/_ics/:token", rateLimiter, h.DownloadICS)

	// Legacy download form: GET /ics/{student_id}-{term}.ics. The feed is
	// rebuilt per request, so these responses go through the cache.
	r.GET("/ics/:name", rateLimiter, caching, h.LegacyICS)

	return r
}
