package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// ResponseMeta prepares a per-request meta map that handlers fill and echo in the envelope.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now().UTC()})
		c.Next()
	}
}

// SetCacheHit flags whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	Meta(c)[cacheHitKey] = hit
}

// Meta returns the request's meta map, creating it when ResponseMeta did not run. The
// started_at marker is dropped from the returned map.
func Meta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			if started, ok := meta["started_at"].(time.Time); ok {
				meta["processing_time_ms"] = time.Since(started).Milliseconds()
				delete(meta, "started_at")
			}
			return meta
		}
	}
	meta := map[string]interface{}{}
	c.Set(responseMetaKey, meta)
	return meta
}
