package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitWindow = time.Second

// RateLimit enforces a fixed one-second window of max requests per
// organisation, or per client IP before authentication. Redis errors let
// the request through.
func RateLimit(rdb redis.Cmdable, max int64, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if sess := SessionFrom(c); sess != nil {
			subject = "org:" + sess.OrgID
		}
		if subject == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("dm:rate_limit:%s:%d", subject, time.Now().Unix())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > max {
			log.Warn("rate limited", zap.String("subject", subject), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
