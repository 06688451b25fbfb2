package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// IssueRateLimiter allows each user limit issue submissions per window, counted
// in Redis under "<prefix>:<userID>". It must run after AuthMiddleware. A nil
// client disables the limit.
func IssueRateLimiter(rdb redis.Cmdable, prefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			utils.AbortWithError(c, apperror.Unauthenticated("User not authenticated"))
			return
		}

		ctx := c.Request.Context()
		userKey := prefix + ":" + userID.Hex()

		count, err := rdb.Incr(ctx, userKey).Result()
		if err != nil {
			utils.AbortWithError(c, apperror.Upstream("redis error incrementing count", err))
			return
		}

		// The window starts with the first submission.
		if count == 1 {
			if err := rdb.Expire(ctx, userKey, window).Err(); err != nil {
				utils.AbortWithError(c, apperror.Upstream("redis error setting TTL", err))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := rdb.TTL(ctx, userKey).Result()
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "rate_limited",
				"message":     fmt.Sprintf("You can report at most %d issues per %s", limit, window),
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
