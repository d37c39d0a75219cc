package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginlimit "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", strings.Join([]string{
		"Content-Type",
		"Authorization",
	}, ","))
	c.Next()
}

// timeout bounds the request context, every database
// call made while handling the request is canceled with it.
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// rateLimit limits requests per client ip. The rate uses the
// limiter format, "100-M" is 100 requests a minute.
func rateLimit(store limiter.Store, formatted string) gin.HandlerFunc {
	if formatted == "" || store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Printf("invalid rate %q, rate limiting turned off: %v", formatted, err)
		return func(c *gin.Context) { c.Next() }
	}
	return ginlimit.NewMiddleware(
		limiter.New(store, rate),
		ginlimit.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(429, ErrStatus(429, "rate limit exceeded"))
		}),
	)
}
