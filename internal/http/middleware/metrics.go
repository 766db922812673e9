package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kon-rad/juego-sub000/internal/observability"
)

// Metrics records request counts and latency per matched route. Skipped
// routes are long-lived (the presence socket) or self-referential (the scrape
// endpoint) and would only distort the latency histogram.
func Metrics(m *observability.Metrics, skip ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if skipped[route] {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
