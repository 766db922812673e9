package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kon-rad/juego-sub000/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
	headerPlayerID  = "X-Player-Id"

	maxPlayerIDLen = 128
)

// AttachTraceContext stores trace, request and player ids on the request
// context. The player id comes from X-Player-Id, else the playerId query
// parameter. It is also tagged on the active otel span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		playerID := requestPlayerID(c)
		if playerID != "" {
			span.SetAttributes(attribute.String("juego.player_id", playerID))
			c.Set("player_id", playerID)
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
			PlayerID:  playerID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func requestPlayerID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(headerPlayerID))
	if id == "" {
		id = strings.TrimSpace(c.Query("playerId"))
	}
	if len(id) > maxPlayerIDLen {
		return ""
	}
	return id
}
