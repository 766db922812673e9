package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/ctxutil"
)

func TestAttachTraceContextCarriesPlayerID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{"header", "p1", "/api/genie/chat", "p1"},
		{"query", "", "/api/genie/chat?playerId=p2", "p2"},
		{"header wins", "p3", "/api/genie/chat?playerId=p4", "p3"},
		{"anonymous", "", "/api/genie/chat", ""},
		{"too long", strings.Repeat("x", maxPlayerIDLen+1), "/api/genie/chat", ""},
	}
	for _, tc := range cases {
		var got *ctxutil.TraceData
		r := gin.New()
		r.Use(AttachTraceContext())
		r.POST("/api/genie/chat", func(c *gin.Context) {
			got = ctxutil.GetTraceData(c.Request.Context())
			c.Status(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodPost, tc.target, nil)
		if tc.header != "" {
			req.Header.Set(headerPlayerID, tc.header)
		}
		req.Header.Set(headerRequestID, "req-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got == nil {
			t.Fatalf("%s: no trace data on context", tc.name)
		}
		if got.PlayerID != tc.want {
			t.Fatalf("%s: PlayerID=%q, want %q", tc.name, got.PlayerID, tc.want)
		}
		if got.RequestID != "req-1" || rec.Header().Get(headerRequestID) != "req-1" {
			t.Fatalf("%s: request id=%q header=%q, want req-1", tc.name, got.RequestID, rec.Header().Get(headerRequestID))
		}
		if got.TraceID == "" || rec.Header().Get(headerTraceID) != got.TraceID {
			t.Fatalf("%s: trace id=%q header=%q", tc.name, got.TraceID, rec.Header().Get(headerTraceID))
		}
	}
}

func TestMetricsSkipsLongLivedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()

	r := gin.New()
	r.Use(Metrics(m, "/socket"))
	r.GET("/socket", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/teacher", func(c *gin.Context) { c.Status(http.StatusOK) })
	for _, path := range []string{"/socket", "/api/teacher", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `route="/socket"`) {
		t.Fatalf("socket route recorded:\n%s", out)
	}
	for _, want := range []string{
		`juego_api_requests_total{method="GET",route="/api/teacher",status="200"} 1`,
		`juego_api_requests_total{method="GET",route="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
