package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_CountsRequests(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/ping", "200")); got != 3 {
		t.Errorf("期望 /ping 计数=3，实际=%v", got)
	}
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("期望 unmatched 计数=1，实际=%v", got)
	}
	if got := testutil.ToFloat64(m.RequestsInFlight); got != 0 {
		t.Errorf("请求结束后 in-flight 应为 0，实际=%v", got)
	}
}

func TestObserveSummary(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveSummary("generated", 2*time.Second)
	m.ObserveSummary("failed", 0)
	m.ObserveSummary("failed", 0)

	if got := testutil.ToFloat64(m.SummaryResults.WithLabelValues("generated")); got != 1 {
		t.Errorf("期望 generated=1，实际=%v", got)
	}
	if got := testutil.ToFloat64(m.SummaryResults.WithLabelValues("failed")); got != 2 {
		t.Errorf("期望 failed=2，实际=%v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveSummary("generated", time.Second) // 不应 panic
}
