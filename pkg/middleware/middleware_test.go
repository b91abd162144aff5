package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGinLoggingMiddleware_PropagatesIDs(t *testing.T) {
	r := gin.New()
	r.Use(GinLoggingMiddleware())
	var traceID, requestID string
	r.GET("/ping", func(c *gin.Context) {
		traceID = logger.TraceID(c.Request.Context())
		requestID = logger.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/ping", http.Header{TraceIDHeader: {"trace-1"}})
	if traceID != "trace-1" {
		t.Errorf("trace id = %q", traceID)
	}
	if requestID == "" || w.Header().Get(RequestIDHeader) != requestID {
		t.Errorf("request id %q not echoed (%q)", requestID, w.Header().Get(RequestIDHeader))
	}
}

func TestGinRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(GinRecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	if w := serve(r, http.MethodGet, "/boom", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGinCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(GinCORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", nil)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", w.Code, w.Header())
	}
}

func TestGinMetricsMiddleware(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(GinMetricsMiddleware(m))
	r.GET("/results/:symbol", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/results/AAPL", nil)
	serve(r, http.MethodGet, "/results/MSFT", nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/results/:symbol", "200")); got != 2 {
		t.Errorf("templated path count = %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched count = %v", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimit.NewLocalRateLimiter(), ratelimit.Limit{Rate: 1, Period: time.Hour, Burst: 1}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/x", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Errorf("second request = %d, retry-after %q", w.Code, w.Header().Get("Retry-After"))
	}
}

var unaryInfo = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestGRPCRecoveryInterceptor(t *testing.T) {
	_, err := GRPCRecoveryInterceptor()(context.Background(), nil, unaryInfo, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("want Internal, got %v", err)
	}
}

func TestGRPCLoggingInterceptor_TraceFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-trace-id", "abc"))
	var seen string
	_, err := GRPCLoggingInterceptor()(ctx, nil, unaryInfo, func(ctx context.Context, req any) (any, error) {
		seen = logger.TraceID(ctx)
		return "ok", nil
	})
	if err != nil || seen != "abc" {
		t.Errorf("trace = %q err = %v", seen, err)
	}
}

func TestGRPCMetricsInterceptor(t *testing.T) {
	m := metrics.New("test")
	_, _ = GRPCMetricsInterceptor(m)(context.Background(), nil, unaryInfo, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	if got := testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues(unaryInfo.FullMethod, "NotFound")); got != 1 {
		t.Errorf("grpc counter = %v", got)
	}
}
