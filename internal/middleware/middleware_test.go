package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/crucial707/authsvc/internal/logging"
	"github.com/crucial707/authsvc/internal/metrics"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func TestCORS_NoOrigins(t *testing.T) {
	h := CORS(nil)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("OPTIONS", "/login", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 (passthrough)", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"https://app.example"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("OPTIONS", "/login", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allow-origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("allow-methods: got %q", got)
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q", got)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("request not forwarded: %q", rr.Body.String())
	}
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	// Unknown length, as with a chunked upload.
	req := httptest.NewRequest("POST", "/register", strings.NewReader(`{"username":"alice"}`))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) {
		t.Fatalf("expected *http.MaxBytesError, got %v", readErr)
	}
	if tooLarge.Limit != 8 {
		t.Errorf("limit: got %d, want 8", tooLarge.Limit)
	}
}

func TestRecoverer(t *testing.T) {
	h := chimw.RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/login", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["message"] == "" || strings.Contains(out["message"], "boom") {
		t.Errorf("unexpected body: %v", out)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(true)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Cache-Control", "Strict-Transport-Security"} {
		if rr.Header().Get(name) == "" {
			t.Errorf("missing header %s", name)
		}
	}

	rr = httptest.NewRecorder()
	SecurityHeaders(false)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set without TLS")
	}
}

func TestPrometheus_CountsNormalizedPath(t *testing.T) {
	h := Prometheus(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	counter := metrics.RequestTotal.WithLabelValues("POST", "/login", "401")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter: got %v, want %v", got, before+1)
	}
}

func TestPrometheus_SkipsMetricsPath(t *testing.T) {
	counter := metrics.RequestTotal.WithLabelValues("GET", "other", "200")
	before := testutil.ToFloat64(counter)

	Prometheus(http.HandlerFunc(okHandler)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	if got := testutil.ToFloat64(counter); got != before {
		t.Errorf("/metrics scrape was counted")
	}
}

func TestRequestLog_PassesThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	RequestLog(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestMaxBytes_DeclaredLengthRefused(t *testing.T) {
	called := false
	h := MaxBytes(8)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"username":"alice"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rr.Code)
	}
	if called {
		t.Error("handler ran for an oversized body")
	}
}

func TestTracing_RequestLogCarriesTraceID(t *testing.T) {
	prevProvider, prevProp, prevLogger := otel.GetTracerProvider(), otel.GetTextMapPropagator(), slog.Default()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevProp)
		slog.SetDefault(prevLogger)
	})

	var buf bytes.Buffer
	slog.SetDefault(logging.Setup("authd", "test", "text", "info", &buf))

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rr := httptest.NewRecorder()
	Tracing(RequestLog(http.HandlerFunc(okHandler))).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "trace_id="+traceID) {
		t.Errorf("request log missing incoming trace id:\n%s", buf.String())
	}
}
