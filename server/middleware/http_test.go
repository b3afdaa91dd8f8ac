package middleware_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/server/middleware"
	"github.com/kbukum/authgate/throttle"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorBody {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_Panic(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery(logger.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeInternal {
		t.Fatalf("unexpected code: %s", body.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	id := rr.Header().Get(middleware.HeaderRequestID)
	if id == "" {
		t.Fatal("expected X-Request-Id in response")
	}
	if seen != id {
		t.Fatalf("context id %q != header id %q", seen, id)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get(middleware.HeaderRequestID); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// RequestLogger / BodySizeLimit / Chain
// ---------------------------------------------------------------------------

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger.NewNop(), nil))
	r.GET("/api/hc", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for path, want := range map[string]int{"/api/hc": http.StatusOK, "/x": http.StatusTeapot} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rr.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rr.Code)
		}
	}
}

func TestBodySizeLimit_AppliesLimit(t *testing.T) {
	handler := middleware.BodySizeLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tooLarge *http.MaxBytesError
		if _, err := io.ReadAll(r.Body); stderrors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("012")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 under the limit, got %d", rr.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := middleware.Chain(mk("a"), mk("b"), mk("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := []string{"a", "b", "c", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestGinWrap_AbortsWhenMiddlewareAnswers(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}
	reached := false
	r := gin.New()
	r.Use(middleware.GinWrap(deny))
	r.GET("/", func(c *gin.Context) { reached = true })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if reached {
		t.Fatal("handler must not run after the middleware answered")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	limiter := throttle.NewMemoryLimiter(throttle.Config{MaxAttempts: 2, Window: time.Minute})
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter, Log: logger.NewNop()}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		codes = append(codes, rr.Code)
		if i == 2 {
			if rr.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header")
			}
			if body := decodeError(t, rr); body.Code != errors.ErrCodeRateLimited {
				t.Errorf("code = %s", body.Code)
			}
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) { return false, context.DeadlineExceeded }
func (failingLimiter) Reset(context.Context, string) error         { return nil }

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{Limiter: failingLimiter{}, Log: logger.NewNop()}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when limiter fails, got %d", rr.Code)
	}
}
