package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.Use(NewRateLimitPerIP(ctx, 1, 2, 16, time.Minute))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("burst request: %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", code)
	}

	// another IP gets its own bucket
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other ip: %d", code)
	}
}
