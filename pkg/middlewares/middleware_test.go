package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	"todoapi/pkg/logger"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

func TestRequestIDMiddleware(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	router.ServeHTTP(w, req)

	Expect(w.Header().Get(HeaderRequestID)).To(Equal("abc-123"))
	Expect(w.Body.String()).To(Equal("abc-123"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	Expect(w.Header().Get(HeaderRequestID)).To(HaveLen(36))
	Expect(w.Body.String()).To(Equal(w.Header().Get(HeaderRequestID)))
}

func TestTimeoutMiddleware(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TimeoutMiddleware(50 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.String(http.StatusGatewayTimeout, context.Cause(c.Request.Context()).Error())
		case <-time.After(time.Second):
			c.String(http.StatusOK, "finished")
		}
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slow", nil)
	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusGatewayTimeout))
	Expect(w.Body.String()).To(ContainSubstring("deadline exceeded"))
}

func TestSetupGinMiddleware_RecoversPanics(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	cfg := config.Config{HTTP: config.HTTPConfig{RequestTimeout: time.Second}}

	router := gin.New()
	SetupGinMiddleware(router, "todoapi-test", telemetry.NewAppMetrics(prometheus.NewRegistry()), logger.NewNop(), cfg)
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusInternalServerError))
	Expect(w.Body.String()).To(MatchJSON(`{
		"success": false,
		"message": "Unexpected error while handling the request",
		"error": "Internal server error"
	}`))
	Expect(w.Header().Get(HeaderRequestID)).NotTo(BeEmpty())
}

func TestGetClientIP(t *testing.T) {
	RegisterTestingT(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	Expect(GetClientIP(c)).To(Equal("203.0.113.7"))
}
