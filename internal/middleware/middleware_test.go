package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository/repositorytest"
	"volunteer_platform/internal/service"
	apperrors "volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/jwt"
	"volunteer_platform/pkg/logger"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *AuthMiddleware {
	cfg := config.JWTConfig{AccessSecret: testSecret, AccessTTL: time.Hour, Issuer: "test"}
	return NewAuthMiddleware(service.NewAuthService(nil, nil, nil, cfg, logger.NewNop()), logger.NewNop())
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(userID, role, testSecret, "test", time.Hour)
	require.NoError(t, err)
	return tok
}

func whoAmI(c *gin.Context) {
	p, ok := PrincipalFrom(c)
	if !ok {
		c.Status(http.StatusTeapot)
		return
	}
	c.String(http.StatusOK, "%d:%s", p.UserID, p.Role)
}

func TestRequireAuth(t *testing.T) {
	auth := newAuth()
	router := gin.New()
	router.GET("/api", auth.RequireAuth(), whoAmI)
	router.GET("/ws", auth.RequireSocketAuth(), whoAmI)

	valid := token(t, 5, domain.RoleOrganizer)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{"bearer header", "/api", "Bearer " + valid, http.StatusOK, "5:organizer"},
		{"lowercase scheme", "/api", "bearer " + valid, http.StatusOK, "5:organizer"},
		{"missing", "/api", "", http.StatusUnauthorized, ""},
		{"garbage", "/api", "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api", "Basic " + valid, http.StatusUnauthorized, ""},
		{"query not accepted on api", "/api?token=" + valid, "", http.StatusUnauthorized, ""},
		{"query on socket", "/ws?token=" + valid, "", http.StatusOK, "5:organizer"},
		{"garbage query on socket", "/ws?token=garbage", "", http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			req.Equal(tc.want, w.Code)
			if tc.body != "" {
				req.Equal(tc.body, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	auth := newAuth()
	router := gin.New()
	router.GET("/admin", auth.RequireAuth(), auth.RequireRole(domain.RoleAdmin), whoAmI)

	for role, want := range map[string]int{domain.RoleAdmin: http.StatusOK, domain.RoleVolunteer: http.StatusForbidden} {
		r := httptest.NewRequest(http.MethodGet, "/admin", nil)
		r.Header.Set("Authorization", "Bearer "+token(t, 1, role))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		require.Equal(t, want, w.Code, role)
	}
}

func TestCORS(t *testing.T) {
	req := require.New(t)
	router := gin.New()
	router.Use(CORS("https://volunteers.example.org"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := httptest.NewRequest(http.MethodOptions, "/x", nil)
	r.Header.Set("Origin", "https://volunteers.example.org")
	r.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("https://volunteers.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	req.Equal("true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	req.Equal(http.StatusForbidden, w.Code)
	req.Empty(w.Header().Get("Access-Control-Allow-Origin"))

	req.True(OriginAllowed("*", "https://anything"))
	req.False(OriginAllowed("https://a", "https://b"))
}

func TestCORS_WildcardWithoutCredentials(t *testing.T) {
	req := require.New(t)
	router := gin.New()
	router.Use(CORS("*"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	req.Empty(w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimit(t *testing.T) {
	req := require.New(t)
	limiter := service.NewRateLimitService(repositorytest.NewRateLimitStore(), logger.NewNop())
	rule := domain.RateLimitRule{Scope: domain.RateLimitScopeIP, Limit: 2, Window: time.Minute}

	router := gin.New()
	router.POST("/login", NewRateLimitMiddleware(limiter, rule, logger.NewNop()).Limit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	remaining := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
		remaining = append(remaining, w.Header().Get("X-RateLimit-Remaining"))
	}

	req.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	req.Equal([]string{"1", "0", "0"}, remaining)
}

func TestRequestID(t *testing.T) {
	req := require.New(t)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger.NewNop()))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(HeaderRequestID)
	req.Len(generated, 36)
	req.Equal(generated, w.Body.String())

	const supplied = "3f0c6a8e-58f5-4e0b-9a36-7b0f6f3f1c11"
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set(HeaderRequestID, supplied)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	req.Equal(supplied, w.Header().Get(HeaderRequestID))
}

func TestErrorHandler(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(logger.NewNop()))
	router.GET("/missing", func(c *gin.Context) { _ = c.Error(fmt.Errorf("load: %w", apperrors.ErrMessageNotFound)) })
	router.GET("/boom", func(c *gin.Context) { _ = c.Error(fmt.Errorf("pg: connection reset")) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"load: message not found","code":404}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal server error","code":500}`, w.Body.String())
}
