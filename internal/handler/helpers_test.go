package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/middleware"
	"volunteer_platform/internal/realtime"
	"volunteer_platform/internal/repository"
	"volunteer_platform/internal/repository/repositorytest"
	"volunteer_platform/internal/service"
	"volunteer_platform/pkg/jwt"
	"volunteer_platform/pkg/logger"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer runs the full router over in-memory repositories and a local hub.
type testServer struct {
	srv      *httptest.Server
	cfg      *config.Config
	hub      *realtime.Hub
	messages *repositorytest.MessageStore
	users    *repositorytest.UserStore
	audit    *repositorytest.AuditStore
	sessions *repositorytest.SessionStore
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			AccessSecret:  testSecret,
			AccessTTL:     time.Hour,
			RefreshSecret: testSecret + "-refresh",
			RefreshTTL:    24 * time.Hour,
			Issuer:        "test",
		},
		CORS: config.CORSConfig{AllowedOrigin: "*"},
		Chat: config.ChatConfig{
			ConversationWindow:   200,
			IdentityCacheSize:    64,
			IdentityCacheTTL:     time.Minute,
			IdentityCacheBackend: "memory",
			RealtimeRelay:        "local",
			AuthRateLimit:        100,
			AuthRateWindow:       time.Minute,
			PageSizeDefault:      50,
			PageSizeMax:          100,
		},
	}
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := logger.NewNop()

	messages := repositorytest.NewMessageStore()
	users := repositorytest.NewUserStore()
	audit := repositorytest.NewAuditStore()
	sessions := repositorytest.NewSessionStore()
	cache, err := repository.NewMemoryIdentityCache(cfg.Chat.IdentityCacheSize, cfg.Chat.IdentityCacheTTL)
	require.NoError(t, err)

	repos := &repository.Repositories{
		User:          users,
		Session:       sessions,
		Message:       messages,
		IdentityCache: cache,
		Stats:         &repositorytest.StatsStore{Messages: messages, Users: users},
		Audit:         audit,
		RateLimit:     repositorytest.NewRateLimitStore(),
	}

	hub := realtime.NewHub(realtime.NewRegistry(), nil, log)
	services := service.NewServices(repos, hub, cfg, log)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, log)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, domain.RateLimitRule{
		Scope:  domain.RateLimitScopeIP,
		Limit:  cfg.Chat.AuthRateLimit,
		Window: cfg.Chat.AuthRateWindow,
	}, log)

	handlers := NewHandlers(services, hub, nil, cfg, log)
	srv := httptest.NewServer(NewRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, log))

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &testServer{
		srv:      srv,
		cfg:      cfg,
		hub:      hub,
		messages: messages,
		users:    users,
		audit:    audit,
		sessions: sessions,
	}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	t.Helper()
	user, err := s.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	tok, err := jwt.GenerateAccessToken(userID, user.Role, testSecret, "test", time.Hour)
	require.NoError(t, err)
	return tok
}

// call performs an HTTP request as userID (0 for anonymous) and decodes the body into out.
func (s *testServer) call(t *testing.T, method, path string, userID int64, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws" + query
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn

	// unread total pushed when the connection joined
	initialUnread int64
}

// connect opens a live connection for userID and waits until the join side effects are done.
func (s *testServer) connect(t *testing.T, userID int64) *wsClient {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL("?token="+s.token(t, userID)), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	c := &wsClient{t: t, conn: conn}
	greeting := c.expect(domain.EventConnected)
	var payload struct {
		UserID int64 `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(greeting.Payload, &payload))
	require.Equal(t, userID, payload.UserID)

	c.initialUnread = decode[domain.UnreadCountEvent](t, c.expect(domain.EventUnreadCount)).Total
	return c
}

func (c *wsClient) send(eventType string, payload any) {
	c.t.Helper()
	data, err := realtime.NewEvent(eventType, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, data))
}

func (c *wsClient) next() realtime.Event {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)

	var event realtime.Event
	require.NoError(c.t, json.Unmarshal(data, &event))
	return event
}

// expect skips frames until one of eventType arrives.
func (c *wsClient) expect(eventType string) realtime.Event {
	c.t.Helper()
	for {
		event := c.next()
		if event.Type == eventType {
			return event
		}
	}
}

func decode[T any](t *testing.T, event realtime.Event) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(event.Payload, &out))
	return out
}

// waitFor polls cond, for state changed by another goroutine.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}
