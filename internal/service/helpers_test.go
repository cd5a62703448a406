package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
	"volunteer_platform/internal/repository"
	"volunteer_platform/internal/repository/repositorytest"
	"volunteer_platform/pkg/logger"
)

type sentEvent struct {
	UserID  int64
	Type    string
	Payload any
}

// liveRecorder is a Notifier and Presence that remembers every push.
type liveRecorder struct {
	mu     sync.Mutex
	events []sentEvent
	online map[int64]bool
	err    error

	deliveryRequests [][2]int64
}

func newLiveRecorder() *liveRecorder {
	return &liveRecorder{online: make(map[int64]bool)}
}

func (r *liveRecorder) Notify(_ context.Context, userID int64, eventType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{UserID: userID, Type: eventType, Payload: payload})
	return r.err
}

func (r *liveRecorder) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func (r *liveRecorder) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.online)
}

func (r *liveRecorder) RequestDelivery(_ context.Context, receiverID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveryRequests = append(r.deliveryRequests, [2]int64{receiverID, messageID})
	return nil
}

func (r *liveRecorder) requestedDeliveries() [][2]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int64(nil), r.deliveryRequests...)
}

func (r *liveRecorder) setOnline(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = true
}

func (r *liveRecorder) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *liveRecorder) of(userID int64, eventType string) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, e := range r.events {
		if e.UserID == userID && e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// to returns every event sent to userID, in order.
func (r *liveRecorder) to(userID int64) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (r *liveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *liveRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *liveRecorder) lastUnread(userID int64) int64 {
	events := r.of(userID, domain.EventUnreadCount)
	if len(events) == 0 {
		return -1
	}
	return events[len(events)-1].Payload.(domain.UnreadCountEvent).Total
}

type fixture struct {
	svc      *chatService
	messages *repositorytest.MessageStore
	users    *repositorytest.UserStore
	audit    *repositorytest.AuditStore
	live     *liveRecorder

	alice, bob, carol int64
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		ConversationWindow: 200,
		PageSizeDefault:    50,
		PageSizeMax:        100,
	}
}

func newFixture(t *testing.T, cfg config.ChatConfig) *fixture {
	t.Helper()

	clock := newTestClock()
	messages := repositorytest.NewMessageStore()
	messages.Now = clock.next
	users := repositorytest.NewUserStore()
	auditStore := repositorytest.NewAuditStore()
	live := newLiveRecorder()
	log := logger.NewNop()

	cache, err := repository.NewMemoryIdentityCache(64, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	svc := NewChatService(
		messages,
		NewIdentityResolver(users, cache, log),
		live,
		live,
		NewRateLimitService(repositorytest.NewRateLimitStore(), log),
		NewAuditService(auditStore, log),
		cfg,
		log,
	).(*chatService)
	svc.now = clock.next

	return &fixture{
		svc:      svc,
		messages: messages,
		users:    users,
		audit:    auditStore,
		live:     live,
		alice:    users.Add("Alice", domain.RoleVolunteer),
		bob:      users.Add("Bob", domain.RoleOrganizer),
		carol:    users.Add("Carol", domain.RoleVolunteer),
	}
}

func (f *fixture) principal(userID int64) domain.Principal {
	user, err := f.users.GetByID(context.Background(), userID)
	if err != nil {
		return domain.Principal{UserID: userID, Role: domain.RoleUnknown}
	}
	return domain.Principal{UserID: user.ID, Role: user.Role}
}

func (f *fixture) send(t *testing.T, from, to int64, text string) *domain.LiveMessage {
	t.Helper()
	live, err := f.svc.SendMessage(context.Background(), f.principal(from), to, text)
	if err != nil {
		t.Fatalf("send %d -> %d: %v", from, to, err)
	}
	return live
}

func (f *fixture) stored(t *testing.T, id int64) *domain.Message {
	t.Helper()
	m, err := f.messages.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get message %d: %v", id, err)
	}
	return m
}

// testClock hands out strictly increasing timestamps.
type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newTestClock() *testClock {
	return &testClock{cur: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}
