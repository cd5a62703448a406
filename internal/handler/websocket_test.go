package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"volunteer_platform/internal/config"
	"volunteer_platform/internal/domain"
)

func TestLiveChannel_OfflineDeliveryAndRead(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	sender := s.connect(t, alice)
	sender.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "hello"})

	ack := decode[domain.Message](t, sender.expect(domain.EventMessageAck))
	req.Equal("hello", ack.Text)
	req.Equal(bob, ack.ReceiverID)

	stored := s.messages.All()
	req.Len(stored, 1)
	req.Nil(stored[0].DeliveredAt)
	req.Nil(stored[0].ReadAt)

	// the recipient comes online
	receiver := s.connect(t, bob)
	req.Equal(int64(1), receiver.initialUnread)

	delivered := decode[domain.DeliveredEvent](t, sender.expect(domain.EventMessageDelivered))
	req.Equal(ack.ID, delivered.MessageID)

	stored = s.messages.All()
	req.NotNil(stored[0].DeliveredAt)
	req.Nil(stored[0].ReadAt)

	// the recipient opens the conversation
	receiver.send(domain.EventConversationRead, readFrame{PeerID: alice})

	receipt := decode[domain.ReadEvent](t, sender.expect(domain.EventMessageRead))
	req.Equal([]int64{ack.ID}, receipt.MessageIDs)
	req.Equal(bob, receipt.ReaderID)

	unread := decode[domain.UnreadCountEvent](t, receiver.expect(domain.EventUnreadCount))
	req.Equal(int64(0), unread.Total)

	stored = s.messages.All()
	req.NotNil(stored[0].ReadAt)
	req.False(stored[0].ReadAt.Before(*stored[0].DeliveredAt))
}

func TestLiveChannel_OnlineRecipient(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	sender := s.connect(t, alice)
	phone := s.connect(t, bob)
	laptop := s.connect(t, bob)

	sender.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "  shift starts at 9  "})

	for _, device := range []*wsClient{phone, laptop} {
		msg := decode[domain.Message](t, device.expect(domain.EventMessageNew))
		req.Equal("shift starts at 9", msg.Text)
		req.Equal(alice, msg.SenderID)

		unread := decode[domain.UnreadCountEvent](t, device.expect(domain.EventUnreadCount))
		req.Equal(int64(1), unread.Total)
	}

	ack := decode[domain.Message](t, sender.expect(domain.EventMessageAck))
	delivered := decode[domain.DeliveredEvent](t, sender.expect(domain.EventMessageDelivered))
	req.Equal(ack.ID, delivered.MessageID)
	req.NotNil(s.messages.All()[0].DeliveredAt)
}

func TestLiveChannel_SecondConversationMessage(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	sender := s.connect(t, alice)
	sender.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "first"})
	sender.expect(domain.EventMessageAck)
	sender.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "second"})
	second := decode[domain.Message](t, sender.expect(domain.EventMessageAck))

	var unread domain.UnreadCountEvent
	req.Equal(http.StatusOK, s.call(t, http.MethodGet, "/api/v1/messages/unread-count", bob, nil, &unread))
	req.Equal(int64(2), unread.Total)

	var conversations []domain.ConversationSummary
	req.Equal(http.StatusOK, s.call(t, http.MethodGet, "/api/v1/conversations", bob, nil, &conversations))
	req.Len(conversations, 1)
	req.Equal(domain.Identity{ID: alice, Name: "Alice", Role: domain.RoleOrganizer}, conversations[0].Peer)
	req.Equal(second.ID, conversations[0].LastMessage.ID)
	req.Equal("second", conversations[0].LastMessage.Text)
	req.Equal(int64(2), conversations[0].UnreadCount)
}

func TestLiveChannel_RejectsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	s.users.Add("Alice", domain.RoleOrganizer)

	for name, query := range map[string]string{
		"no token":      "",
		"garbage token": "?token=not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL(query), nil)
			if conn != nil {
				conn.Close()
			}
			req.ErrorIs(err, websocket.ErrBadHandshake)
			req.Equal(http.StatusUnauthorized, resp.StatusCode)
			resp.Body.Close()
		})
	}

	require.Zero(t, s.hub.OnlineCount())
	require.Empty(t, s.messages.All())
}

func TestLiveChannel_EmptyTextIsRejected(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	sender := s.connect(t, alice)
	sender.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "   "})

	failure := decode[domain.ErrorEvent](t, sender.expect(domain.EventMessageError))
	req.Equal("validation_error", failure.Code)
	req.Contains(failure.Message, "text must not be empty")
	req.Empty(s.messages.All())
}

func TestLiveChannel_ErrorsGoToSenderOnly(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	first := s.connect(t, alice)
	second := s.connect(t, alice)

	first.send(domain.EventMessageSend, sendFrame{ReceiverID: alice, Text: "note to self"})
	failure := decode[domain.ErrorEvent](t, first.expect(domain.EventMessageError))
	req.Equal("validation_error", failure.Code)

	// the other connection of the same user sees only the next real send
	first.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "hi"})
	req.Equal(domain.EventMessageAck, second.next().Type)
}

func TestLiveChannel_InvalidReadPeerIsIgnored(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)

	client := s.connect(t, alice)
	client.send(domain.EventConversationRead, readFrame{PeerID: alice})
	client.send(domain.EventConversationRead, readFrame{PeerID: -4})
	client.send("presence:ping", nil)

	// nothing was emitted for the dropped reads
	failure := client.next()
	req.Equal(domain.EventMessageError, failure.Type)
	req.Equal("validation_error", decode[domain.ErrorEvent](t, failure).Code)
}

func TestLiveChannel_SendRateLimit(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Chat.SendRateLimit = 1
		cfg.Chat.SendRateWindow = time.Minute
	})
	alice := s.users.Add("Alice", domain.RoleOrganizer)
	bob := s.users.Add("Bob", domain.RoleVolunteer)

	client := s.connect(t, alice)
	client.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "one"})
	client.expect(domain.EventMessageAck)

	client.send(domain.EventMessageSend, sendFrame{ReceiverID: bob, Text: "two"})
	failure := decode[domain.ErrorEvent](t, client.expect(domain.EventMessageError))
	req.Equal("rate_limited", failure.Code)
	req.Len(s.messages.All(), 1)
}

func TestLiveChannel_DisconnectLeavesRegistry(t *testing.T) {
	s := newTestServer(t)
	alice := s.users.Add("Alice", domain.RoleOrganizer)

	client := s.connect(t, alice)
	require.True(t, s.hub.IsOnline(alice))

	require.NoError(t, client.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	client.conn.Close()

	waitFor(t, func() bool { return !s.hub.IsOnline(alice) })
}
