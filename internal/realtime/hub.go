package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"volunteer_platform/pkg/logger"
)

// RelayChannel is the redis pub/sub channel shared by all instances.
const RelayChannel = "chat:events"

// Event is the frame written to clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

const (
	relayKindEvent   = "event"
	relayKindDeliver = "deliver"
)

type relayEnvelope struct {
	Kind      string          `json:"kind,omitempty"`
	UserID    int64           `json:"user_id"`
	Event     json.RawMessage `json:"event,omitempty"`
	MessageID int64           `json:"message_id,omitempty"`
}

// DeliveryHandler marks messageID delivered to receiverID, who is connected to this instance.
type DeliveryHandler func(ctx context.Context, receiverID, messageID int64)

const deliveryTimeout = 5 * time.Second

// Hub delivers events to users. Without a redis client it delivers to local
// connections only; with one, every event goes through RelayChannel so that
// users connected to other instances receive it too.
type Hub struct {
	registry  *Registry
	redis     *redis.Client
	onDeliver DeliveryHandler
	log       logger.Logger
}

func NewHub(registry *Registry, rdb *redis.Client, log logger.Logger) *Hub {
	return &Hub{
		registry: registry,
		redis:    rdb,
		log:      log,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Notify(ctx context.Context, userID int64, eventType string, payload any) error {
	data, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}

	if h.redis == nil {
		h.registry.SendToUser(userID, data)
		return nil
	}

	envelope, err := json.Marshal(relayEnvelope{Kind: relayKindEvent, UserID: userID, Event: data})
	if err != nil {
		return fmt.Errorf("marshal relay envelope: %w", err)
	}

	if err := h.redis.Publish(ctx, RelayChannel, envelope).Err(); err != nil {
		// local connections still get it
		h.registry.SendToUser(userID, data)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	return nil
}

// HandleDeliveryRequests sets the handler for delivery requests relayed by other instances.
// Call it before Run.
func (h *Hub) HandleDeliveryRequests(fn DeliveryHandler) {
	h.onDeliver = fn
}

// RequestDelivery asks whichever instance holds a connection for receiverID to mark
// messageID delivered. In local mode there is no other instance and it does nothing.
func (h *Hub) RequestDelivery(ctx context.Context, receiverID, messageID int64) error {
	if h.redis == nil {
		return nil
	}

	envelope, err := json.Marshal(relayEnvelope{Kind: relayKindDeliver, UserID: receiverID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("marshal delivery request: %w", err)
	}
	if err := h.redis.Publish(ctx, RelayChannel, envelope).Err(); err != nil {
		return fmt.Errorf("publish delivery request: %w", err)
	}
	return nil
}

func (h *Hub) IsOnline(userID int64) bool {
	return h.registry.IsOnline(userID)
}

func (h *Hub) OnlineCount() int {
	return h.registry.OnlineCount()
}

// Run consumes relayed events until ctx is cancelled. It returns immediately in local mode.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}

	pubsub := h.redis.Subscribe(ctx, RelayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	h.log.Info("Realtime relay subscribed", "channel", RelayChannel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.deliverRelayed(ctx, msg.Payload)
		}
	}
}

func (h *Hub) deliverRelayed(ctx context.Context, payload string) {
	var envelope relayEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		h.log.Warn("Failed to unmarshal relayed event", "error", err)
		return
	}

	switch envelope.Kind {
	case relayKindDeliver:
		if h.onDeliver == nil || envelope.MessageID <= 0 || !h.registry.IsOnline(envelope.UserID) {
			return
		}
		deliverCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()
		h.onDeliver(deliverCtx, envelope.UserID, envelope.MessageID)
	default:
		h.registry.SendToUser(envelope.UserID, envelope.Event)
	}
}

// Close disconnects every local connection.
func (h *Hub) Close() {
	h.registry.Close()
}
