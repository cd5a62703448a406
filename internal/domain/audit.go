package domain

import "time"

// Audit event types.
const (
	EventTypeUserRegistered      = "USER_REGISTERED"
	EventTypeMessageDeleted      = "MESSAGE_DELETED"
	EventTypeConversationDeleted = "CONVERSATION_DELETED"
)

// AuditLog is one append-only audit_log row. ActorUserID is nil for system events.
type AuditLog struct {
	ID          int64          `json:"id"`
	EventTime   time.Time      `json:"event_time"`
	ActorUserID *int64         `json:"actor_user_id,omitempty"`
	ActorRole   string         `json:"actor_role,omitempty"`
	EventType   string         `json:"event_type"`
	Payload     map[string]any `json:"payload"`
}
