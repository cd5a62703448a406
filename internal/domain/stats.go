package domain

// MessagingStats summarises one user's mailbox.
type MessagingStats struct {
	UserID        int64 `json:"user_id"`
	Sent          int64 `json:"sent"`
	Received      int64 `json:"received"`
	Unread        int64 `json:"unread"`
	Conversations int64 `json:"conversations"`
}

// PlatformStats is the admin view across all users.
type PlatformStats struct {
	Users            int64 `json:"users"`
	Messages         int64 `json:"messages"`
	UndeliveredCount int64 `json:"undelivered"`
	UnreadCount      int64 `json:"unread"`
	OnlineUsers      int   `json:"online_users"`
}
