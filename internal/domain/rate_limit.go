package domain

import (
	"fmt"
	"time"
)

// RateLimitRule is a fixed-window limit applied to one scope.
type RateLimitRule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

const (
	RateLimitScopeIP          = "ip"
	RateLimitScopeMessageSend = "send"
)

// Key builds the redis counter key for subject under this rule.
func (r RateLimitRule) Key(subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", r.Scope, subject)
}
