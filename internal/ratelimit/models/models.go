package models

import (
	"strings"
	"time"
)

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the API response when rate limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// NewIPKey builds the bucket key for a client IP within a scope such as
// "public_write" or "admin_login".
func NewIPKey(scope, ip string) string {
	return "ratelimit:" + SanitizeKeySegment(scope) + ":ip:" + SanitizeKeySegment(ip)
}

// SanitizeKeySegment escapes the key delimiter so an identifier containing
// ':' cannot reach into an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
