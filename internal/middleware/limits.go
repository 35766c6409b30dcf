package middleware

import (
	"golang.org/x/time/rate"
)

// Limits: per-connection message constraints
type Limits struct {
	MaxMessageSize    int
	MessagesPerSecond float64
	BurstSize         int
}

// NewLimits: creates a new Limits configuration
func NewLimits(maxMessageSize int, messagesPerSecond float64, burstSize int) *Limits {
	return &Limits{
		MaxMessageSize:    maxMessageSize,
		MessagesPerSecond: messagesPerSecond,
		BurstSize:         burstSize,
	}
}

// ValidateMessageSize: checks if a message is within the size limit
func (l *Limits) ValidateMessageSize(msgSize int) bool {
	return msgSize <= l.MaxMessageSize
}

// NewMessageLimiter: returns a fresh per-connection message rate limiter
func (l *Limits) NewMessageLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(l.MessagesPerSecond), l.BurstSize)
}
