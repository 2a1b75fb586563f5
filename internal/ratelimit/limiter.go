package ratelimit

import (
	"context"
	"time"
)

// Policy is a fixed-window budget: Limit requests per Window. The counter
// resets entirely when the window expires.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	AuthPolicy      = Policy{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	BookingPolicy   = Policy{Name: "booking", Limit: 10, Window: time.Hour}
	MagicLinkPolicy = Policy{Name: "magic_link", Limit: 3, Window: 15 * time.Minute}
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, at
// least one.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

type Limiter interface {
	Allow(ctx context.Context, key string, p Policy) (Result, error)
}

func windowKey(p Policy, key string) string {
	return p.Name + ":" + key
}
