package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var errEventIDRequired = errors.New("stripe event id is required")

// eventMarks is the Redis surface the guard writes through.
type eventMarks interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// IdempotencyGuard marks Stripe event ids as handled for ttl. A zero ttl
// keeps the mark until it is cleared.
type IdempotencyGuard struct {
	marks eventMarks
	ttl   time.Duration
	scope string
	now   func() time.Time
}

func NewIdempotencyGuard(marks eventMarks, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	switch {
	case marks == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, fmt.Errorf("idempotency ttl %s is negative", ttl)
	case scope == "":
		return nil, errors.New("idempotency scope is required")
	}
	return &IdempotencyGuard{marks: marks, ttl: ttl, scope: scope, now: time.Now}, nil
}

// CheckAndMark claims eventID and reports whether an earlier delivery already
// held the claim.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (seen bool, err error) {
	if eventID == "" {
		return false, errEventIDRequired
	}
	claimedAt := strconv.FormatInt(g.now().UTC().Unix(), 10)
	claimed, err := g.marks.SetNX(ctx, g.marks.IdempotencyKey(g.scope, eventID), claimedAt, g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim stripe event %s: %w", eventID, err)
	}
	return !claimed, nil
}

// Delete releases the claim so Stripe's next delivery of eventID is handled.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errEventIDRequired
	}
	return g.marks.Del(ctx, g.marks.IdempotencyKey(g.scope, eventID))
}
