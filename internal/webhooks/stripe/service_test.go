package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gamestore-backend/internal/checkout"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
)

type placeCall struct {
	userID uuid.UUID
	opts   []checkout.PlaceOption
}

type stubPlacer struct {
	calls []placeCall
	err   error
}

func (s *stubPlacer) PlaceOrder(_ context.Context, userID uuid.UUID, opts ...checkout.PlaceOption) (*models.Order, error) {
	s.calls = append(s.calls, placeCall{userID: userID, opts: opts})
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: uuid.New(), UserID: userID}, nil
}

func sessionEvent(t *testing.T, eventType stripe.EventType, session stripe.CheckoutSession) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{ID: "evt_" + uuid.NewString(), Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func newService(t *testing.T, placer *stubPlacer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Checkout: placer})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestHandleCheckoutSessionCompletedPlacesOrder(t *testing.T) {
	placer := &stubPlacer{}
	svc := newService(t, placer)
	userID := uuid.New()

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"user_id": userID.String()},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(placer.calls) != 1 {
		t.Fatalf("expected one placement, got %d", len(placer.calls))
	}
	if placer.calls[0].userID != userID {
		t.Fatalf("unexpected user %s", placer.calls[0].userID)
	}
	if len(placer.calls[0].opts) != 1 {
		t.Fatalf("expected payment reference option")
	}
}

func TestHandleCheckoutSessionUserFallbacks(t *testing.T) {
	userID := uuid.New()
	cases := map[string]stripe.CheckoutSession{
		"camel case metadata": {ID: "cs_1", Metadata: map[string]string{"userId": userID.String()}},
		"client reference":    {ID: "cs_2", ClientReferenceID: userID.String()},
	}
	for name, session := range cases {
		t.Run(name, func(t *testing.T) {
			placer := &stubPlacer{}
			svc := newService(t, placer)
			if err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, session)); err != nil {
				t.Fatalf("handle event: %v", err)
			}
			if len(placer.calls) != 1 || placer.calls[0].userID != userID {
				t.Fatalf("unexpected calls: %+v", placer.calls)
			}
		})
	}
}

func TestHandleCheckoutSessionMissingUser(t *testing.T) {
	placer := &stubPlacer{}
	svc := newService(t, placer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSession{ID: "cs_1"}))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(placer.calls) != 0 {
		t.Fatalf("expected no placement")
	}

	err = svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSession{
		ID:       "cs_2",
		Metadata: map[string]string{"user_id": "not-a-uuid"},
	}))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleCheckoutSessionUnpaidIsDeferred(t *testing.T) {
	placer := &stubPlacer{}
	svc := newService(t, placer)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSession{
		ID:            "cs_async",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      map[string]string{"user_id": uuid.NewString()},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(placer.calls) != 0 {
		t.Fatalf("expected no placement for unpaid session")
	}

	event = sessionEvent(t, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, stripe.CheckoutSession{
		ID:            "cs_async",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"user_id": uuid.NewString()},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(placer.calls) != 1 {
		t.Fatalf("expected placement after async success")
	}
}

func TestHandleEventPropagatesPlacementErrors(t *testing.T) {
	placer := &stubPlacer{err: checkout.ErrEmptyCart}
	svc := newService(t, placer)

	err := svc.HandleEvent(context.Background(), sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, stripe.CheckoutSession{
		ID:       "cs_1",
		Metadata: map[string]string{"user_id": uuid.NewString()},
	}))
	if !errors.Is(err, checkout.ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	placer := &stubPlacer{}
	svc := newService(t, placer)
	event := &stripe.Event{Type: stripe.EventTypeChargeSucceeded, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}

type memoryMarks map[string]any

func (m memoryMarks) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m[key]; ok {
		return false, nil
	}
	m[key] = value
	return true, nil
}

func (m memoryMarks) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m, key)
	}
	return nil
}

func (memoryMarks) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func TestIdempotencyGuard(t *testing.T) {
	marks := memoryMarks{}
	guard, err := NewIdempotencyGuard(marks, time.Hour, "stripe")
	require.NoError(t, err)
	guard.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, "1700000000", marks["idempotency:stripe:evt_1"])

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = guard.CheckAndMark(ctx, "")
	assert.ErrorIs(t, err, errEventIDRequired)
}

func TestNewIdempotencyGuardValidates(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "stripe")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(memoryMarks{}, -time.Second, "stripe")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(memoryMarks{}, time.Hour, "")
	assert.Error(t, err)
}
