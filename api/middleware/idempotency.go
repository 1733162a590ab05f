package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/gamestore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/gamestore-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	checkoutIdempotencyTTL = 7 * 24 * time.Hour
	// A reservation outlives any sane request but frees the key if the
	// process dies mid-request.
	pendingIdempotencyTTL = 2 * time.Minute
)

// ResponseCache is the Redis surface the idempotency middleware needs.
type ResponseCache interface {
	pkgredis.IdempotencyStore
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type idempotencyPolicy struct {
	method      string
	pattern     string
	ttl         time.Duration
	keyRequired bool
}

// Patterns are full chi route patterns; the middleware must run after routing.
var idempotencyPolicies = []idempotencyPolicy{
	{http.MethodPost, "/api/v1/checkout", checkoutIdempotencyTTL, true},
	{http.MethodPost, "/api/v1/checkout/session", defaultIdempotencyTTL, false},
	{http.MethodPost, "/api/v1/auth/register", defaultIdempotencyTTL, false},
	{http.MethodPost, "/api/admin/v1/games", defaultIdempotencyTTL, false},
	{http.MethodPatch, "/api/admin/v1/orders/{orderId}/status", defaultIdempotencyTTL, false},
}

func policyFor(method, pattern string) (idempotencyPolicy, bool) {
	for _, p := range idempotencyPolicies {
		if p.method == method && p.pattern == pattern {
			return p, true
		}
	}
	return idempotencyPolicy{}, false
}

type recordState string

const (
	statePending  recordState = "pending"
	stateComplete recordState = "complete"
)

type storedResponse struct {
	State       recordState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body,omitempty"`
}

// Idempotency replays the first response for a repeated Idempotency-Key.
// The key is reserved before the handler runs, so a concurrent duplicate is
// rejected instead of executing twice. Server errors and conflicts release
// the key.
func Idempotency(store ResponseCache, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := policyFor(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				if policy.keyRequired {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(UserIDFromContext(r.Context())+"|"+r.Method+"|"+r.URL.Path, clientKey)

			reserved, err := reserve(r.Context(), store, key, hash)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayOrReject(w, r, store, key, hash, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Del(context.WithoutCancel(r.Context()), key); err != nil && logg != nil {
					logg.Error(r.Context(), "release idempotency key", err)
				}
			}()

			next.ServeHTTP(capture, r)

			// A conflict is transient, like a lost stock race, so the retry
			// runs again instead of replaying it.
			status := capture.statusCode()
			if status >= http.StatusInternalServerError || status == http.StatusConflict {
				return
			}
			record, err := json.Marshal(storedResponse{
				State:       stateComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				err = store.Set(context.WithoutCancel(r.Context()), key, string(record), policy.ttl)
			}
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "persist idempotency record", err)
				}
				return
			}
			completed = true
		})
	}
}

func reserve(ctx context.Context, store ResponseCache, key, hash string) (bool, error) {
	pending, err := json.Marshal(storedResponse{State: statePending, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), pendingIdempotencyTTL)
}

func replayOrReject(w http.ResponseWriter, r *http.Request, store ResponseCache, key, hash string, logg *logger.Logger) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress"))
		return
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var record storedResponse
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != stateComplete:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
