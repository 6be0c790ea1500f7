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

	"github.com/cartelabolao/cartela-admin/api/responses"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	pkgredis "github.com/cartelabolao/cartela-admin/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	standardReplayTTL = 24 * time.Hour
	checkoutReplayTTL = 7 * 24 * time.Hour
	// inFlightTTL bounds how long a crashed request can hold its key.
	inFlightTTL = time.Minute

	maxIdempotentBody = 1 << 20
)

type idempotentRoute struct {
	method   string
	match    func(path string) bool
	ttl      time.Duration
	required bool
}

var idempotentRoutes = []idempotentRoute{
	{method: http.MethodPost, match: exactly("/api/v1/public/sales"), ttl: checkoutReplayTTL, required: true},
	{method: http.MethodPost, match: exactly("/api/v1/sales"), ttl: standardReplayTTL},
	{method: http.MethodPatch, match: between("/api/v1/sales/", "/payment-status"), ttl: standardReplayTTL},
	{method: http.MethodPost, match: between("/api/v1/individual-cards/", "/send-whatsapp"), ttl: standardReplayTTL},
	{method: http.MethodPost, match: exactly("/api/v1/bolao/groups"), ttl: standardReplayTTL},
	{method: http.MethodPost, match: exactly("/api/v1/bolao/send-ready"), ttl: standardReplayTTL},
	{method: http.MethodPost, match: exactly("/api/v1/upload/direct"), ttl: standardReplayTTL},
}

// replayEntry is what sits under an idempotency key. Pending entries mark a
// request that is still being handled.
type replayEntry struct {
	Pending     bool   `json:"pending,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the first response for a repeated Idempotency-Key on
// the routes listed above. A key is claimed before the handler runs, so a
// concurrent duplicate gets 409 instead of a second execution. Server errors
// release the key for a retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := lookupRoute(r.Method, routePattern(r), r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				if route.required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > 128 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			if len(body) > maxIdempotentBody {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintOf(r.Method, r.URL.Path, body)
			key := store.IdempotencyKey(scopeOf(r), clientKey)

			claimed, err := claim(ctx, store, key, fingerprint)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayExisting(ctx, store, key, fingerprint, logg, w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.Del(context.WithoutCancel(ctx), key); err != nil {
					logError(ctx, logg, "release idempotency key", err)
				}
				return
			}
			entry := replayEntry{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			payload, err := json.Marshal(entry)
			if err != nil {
				logError(ctx, logg, "encode idempotency entry", err)
				return
			}
			if err := store.Set(context.WithoutCancel(ctx), key, string(payload), route.ttl); err != nil {
				logError(ctx, logg, "store idempotency entry", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string) (bool, error) {
	marker, err := json.Marshal(replayEntry{Pending: true, Fingerprint: fingerprint})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(marker), inFlightTTL)
}

func replayExisting(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string, logg *logger.Logger, w http.ResponseWriter) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request is being processed, retry shortly"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency entry"))
		return
	}

	var entry replayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency entry"))
		return
	}
	if entry.Fingerprint != fingerprint {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if entry.Pending {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request is being processed, retry shortly"))
		return
	}

	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

// scopeOf keeps keys from different callers apart: the user for
// authenticated routes, the client address for public ones.
func scopeOf(r *http.Request) string {
	caller := "ip:" + clientIP(r)
	if actor, ok := ActorFromContext(r.Context()); ok {
		caller = actor.UserID.String()
	}
	return caller + "|" + r.Method + "|" + r.URL.Path
}

func fingerprintOf(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// lookupRoute tries the chi pattern first. Middleware mounted on a group
// only sees a partial pattern, so the raw path is the fallback.
func lookupRoute(method string, candidates ...string) (idempotentRoute, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, route := range idempotentRoutes {
			if route.method == method && route.match(candidate) {
				return route, true
			}
		}
	}
	return idempotentRoute{}, false
}

func exactly(path string) func(string) bool {
	return func(candidate string) bool { return candidate == path }
}

func between(prefix, suffix string) func(string) bool {
	return func(candidate string) bool {
		return strings.HasPrefix(candidate, prefix) && strings.HasSuffix(candidate, suffix)
	}
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

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
