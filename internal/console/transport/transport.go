// Package transport implements the interceptor chain every outbound request
// flows through: request tagging/logging, bearer attachment, and the 401
// reaction that tears the session down.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/josearnulfoborja/inventarioplus-console/pkg/slogx"
)

// TokenReader is the read-only slice of the credential store the attach
// stage needs. The token is read at dispatch time, never earlier: a request
// built before logout must not carry the revoked credential.
type TokenReader interface {
	Token() (string, error)
}

// NewChain builds the standard console transport. Composition order
// matters: the request-id stage is outermost, bearer attachment next, and
// the 401 reaction sits closest to the wire so that no outer stage — the
// logging here, or any wrapper an embedder adds — can run (or fail) between
// the response arriving and the session being cleared.
func NewChain(base http.RoundTripper, creds TokenReader, onUnauthorized func(), logger *slog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RequestIDTransport{
		Logger: logger,
		Base: &AuthTransport{
			Creds: creds,
			Base: &UnauthorizedTransport{
				Base:           base,
				OnUnauthorized: onUnauthorized,
			},
		},
	}
}

// AuthTransport attaches the stored bearer credential to outbound requests.
// The incoming request is cloned before any mutation; RoundTrippers must
// not modify their input. A missing token is not an error — the request
// simply goes out unauthenticated (login itself is a public endpoint).
type AuthTransport struct {
	Base  http.RoundTripper
	Creds TokenReader
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// An explicit Authorization header wins; the revocation call sets its
	// own from a captured token after the store is already empty.
	if req.Header.Get("Authorization") != "" {
		return t.base().RoundTrip(req)
	}

	token, err := t.Creds.Token()
	if err != nil || token == "" {
		return t.base().RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base().RoundTrip(clone)
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// UnauthorizedTransport watches completed responses for authorization
// failures. A 401 triggers OnUnauthorized (session clear + redirect to
// login) and then hands the response back unchanged: callers still observe
// their original failure. The request is never retried — one authorization
// failure is terminal for that request.
type UnauthorizedTransport struct {
	Base           http.RoundTripper
	OnUnauthorized func()
}

func (t *UnauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.OnUnauthorized != nil {
		slogx.FromContext(req.Context()).Warn("unauthorized response", "path", req.URL.Path)
		t.OnUnauthorized()
	}

	return resp, nil
}

func (t *UnauthorizedTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// RequestIDTransport tags every outbound request with a ULID and logs
// method, path, status and duration. It stands in for whatever other
// cross-cutting wrappers surround the auth stages (spinner counters and the
// like in the web console) and proves the ordering contract holds under
// them.
type RequestIDTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	// Later stages log through the context so their lines carry the same
	// request id without threading it explicitly.
	ctx := slogx.WithContext(req.Context(), t.logger())
	clone := req.Clone(ctx)
	reqID := clone.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = ulid.Make().String()
		clone.Header.Set("X-Request-ID", reqID)
	}
	clone = clone.WithContext(slogx.WithRequestID(ctx, reqID))

	resp, err := t.base().RoundTrip(clone)

	logger := slogx.FromContext(clone.Context())
	if err != nil {
		logger.Warn("http_request",
			"method", clone.Method,
			"path", clone.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return resp, err
	}

	logger.Debug("http_request",
		"method", clone.Method,
		"path", clone.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (t *RequestIDTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *RequestIDTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}
