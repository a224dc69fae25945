package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitfsorg/libfactory-go/ident"
)

// maxBodyBytes bounds the body of a signed request.
const maxBodyBytes = 1 << 20

// Authenticator verifies signed requests and rejects replayed nonces.
type Authenticator struct {
	nonces *gocache.Cache
	ttl    time.Duration
}

// NewAuthenticator remembers nonces for ttl.
func NewAuthenticator(ttl time.Duration) *Authenticator {
	return &Authenticator{
		nonces: gocache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

// Authenticate verifies req and returns the caller and the request body.
// req.Body is consumed.
func (a *Authenticator) Authenticate(req *http.Request) (ident.Identity, []byte, error) {
	headers, err := ParseCallerHeaders(req)
	if err != nil {
		return ident.Zero, nil, err
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
	if err != nil {
		return ident.Zero, nil, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return ident.Zero, nil, fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, maxBodyBytes)
	}
	caller, err := VerifyCaller(headers, req.Method, req.URL.Path, body)
	if err != nil {
		return ident.Zero, nil, err
	}
	// Nonces are recorded per caller and only after the signature verifies.
	key := caller.Hex() + "/" + headers.Nonce
	if err := a.nonces.Add(key, struct{}{}, a.ttl); err != nil {
		return ident.Zero, nil, fmt.Errorf("%w: %s", ErrReplayedNonce, headers.Nonce)
	}
	return caller, body, nil
}

type callerKey struct{}

// Middleware authenticates the request and exposes the caller through
// CallerFrom. The body is replaced with the verified bytes.
func (a *Authenticator) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, body, err := a.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
		})
	}
}

// CallerFrom returns the authenticated caller stored by Middleware.
func CallerFrom(ctx context.Context) (ident.Identity, bool) {
	id, ok := ctx.Value(callerKey{}).(ident.Identity)
	return id, ok
}
