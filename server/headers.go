package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/google/uuid"

	"github.com/bitfsorg/libfactory-go/ident"
)

// Caller authentication header names.
const (
	HeaderCallerPubKey    = "X-Caller-Pubkey"
	HeaderCallerSignature = "X-Caller-Signature"
	HeaderCallerNonce     = "X-Caller-Nonce"
	HeaderRequestID       = "X-Request-Id"
)

// CallerHeaders holds the signature headers of a state-changing request.
type CallerHeaders struct {
	PubKey    []byte // compressed secp256k1 key
	Signature []byte // DER
	Nonce     string
}

// SigningHash is the digest a caller signs:
// sha256(method || 0x00 || path || 0x00 || nonce || 0x00 || body).
// Binding the route keeps a signature for one action from authorizing another.
func SigningHash(method, path, nonce string, body []byte) []byte {
	h := sha256.New()
	for _, part := range []string{method, path, nonce} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return h.Sum(nil)
}

// SignRequest signs req's method, path and body with priv under a fresh
// nonce and sets the caller headers on req. body must be the exact bytes
// sent as the request body.
func SignRequest(req *http.Request, priv *ec.PrivateKey, body []byte) error {
	if priv == nil {
		return fmt.Errorf("%w: nil private key", ErrMissingHeaders)
	}
	nonce := uuid.NewString()
	sig, err := priv.Sign(SigningHash(req.Method, req.URL.Path, nonce, body))
	if err != nil {
		return fmt.Errorf("server: sign request: %w", err)
	}
	SetCallerHeaders(req, &CallerHeaders{
		PubKey:    priv.PubKey().Compressed(),
		Signature: sig.Serialize(),
		Nonce:     nonce,
	})
	return nil
}

// SetCallerHeaders sets the caller headers on an HTTP request.
func SetCallerHeaders(req *http.Request, headers *CallerHeaders) {
	req.Header.Set(HeaderCallerPubKey, hex.EncodeToString(headers.PubKey))
	req.Header.Set(HeaderCallerSignature, hex.EncodeToString(headers.Signature))
	req.Header.Set(HeaderCallerNonce, headers.Nonce)
}

// ParseCallerHeaders extracts the caller headers from an HTTP request.
func ParseCallerHeaders(req *http.Request) (*CallerHeaders, error) {
	pubHex := req.Header.Get(HeaderCallerPubKey)
	if pubHex == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderCallerPubKey)
	}
	pub, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s value: %w", ErrMissingHeaders, HeaderCallerPubKey, err)
	}

	sigHex := req.Header.Get(HeaderCallerSignature)
	if sigHex == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderCallerSignature)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s value: %w", ErrMissingHeaders, HeaderCallerSignature, err)
	}

	nonce := req.Header.Get(HeaderCallerNonce)
	if nonce == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderCallerNonce)
	}

	return &CallerHeaders{PubKey: pub, Signature: sig, Nonce: nonce}, nil
}

// VerifyCaller checks the signature over the route and body and returns the
// caller identity.
func VerifyCaller(headers *CallerHeaders, method, path string, body []byte) (ident.Identity, error) {
	pub, err := ec.PublicKeyFromBytes(headers.PubKey)
	if err != nil {
		return ident.Zero, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	sig, err := ec.ParseDERSignature(headers.Signature)
	if err != nil {
		return ident.Zero, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	if !sig.Verify(SigningHash(method, path, headers.Nonce, body), pub) {
		return ident.Zero, ErrBadSignature
	}
	return ident.FromPubKey(pub), nil
}
