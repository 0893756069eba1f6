// ABOUTME: Signed token issue/verify for admin sessions and project grants
// ABOUTME: HMAC-SHA256 over a URL-safe base64 JSON payload, millisecond expiry

package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidToken is returned for any token that fails verification.
// Malformed, tampered and expired tokens are deliberately indistinguishable:
// callers must treat all of them as an absent credential.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. Admin session tokens carry Subject,
// project grant tokens carry ProjectID; Exp is epoch milliseconds.
type Claims struct {
	Subject   string `json:"sub,omitempty"`
	ProjectID string `json:"pid,omitempty"`
	Exp       int64  `json:"exp"`
}

// Codec issues and verifies signed tokens with a shared secret.
// Tokens are self-contained: validity is recomputed from the signature
// and expiry on every check, with no server-side session state.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec signing with the given secret
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Issue serializes the claims with an expiry of now+ttl and returns
// the wire form "base64(payload).base64(signature)". The URL-safe
// alphabet is used because grant tokens travel in query parameters.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	claims.Exp = time.Now().Add(ttl).UnixMilli()

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Verify checks the signature and expiry and returns the decoded claims.
// Any failure returns ErrInvalidToken.
func (c *Codec) Verify(tok string) (Claims, error) {
	encoded, sig, ok := strings.Cut(tok, ".")
	if !ok || encoded == "" || sig == "" {
		return Claims{}, ErrInvalidToken
	}

	if !hmac.Equal([]byte(c.sign(encoded)), []byte(sig)) {
		return Claims{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if claims.Exp <= time.Now().UnixMilli() {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// sign computes the detached signature over the encoded payload
func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
