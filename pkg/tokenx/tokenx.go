// Package tokenx decodes the claims segment of compact three-part session
// tokens (header.claims.signature) without verifying the signature.
// Verification is the backend's job; the console only needs a best-effort
// look at expiry and display claims.
package tokenx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a token that does not split into exactly three
	// dot-separated parts. The backend is allowed to issue non-JWT tokens,
	// so callers checking expiry treat this as "not machine-checkable".
	ErrMalformed = errors.New("tokenx: malformed token")

	// ErrClaimDecode reports a claims segment that is not base64/JSON.
	ErrClaimDecode = errors.New("tokenx: claims segment is not decodable")
)

// Claims are the unverified claims the console inspects. Embedding
// jwt.RegisteredClaims keeps exp/sub parsing tolerant of both integer and
// float encodings. The extra fields are display claims the backend is known
// to emit on some deployments.
type Claims struct {
	jwt.RegisteredClaims

	Username      string `json:"username,omitempty"`
	PreferredName string `json:"preferred_name,omitempty"`
	Name          string `json:"nombre,omitempty"`
	Surname       string `json:"apellido,omitempty"`
	Role          string `json:"rol,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
}

// Decode extracts the claims segment of token. It never panics; any shape
// problem comes back as ErrMalformed or ErrClaimDecode.
func Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, ErrClaimDecode
	}

	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, ErrClaimDecode
	}

	return &c, nil
}

// Expired reports whether the claims carry an exp at or before now.
// A missing exp means the token never expires client-side; not every
// deployment issues standard-claim JWTs.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.Time.After(now)
}

// decodeSegment accepts raw base64url, padded base64url, and the standard
// alphabet after the -/+ and _// translation the web console used to do.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")

	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}

	translated := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	return base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(translated)
}
