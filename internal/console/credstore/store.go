// Package credstore holds the console's only persistent session state: the
// raw session token and a display-only snapshot of the logged-in user.
package credstore

import (
	"encoding/json"
	"errors"
)

// Storage keys shared by every driver. The names are inherited from the web
// console so a migrated installation keeps its session.
const (
	KeyToken   = "inventarioplus_token"
	KeyProfile = "inventarioplus_user"
)

// ErrNotFound reports an absent token or profile.
var ErrNotFound = errors.New("credstore: not found")

// Profile is a best-effort snapshot of display fields taken from the login
// response or the token claims. It is not authoritative identity and may be
// stale or partially populated; UI code must tolerate every field being empty.
type Profile struct {
	Name     string `json:"nombre,omitempty"`
	Surname  string `json:"apellido,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"rol,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// DisplayName builds the label shown next to the avatar. Falls back through
// name fields to the username, matching the web console's menu profile.
func (p *Profile) DisplayName() string {
	switch {
	case p == nil:
		return ""
	case p.Name != "" && p.Surname != "":
		return p.Name + " " + p.Surname
	case p.Name != "":
		return p.Name
	case p.Surname != "":
		return p.Surname
	default:
		return p.Username
	}
}

// Store is the credential store contract. All operations are synchronous and
// touch only the backing storage; there are no network calls here.
//
// The backing storage is shared with other processes the way localStorage is
// shared between tabs, so implementations must re-read it on every call and
// never cache values in memory. Writes are last-write-wins.
//
// Clear removes BOTH keys in one call: a profile without a token must never
// be observable, so the two are only ever cleared together.
type Store interface {
	Token() (string, error)
	Profile() (*Profile, error)
	Set(token string, profile *Profile) error
	Clear() error
	Close() error
}

// EncodeProfile serializes a profile for storage under KeyProfile.
func EncodeProfile(p *Profile) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeProfile deserializes a stored profile. A corrupt snapshot comes back
// as an error; callers treat that the same as an absent profile.
func DecodeProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
