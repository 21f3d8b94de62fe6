package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
	"github.com/josearnulfoborja/inventarioplus-console/pkg/tokenx"
	"golang.org/x/time/rate"
)

// AuthAPI is the slice of the backend the controller needs. Login returns
// the raw response body: the backend's response shape is not guaranteed and
// normalization is this package's job, not the transport's.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (json.RawMessage, error)
	Logout(ctx context.Context, token string) error
}

// ControllerConfig wires a Controller. Zero values get sensible defaults:
// login at /auth/login, 5 login attempts per minute.
type ControllerConfig struct {
	Store    credstore.Store
	Auth     AuthAPI
	Nav      nav.Navigator
	Logger   *slog.Logger
	LoginURL string

	// Client-side brute-force brake on the login endpoint.
	LoginRate  rate.Limit
	LoginBurst int
}

// Controller is the mutating surface of the session subsystem. Reads go
// through the Evaluator; every state change goes through here.
type Controller struct {
	store    credstore.Store
	auth     AuthAPI
	nav      nav.Navigator
	logger   *slog.Logger
	loginURL string
	limiter  *rate.Limiter
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/auth/login"
	}
	if cfg.LoginRate == 0 {
		cfg.LoginRate = rate.Every(12 * time.Second) // 5 per minute
	}
	if cfg.LoginBurst == 0 {
		cfg.LoginBurst = 5
	}

	return &Controller{
		store:    cfg.Store,
		auth:     cfg.Auth,
		nav:      cfg.Nav,
		logger:   cfg.Logger,
		loginURL: cfg.LoginURL,
		limiter:  rate.NewLimiter(cfg.LoginRate, cfg.LoginBurst),
	}
}

// Login exchanges credentials for a token and persists it together with a
// best-effort profile snapshot. Any prior session is overwritten
// unconditionally. The store is not touched when no token can be found in
// the response.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if !c.limiter.Allow() {
		return ErrLoginThrottled
	}

	body, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	token, ok := extractToken(body)
	if !ok {
		return ErrNoTokenInResponse
	}

	profile := extractProfile(body, token)
	if err := c.store.Set(token, profile); err != nil {
		return fmt.Errorf("persisting credential: %w", err)
	}

	c.logger.Info("login succeeded", "username", username, "profile", profile != nil)
	return nil
}

// Logout clears the local credential. It never talks to the server; use
// RevokeAndClear when server-side revocation is wanted. The redirect
// replaces the current history entry so Back cannot return to the view the
// user just left.
func (c *Controller) Logout(redirect bool) {
	c.clearLocal(redirect)
}

// ForceClear is the reaction to an authorization failure from any request:
// drop the credential and send the user to the login view.
func (c *Controller) ForceClear() {
	c.logger.Warn("authorization failure, clearing session")
	c.clearLocal(true)
}

// RevokeAndClear performs a user-initiated logout with best-effort server
// revocation. The local clear never waits on the network: the token is
// captured first so the revocation call can still present it after the
// store is emptied. Remote failures are logged and swallowed; by then the
// user is already logged out locally, which is the outcome that matters.
func (c *Controller) RevokeAndClear(ctx context.Context) error {
	token, err := c.store.Token()

	c.clearLocal(true)

	if err != nil {
		// Nothing to revoke.
		return nil
	}

	if err := c.auth.Logout(ctx, token); err != nil {
		c.logger.Warn("server-side revocation failed", "error", err)
	}
	return nil
}

func (c *Controller) clearLocal(redirect bool) {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("clearing credential store", "error", err)
	}
	if !redirect {
		return
	}
	if err := c.nav.Navigate(c.loginURL, nav.Options{Replace: true}); err != nil {
		c.logger.Error("redirect to login failed", "error", err)
	}
}

// extractToken probes the known token locations in fixed priority order:
// the body itself as a JSON string, then token, accessToken, data.token,
// data.accessToken.
func extractToken(body json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(body, &s) == nil && s != "" {
		return s, true
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) != nil {
		return "", false
	}

	if v, ok := stringField(obj, "token"); ok {
		return v, true
	}
	if v, ok := stringField(obj, "accessToken"); ok {
		return v, true
	}

	if raw, ok := obj["data"]; ok {
		var data map[string]json.RawMessage
		if json.Unmarshal(raw, &data) == nil {
			if v, ok := stringField(data, "token"); ok {
				return v, true
			}
			if v, ok := stringField(data, "accessToken"); ok {
				return v, true
			}
		}
	}

	return "", false
}

// extractProfile follows its own fallback chain, independent of the token
// probe: user object, data.user, the body itself as a flat user object,
// then synthesis from the token claims. Identity extraction is strict where
// expiry checking is permissive: an undecodable token yields no profile.
func extractProfile(body json.RawMessage, token string) *credstore.Profile {
	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) == nil {
		if raw, ok := obj["user"]; ok {
			if p := decodeUserObject(raw); p != nil {
				return p
			}
		}

		if raw, ok := obj["data"]; ok {
			var data map[string]json.RawMessage
			if json.Unmarshal(raw, &data) == nil {
				if uraw, ok := data["user"]; ok {
					if p := decodeUserObject(uraw); p != nil {
						return p
					}
				}
			}
		}

		if p := decodeUserObject(body); p != nil {
			return p
		}
	}

	return profileFromClaims(token)
}

// decodeUserObject maps a backend user payload onto a Profile, tolerating
// the field aliases the backend has emitted over time. Returns nil unless
// the object carries at least one identity-like field.
func decodeUserObject(raw json.RawMessage) *credstore.Profile {
	var u struct {
		Nombre    string `json:"nombre"`
		Apellido  string `json:"apellido"`
		Username  string `json:"username"`
		RolNombre string `json:"rolNombre"`
		Rol       string `json:"rol"`
		Role      string `json:"role"`
		Avatar    string `json:"avatar"`
		AvatarURL string `json:"avatarUrl"`
	}
	if json.Unmarshal(raw, &u) != nil {
		return nil
	}

	if u.Username == "" && u.Nombre == "" {
		return nil
	}

	return &credstore.Profile{
		Name:     u.Nombre,
		Surname:  u.Apellido,
		Username: u.Username,
		Role:     firstNonEmpty(u.RolNombre, u.Rol, u.Role),
		Avatar:   firstNonEmpty(u.Avatar, u.AvatarURL),
	}
}

func profileFromClaims(token string) *credstore.Profile {
	claims, err := tokenx.Decode(token)
	if err != nil {
		return nil
	}

	p := &credstore.Profile{
		Name:     firstNonEmpty(claims.Name, claims.PreferredName),
		Surname:  claims.Surname,
		Username: firstNonEmpty(claims.Username, claims.Subject),
		Role:     claims.Role,
		Avatar:   claims.Avatar,
	}
	if p.Username == "" && p.Name == "" {
		return nil
	}
	return p
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil || s == "" {
		return "", false
	}
	return s, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
