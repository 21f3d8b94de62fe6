package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore/drivers/memory"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/session"
)

type fakeAuth struct {
	loginBody json.RawMessage
	loginErr  error

	logoutToken string
	logoutCalls int
	logoutErr   error
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (json.RawMessage, error) {
	return f.loginBody, f.loginErr
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.logoutCalls++
	f.logoutToken = token
	return f.logoutErr
}

type navCall struct {
	url     string
	replace bool
}

type fakeNav struct {
	calls []navCall
}

func (f *fakeNav) Navigate(url string, opts nav.Options) error {
	f.calls = append(f.calls, navCall{url: url, replace: opts.Replace})
	return nil
}

func (f *fakeNav) Current() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1].url
}

func newTestController(store credstore.Store, auth session.AuthAPI, navigator *fakeNav) *session.Controller {
	return session.NewController(session.ControllerConfig{
		Store: store,
		Auth:  auth,
		Nav:   navigator,
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("token shapes", func(t *testing.T) {
		cases := []struct {
			name string
			body string
			want string
		}{
			{"bare string body", `"tok-string"`, "tok-string"},
			{"token field", `{"token":"tok-a"}`, "tok-a"},
			{"accessToken field", `{"accessToken":"tok-b"}`, "tok-b"},
			{"nested data.token", `{"data":{"token":"tok-c"}}`, "tok-c"},
			{"nested data.accessToken", `{"data":{"accessToken":"tok-d"}}`, "tok-d"},
			{"token wins over accessToken", `{"token":"tok-a","accessToken":"tok-b"}`, "tok-a"},
			{"top level wins over nested", `{"accessToken":"tok-b","data":{"token":"tok-c"}}`, "tok-b"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store := memory.New()
				ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(tc.body)}, &fakeNav{})

				require.NoError(t, ctrl.Login(ctx, "ana", "secret"))

				token, err := store.Token()
				require.NoError(t, err)
				require.Equal(t, tc.want, token)
			})
		}
	})

	t.Run("no token leaves store untouched", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("previous-token", &credstore.Profile{Username: "ana"}))

		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(`{"ok":true}`)}, &fakeNav{})

		err := ctrl.Login(ctx, "ana", "secret")
		require.ErrorIs(t, err, session.ErrNoTokenInResponse)

		token, err := store.Token()
		require.NoError(t, err)
		require.Equal(t, "previous-token", token)
	})

	t.Run("backend error propagates", func(t *testing.T) {
		boom := errors.New("backend down")
		ctrl := newTestController(memory.New(), &fakeAuth{loginErr: boom}, &fakeNav{})

		require.ErrorIs(t, ctrl.Login(ctx, "ana", "secret"), boom)
	})

	t.Run("profile from user object", func(t *testing.T) {
		store := memory.New()
		body := `{"token":"tok","user":{"nombre":"Ana","apellido":"Solis","username":"asolis","rolNombre":"ADMIN"}}`
		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(body)}, &fakeNav{})

		require.NoError(t, ctrl.Login(ctx, "asolis", "secret"))

		profile, err := store.Profile()
		require.NoError(t, err)
		require.Equal(t, "Ana", profile.Name)
		require.Equal(t, "Solis", profile.Surname)
		require.Equal(t, "asolis", profile.Username)
		require.Equal(t, "ADMIN", profile.Role)
	})

	t.Run("profile from data.user with role alias", func(t *testing.T) {
		store := memory.New()
		body := `{"data":{"token":"tok","user":{"username":"asolis","role":"TECH","avatarUrl":"http://x/a.png"}}}`
		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(body)}, &fakeNav{})

		require.NoError(t, ctrl.Login(ctx, "asolis", "secret"))

		profile, err := store.Profile()
		require.NoError(t, err)
		require.Equal(t, "TECH", profile.Role)
		require.Equal(t, "http://x/a.png", profile.Avatar)
	})

	t.Run("profile from flat body", func(t *testing.T) {
		store := memory.New()
		body := `{"token":"tok","username":"asolis","rol":"ADMIN"}`
		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(body)}, &fakeNav{})

		require.NoError(t, ctrl.Login(ctx, "asolis", "secret"))

		profile, err := store.Profile()
		require.NoError(t, err)
		require.Equal(t, "asolis", profile.Username)
		require.Equal(t, "ADMIN", profile.Role)
	})

	t.Run("profile synthesized from token claims", func(t *testing.T) {
		store := memory.New()
		token := makeToken(t, map[string]any{
			"sub":      "asolis",
			"nombre":   "Ana",
			"apellido": "Solis",
			"rol":      "ADMIN",
		})
		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(`{"token":"` + token + `"}`)}, &fakeNav{})

		require.NoError(t, ctrl.Login(ctx, "asolis", "secret"))

		profile, err := store.Profile()
		require.NoError(t, err)
		require.Equal(t, "Ana", profile.Name)
		require.Equal(t, "asolis", profile.Username)
		require.Equal(t, "ADMIN", profile.Role)
	})

	t.Run("opaque token and no user yields no profile", func(t *testing.T) {
		store := memory.New()
		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(`{"token":"opaque"}`)}, &fakeNav{})

		require.NoError(t, ctrl.Login(ctx, "ana", "secret"))

		_, err := store.Profile()
		require.ErrorIs(t, err, credstore.ErrNotFound)

		token, err := store.Token()
		require.NoError(t, err)
		require.Equal(t, "opaque", token)
	})

	t.Run("login overwrites previous session", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("old-token", &credstore.Profile{Username: "old"}))

		ctrl := newTestController(store, &fakeAuth{loginBody: json.RawMessage(`{"token":"new-token"}`)}, &fakeNav{})
		require.NoError(t, ctrl.Login(ctx, "ana", "secret"))

		token, err := store.Token()
		require.NoError(t, err)
		require.Equal(t, "new-token", token)

		// The old profile must not survive next to the new token.
		_, err = store.Profile()
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("throttled after burst", func(t *testing.T) {
		auth := &fakeAuth{loginErr: errors.New("bad credentials")}
		ctrl := session.NewController(session.ControllerConfig{
			Store:      memory.New(),
			Auth:       auth,
			Nav:        &fakeNav{},
			LoginRate:  rate.Every(time.Hour),
			LoginBurst: 2,
		})

		require.NotErrorIs(t, ctrl.Login(ctx, "ana", "nope"), session.ErrLoginThrottled)
		require.NotErrorIs(t, ctrl.Login(ctx, "ana", "nope"), session.ErrLoginThrottled)
		require.ErrorIs(t, ctrl.Login(ctx, "ana", "nope"), session.ErrLoginThrottled)
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears both keys and replaces history", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("tok", &credstore.Profile{Username: "ana"}))

		navigator := &fakeNav{}
		ctrl := newTestController(store, &fakeAuth{}, navigator)

		ctrl.Logout(true)

		_, err := store.Token()
		require.ErrorIs(t, err, credstore.ErrNotFound)
		_, err = store.Profile()
		require.ErrorIs(t, err, credstore.ErrNotFound)

		require.Len(t, navigator.calls, 1)
		require.Equal(t, "/auth/login", navigator.calls[0].url)
		require.True(t, navigator.calls[0].replace, "logout redirect must replace the history entry")
	})

	t.Run("without redirect only clears", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("tok", nil))

		navigator := &fakeNav{}
		ctrl := newTestController(store, &fakeAuth{}, navigator)

		ctrl.Logout(false)

		_, err := store.Token()
		require.ErrorIs(t, err, credstore.ErrNotFound)
		require.Empty(t, navigator.calls)
	})
}

func TestRevokeAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("captures token before clearing", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("tok-captured", &credstore.Profile{Username: "ana"}))

		auth := &fakeAuth{}
		navigator := &fakeNav{}
		ctrl := newTestController(store, auth, navigator)

		require.NoError(t, ctrl.RevokeAndClear(ctx))

		// Server saw the token even though the store was already empty.
		require.Equal(t, 1, auth.logoutCalls)
		require.Equal(t, "tok-captured", auth.logoutToken)

		_, err := store.Token()
		require.ErrorIs(t, err, credstore.ErrNotFound)

		require.Len(t, navigator.calls, 1)
		require.True(t, navigator.calls[0].replace)
	})

	t.Run("server failure still clears locally", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set("tok", nil))

		auth := &fakeAuth{logoutErr: errors.New("connection refused")}
		ctrl := newTestController(store, auth, &fakeNav{})

		require.NoError(t, ctrl.RevokeAndClear(ctx))

		_, err := store.Token()
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("no stored token skips revocation", func(t *testing.T) {
		auth := &fakeAuth{}
		ctrl := newTestController(memory.New(), auth, &fakeNav{})

		require.NoError(t, ctrl.RevokeAndClear(ctx))
		require.Zero(t, auth.logoutCalls)
	})
}

func TestForceClear(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Set("tok", &credstore.Profile{Username: "ana"}))

	auth := &fakeAuth{}
	navigator := &fakeNav{}
	ctrl := newTestController(store, auth, navigator)

	ctrl.ForceClear()

	_, err := store.Token()
	require.ErrorIs(t, err, credstore.ErrNotFound)

	// No server call: the token was already rejected.
	require.Zero(t, auth.logoutCalls)

	require.Len(t, navigator.calls, 1)
	require.Equal(t, "/auth/login", navigator.calls[0].url)
	require.True(t, navigator.calls[0].replace)
}
