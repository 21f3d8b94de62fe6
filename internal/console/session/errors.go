package session

import "errors"

var (
	// ErrNoTokenInResponse reports a login response in which none of the
	// known token locations yielded a string. Surfaced to the UI layer as a
	// login failure.
	ErrNoTokenInResponse = errors.New("session: login response contained no token")

	// ErrLoginThrottled reports that the client-side login limiter is
	// exhausted; no network call was made.
	ErrLoginThrottled = errors.New("session: too many login attempts, try again shortly")
)
