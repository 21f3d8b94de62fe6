// Package session owns the console's session lifecycle: deciding whether
// the stored credential is usable, exchanging login credentials for a
// token, and tearing the session down locally and (best-effort) remotely.
package session

import (
	"time"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	"github.com/josearnulfoborja/inventarioplus-console/pkg/tokenx"
)

// Evaluator answers "is the current session usable?". It holds no session
// state: every call re-reads the credential store, because the store is
// shared storage that another process or a concurrent 401 reaction can
// clear between two calls.
type Evaluator struct {
	Store credstore.Store

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func NewEvaluator(store credstore.Store) *Evaluator {
	return &Evaluator{Store: store}
}

// IsExpired reports whether the stored token is unusable due to expiry.
// An absent token counts as expired. A token that does not decode as a
// three-part JWT is assumed valid: the backend is not required to issue
// JWT-shaped tokens, so an unreadable token is "not machine-checkable"
// rather than rejected (see DESIGN.md for why this stays permissive).
func (e *Evaluator) IsExpired() bool {
	token, err := e.Store.Token()
	if err != nil {
		return true
	}

	claims, err := tokenx.Decode(token)
	if err != nil {
		return false
	}

	return claims.Expired(e.now())
}

// IsAuthenticated reports token presence, nothing more.
func (e *Evaluator) IsAuthenticated() bool {
	_, err := e.Store.Token()
	return err == nil
}

// IsAuthenticatedAndValid is the single predicate every guard, interceptor
// and command consults. No other component may reimplement expiry logic.
func (e *Evaluator) IsAuthenticatedAndValid() bool {
	return e.IsAuthenticated() && !e.IsExpired()
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
