// Package guard implements the pre-activation check for protected routes.
package guard

import (
	"log/slog"
	"net/url"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/session"
)

const DefaultLoginURL = "/auth/login"

// Guard gates entry into protected views. It has no state of its own: every
// decision re-consults the session evaluator, which in turn re-reads the
// credential store.
type Guard struct {
	Sessions *session.Evaluator
	LoginURL string
	Logger   *slog.Logger
}

// CanActivate allows navigation for a live session. Anything else redirects
// to the login view with the requested location preserved as returnUrl so
// the post-login flow can restore it.
func (g *Guard) CanActivate(target string) nav.Decision {
	if g.Sessions.IsAuthenticatedAndValid() {
		return nav.Allow()
	}

	if g.Logger != nil {
		g.Logger.Debug("unauthenticated navigation blocked", "target", target)
	}

	login := g.LoginURL
	if login == "" {
		login = DefaultLoginURL
	}
	return nav.RedirectTo(login+"?returnUrl="+url.QueryEscape(target), false)
}
