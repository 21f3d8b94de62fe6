// Package historyguard closes the gap route guards leave open: history
// traversal (Back/Forward) restores views without re-running activation
// guards, so a logged-out user could otherwise walk back into a protected
// view rendered from stale state.
package historyguard

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/session"
)

// DefaultPublicPrefixes are the views that never require a session.
var DefaultPublicPrefixes = []string{"/auth", "/notfound", "/landing"}

// Service watches history traversal and navigation starts, kicking
// unauthenticated users landing on protected locations back to login.
// There is one per process; Start and Stop are idempotent.
type Service struct {
	Sessions       *session.Evaluator
	Nav            *nav.Router
	Logger         *slog.Logger
	LoginURL       string
	PublicPrefixes []string

	mu      sync.Mutex
	started bool
	unsubs  []func()
}

// Start subscribes to the router's pop and navigation-start streams.
// Calling Start on a running service is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	s.unsubs = []func(){
		s.Nav.OnPop(s.wrap("pop", s.check)),
		s.Nav.OnNavigationStart(s.wrap("navigation_start", s.check)),
	}
	s.logger().Debug("history guard started")
}

// Stop unsubscribes from both streams. Safe to call on a stopped service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.logger().Debug("history guard stopped")
}

// wrap shields the router's dispatch loop from a panicking check. A guard
// that dies must not take navigation down with it; the panic is logged and
// swallowed.
func (s *Service) wrap(event string, fn func(url string)) func(url string) {
	return func(url string) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger().Error("history guard panicked",
					"event", event,
					"url", url,
					"panic", rec,
				)
			}
		}()
		fn(url)
	}
}

func (s *Service) check(url string) {
	if s.isPublic(url) {
		return
	}
	if s.Sessions.IsAuthenticatedAndValid() {
		return
	}

	s.logger().Info("blocked history access to protected view", "url", url)
	if err := s.Nav.Navigate(s.loginURL(), nav.Options{Replace: true}); err != nil {
		s.logger().Error("history guard redirect failed", "error", err)
	}
}

// isPublic reports whether url falls under one of the public prefixes,
// honoring path segment boundaries so "/authors" is not public just
// because "/auth" is.
func (s *Service) isPublic(url string) bool {
	path := url
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	prefixes := s.PublicPrefixes
	if prefixes == nil {
		prefixes = DefaultPublicPrefixes
	}
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (s *Service) loginURL() string {
	if s.LoginURL != "" {
		return s.LoginURL
	}
	return "/auth/login"
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
