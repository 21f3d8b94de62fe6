package nav_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
)

func newTestRouter() *nav.Router {
	r := nav.NewRouter(nil)
	r.Register(
		nav.Route{Path: "/", Protected: true},
		nav.Route{Path: "/equipos", Protected: true},
		nav.Route{Path: "/prestamos", Protected: true},
		nav.Route{Path: "/auth"},
		nav.Route{Path: "/notfound"},
	)
	return r
}

func TestNavigate(t *testing.T) {
	t.Run("push grows the stack", func(t *testing.T) {
		r := newTestRouter()

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.NoError(t, r.Navigate("/auth/register", nav.Options{}))

		require.Equal(t, "/auth/register", r.Current())
		require.Equal(t, []string{"/auth/login", "/auth/register"}, r.History())
	})

	t.Run("replace swaps the current entry", func(t *testing.T) {
		r := newTestRouter()

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.NoError(t, r.Navigate("/auth/register", nav.Options{Replace: true}))

		require.Equal(t, []string{"/auth/register"}, r.History())

		// Back has nowhere to go; the replaced entry is gone.
		r.Back()
		require.Equal(t, "/auth/register", r.Current())
	})

	t.Run("unknown route lands on not-found", func(t *testing.T) {
		r := newTestRouter()

		require.NoError(t, r.Navigate("/no/such/view", nav.Options{}))
		require.Equal(t, "/notfound", r.Current())
	})

	t.Run("query string does not break matching", func(t *testing.T) {
		r := newTestRouter()

		require.NoError(t, r.Navigate("/auth/login?returnUrl=%2Fequipos", nav.Options{}))
		require.Equal(t, "/auth/login?returnUrl=%2Fequipos", r.Current())
	})

	t.Run("prefix match honors segment boundaries", func(t *testing.T) {
		r := nav.NewRouter(nil)
		r.Register(nav.Route{Path: "/auth"})

		require.NoError(t, r.Navigate("/authors", nav.Options{}))
		require.Equal(t, "/notfound", r.Current())
	})

	t.Run("root route does not shadow the table", func(t *testing.T) {
		r := newTestRouter()
		guarded := []string{}
		r.Guard(func(target string) nav.Decision {
			guarded = append(guarded, target)
			return nav.Allow()
		})

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.Empty(t, guarded, "public routes must not consult the guard")
	})
}

func TestGuard(t *testing.T) {
	t.Run("allow commits the navigation", func(t *testing.T) {
		r := newTestRouter()
		r.Guard(func(string) nav.Decision { return nav.Allow() })

		require.NoError(t, r.Navigate("/equipos", nav.Options{}))
		require.Equal(t, "/equipos", r.Current())
	})

	t.Run("redirect abandons the original navigation", func(t *testing.T) {
		r := newTestRouter()
		r.Guard(func(target string) nav.Decision {
			return nav.RedirectTo("/auth/login", false)
		})

		require.NoError(t, r.Navigate("/equipos", nav.Options{}))

		require.Equal(t, "/auth/login", r.Current())
		require.Equal(t, []string{"/auth/login"}, r.History(), "the blocked target must not enter history")
	})

	t.Run("guard sees the full target including query", func(t *testing.T) {
		r := newTestRouter()
		var seen string
		r.Guard(func(target string) nav.Decision {
			seen = target
			return nav.Allow()
		})

		require.NoError(t, r.Navigate("/equipos?page=2", nav.Options{}))
		require.Equal(t, "/equipos?page=2", seen)
	})
}

func TestBackForward(t *testing.T) {
	t.Run("traversal moves without consulting guards", func(t *testing.T) {
		r := newTestRouter()
		guardCalls := 0
		r.Guard(func(string) nav.Decision {
			guardCalls++
			return nav.Allow()
		})

		require.NoError(t, r.Navigate("/equipos", nav.Options{}))
		require.NoError(t, r.Navigate("/prestamos", nav.Options{}))
		require.Equal(t, 2, guardCalls)

		r.Back()
		require.Equal(t, "/equipos", r.Current())
		require.Equal(t, 2, guardCalls, "history traversal must not re-run guards")

		r.Forward()
		require.Equal(t, "/prestamos", r.Current())
		require.Equal(t, 2, guardCalls)
	})

	t.Run("traversal beyond the edges is a no-op", func(t *testing.T) {
		r := newTestRouter()
		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))

		r.Back()
		r.Back()
		require.Equal(t, "/auth/login", r.Current())

		r.Forward()
		require.Equal(t, "/auth/login", r.Current())
	})

	t.Run("pop subscribers see the landing url", func(t *testing.T) {
		r := newTestRouter()
		var popped []string
		unsub := r.OnPop(func(url string) { popped = append(popped, url) })
		defer unsub()

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.NoError(t, r.Navigate("/auth/register", nav.Options{}))

		r.Back()
		require.Equal(t, []string{"/auth/login"}, popped)
	})

	t.Run("navigating after back truncates the forward stack", func(t *testing.T) {
		r := newTestRouter()
		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.NoError(t, r.Navigate("/auth/register", nav.Options{}))

		r.Back()
		require.NoError(t, r.Navigate("/notfound", nav.Options{}))

		require.Equal(t, []string{"/auth/login", "/notfound"}, r.History())
	})
}

func TestSubscriptions(t *testing.T) {
	t.Run("navigation start fires before commit", func(t *testing.T) {
		r := newTestRouter()
		var seen []string
		unsub := r.OnNavigationStart(func(url string) { seen = append(seen, url) })
		defer unsub()

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		require.Equal(t, []string{"/auth/login"}, seen)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		r := newTestRouter()
		calls := 0
		unsub := r.OnNavigationStart(func(string) { calls++ })

		require.NoError(t, r.Navigate("/auth/login", nav.Options{}))
		unsub()
		require.NoError(t, r.Navigate("/auth/register", nav.Options{}))

		require.Equal(t, 1, calls)
	})

	t.Run("listener redirect supersedes the navigation", func(t *testing.T) {
		r := newTestRouter()
		redirected := false
		unsub := r.OnNavigationStart(func(url string) {
			if url == "/auth/register" && !redirected {
				redirected = true
				require.NoError(t, r.Navigate("/auth/login", nav.Options{Replace: true}))
			}
		})
		defer unsub()

		require.NoError(t, r.Navigate("/auth/register", nav.Options{}))

		require.Equal(t, "/auth/login", r.Current())
		require.Equal(t, []string{"/auth/login"}, r.History(), "the superseded navigation must not commit")
	})
}
