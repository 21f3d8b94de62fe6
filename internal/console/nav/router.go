// Package nav models the console's navigation layer: a history stack with
// push/replace semantics, per-route activation guards, and the two event
// streams the session subsystem listens to (navigation start and
// back/forward "pop" events).
package nav

import (
	"log/slog"
	"strings"
	"sync"
)

// Options control how a navigation mutates the history stack.
type Options struct {
	// Replace swaps the current entry instead of pushing a new one, so a
	// subsequent Back cannot return to the replaced location.
	Replace bool
}

// Navigator is the narrow surface session components need from the routing
// layer.
type Navigator interface {
	Navigate(url string, opts Options) error
	Current() string
}

// Decision is a guard's verdict on a pending navigation.
type Decision struct {
	Allow      bool
	RedirectTo string
	Replace    bool
}

// Allow is the positive guard verdict.
func Allow() Decision { return Decision{Allow: true} }

// RedirectTo sends the navigation elsewhere instead.
func RedirectTo(url string, replace bool) Decision {
	return Decision{RedirectTo: url, Replace: replace}
}

// GuardFunc decides whether a protected route may activate.
type GuardFunc func(target string) Decision

// Route declares one path prefix in the console's route table.
type Route struct {
	Path      string
	Protected bool
}

// Router is an in-process stand-in for the browser's router + history API.
// Events are delivered synchronously on the calling goroutine; subscribers
// and guards may re-enter Navigate (a redirect supersedes the navigation
// that triggered it).
type Router struct {
	NotFoundURL string

	mu        sync.Mutex
	routes    []Route
	guard     GuardFunc
	entries   []string
	index     int
	seq       int
	commitSeq int

	nextSub   int
	startSubs map[int]func(url string)
	popSubs   map[int]func(url string)

	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		NotFoundURL: "/notfound",
		index:       -1,
		startSubs:   make(map[int]func(string)),
		popSubs:     make(map[int]func(string)),
		logger:      logger,
	}
}

// Register adds routes to the table. Matching is longest-prefix on path
// segments; "/" matches only itself.
func (r *Router) Register(routes ...Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, routes...)
}

// Guard installs the activation guard consulted for protected routes.
// There is exactly one; both the navigation guard and the history guard
// share the same underlying session predicate, so drift between two
// implementations is not possible.
func (r *Router) Guard(fn GuardFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard = fn
}

// OnNavigationStart subscribes to programmatic navigations. The listener
// fires before route matching and guards. Returns an unsubscribe closure.
func (r *Router) OnNavigationStart(fn func(url string)) (unsub func()) {
	return r.subscribe(fn, &r.startSubs)
}

// OnPop subscribes to back/forward history traversal. Returns an
// unsubscribe closure.
func (r *Router) OnPop(fn func(url string)) (unsub func()) {
	return r.subscribe(fn, &r.popSubs)
}

func (r *Router) subscribe(fn func(string), subs *map[int]func(string)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	(*subs)[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(*subs, id)
	}
}

// Navigate resolves url against the route table, runs the guard for
// protected routes, and commits the history mutation. If a navigation-start
// listener or a guard redirect triggers another Navigate, the original
// navigation is abandoned: whichever navigation commits last wins and stale
// ones detect that and drop themselves.
func (r *Router) Navigate(url string, opts Options) error {
	r.mu.Lock()
	r.seq++
	myseq := r.seq
	starts := snapshot(r.startSubs)
	r.mu.Unlock()

	for _, fn := range starts {
		fn(url)
	}

	route, known := r.match(url)
	if !known {
		r.logger.Debug("no route matched, showing not-found", "url", url)
		url = r.NotFoundURL
		route = Route{Path: r.NotFoundURL}
	}

	if route.Protected {
		r.mu.Lock()
		guard := r.guard
		r.mu.Unlock()

		if guard != nil {
			if d := guard(url); !d.Allow {
				return r.Navigate(d.RedirectTo, Options{Replace: d.Replace})
			}
		}
	}

	r.commit(myseq, url, opts.Replace)
	return nil
}

// Back moves to the previous history entry and notifies pop subscribers.
// Route guards are deliberately not consulted here: a browser restoring a
// page from the back/forward cache does not re-run activation guards, which
// is exactly the gap the history guard closes.
func (r *Router) Back() {
	r.traverse(-1)
}

// Forward moves to the next history entry and notifies pop subscribers.
func (r *Router) Forward() {
	r.traverse(+1)
}

func (r *Router) traverse(delta int) {
	r.mu.Lock()
	next := r.index + delta
	if next < 0 || next >= len(r.entries) {
		r.mu.Unlock()
		return
	}
	r.index = next
	url := r.entries[next]
	pops := snapshot(r.popSubs)
	r.mu.Unlock()

	for _, fn := range pops {
		fn(url)
	}
}

// Current returns the active URL, or "" before the first navigation.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index < 0 {
		return ""
	}
	return r.entries[r.index]
}

// History returns a copy of the history stack, oldest first. Intended for
// tests and diagnostics.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

func (r *Router) commit(myseq int, url string, replace bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.commitSeq > myseq {
		// A navigation started after this one has already committed
		// (guard redirect or listener-initiated); this one is stale.
		r.logger.Debug("navigation superseded", "url", url)
		return
	}
	r.commitSeq = myseq

	if replace && r.index >= 0 {
		r.entries = r.entries[:r.index+1]
		r.entries[r.index] = url
		return
	}

	r.entries = append(r.entries[:r.index+1], url)
	r.index++
}

func (r *Router) match(url string) (Route, bool) {
	path := pathOf(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	var best Route
	found := false
	for _, route := range r.routes {
		if !matches(path, route.Path) {
			continue
		}
		if !found || len(route.Path) > len(best.Path) {
			best = route
			found = true
		}
	}
	return best, found
}

// matches reports whether path falls under prefix, honoring segment
// boundaries. "/" matches only itself so it cannot shadow the whole table.
func matches(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// pathOf strips the query portion of a URL before route matching.
func pathOf(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

func snapshot(subs map[int]func(string)) []func(string) {
	out := make([]func(string), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}
