package session

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"amazobank.com/crm/auth"
)

// State of a guard instance.
type State int

const (
	Loading State = iota
	Authorized
	Redirecting
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "Authorized"
	case Redirecting:
		return "Redirecting"
	default:
		return "Loading"
	}
}

// PrincipalSource yields the signed-in principal. *Store implements it.
type PrincipalSource interface {
	Principal(ctx context.Context) (*auth.Principal, error)
}

// Navigator performs the redirect side effect for a guard.
type Navigator interface {
	Redirect(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string) error

func (f NavigatorFunc) Redirect(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Routes maps redirect verdicts to paths.
type Routes struct {
	Login     string
	AdminHome string
	AgentHome string
}

// DefaultRoutes are the dashboard's sign-in page and portal homes.
var DefaultRoutes = Routes{Login: "/login", AdminHome: "/admin", AgentHome: "/agent"}

// PathFor returns the redirect target for v, or "" for Allow.
func (r Routes) PathFor(v auth.Verdict) string {
	switch v {
	case auth.Allow:
		return ""
	case auth.RedirectToAdminHome:
		return r.AdminHome
	case auth.RedirectToAgentHome:
		return r.AgentHome
	default:
		return r.Login
	}
}

// Step is the guard transition out of Loading. A nil principal redirects to
// login; otherwise the authorizer's verdict decides.
func Step(principal *auth.Principal, req auth.Requirement) (State, auth.Verdict) {
	v := auth.Authorize(principal, req)
	if v == auth.Allow {
		return Authorized, v
	}
	return Redirecting, v
}

// Guard protects one view instance. Once it leaves Loading it never
// re-evaluates; a new navigation needs a new Guard.
type Guard struct {
	source      PrincipalSource
	requirement auth.Requirement
	routes      Routes

	mu         sync.Mutex
	state      State
	verdict    auth.Verdict
	redirected bool
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithRoutes overrides DefaultRoutes.
func WithRoutes(r Routes) GuardOption {
	return func(g *Guard) { g.routes = r }
}

func NewGuard(source PrincipalSource, req auth.Requirement, opts ...GuardOption) *Guard {
	g := &Guard{
		source:      source,
		requirement: req,
		routes:      DefaultRoutes,
		state:       Loading,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reads the principal and decides, once. Any failure to read the
// principal is treated as no session.
func (g *Guard) Check(ctx context.Context) (State, auth.Verdict) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Loading {
		return g.state, g.verdict
	}

	principal, err := g.source.Principal(ctx)
	if err != nil {
		log.Debugw("guard found no session", "requirement", g.requirement, "error", err)
		principal = nil
	}
	g.state, g.verdict = Step(principal, g.requirement)
	return g.state, g.verdict
}

// Run checks the view and issues at most one redirect. It reports whether
// the view may render.
func (g *Guard) Run(ctx context.Context, nav Navigator) bool {
	state, verdict := g.Check(ctx)
	if state == Authorized {
		return true
	}

	g.mu.Lock()
	first := !g.redirected
	g.redirected = true
	g.mu.Unlock()

	if first {
		path := g.routes.PathFor(verdict)
		if err := nav.Redirect(ctx, path); err != nil {
			log.Warnw("guard redirect failed", "path", path, "error", err)
		}
	}
	return false
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Verdict returns the decided verdict. It is meaningless while Loading.
func (g *Guard) Verdict() auth.Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verdict
}

// Path returns the redirect target once the guard is Redirecting.
func (g *Guard) Path() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Redirecting {
		return ""
	}
	return g.routes.PathFor(g.verdict)
}
