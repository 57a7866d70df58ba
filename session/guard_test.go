package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/auth/authtest"
)

type fixedSource struct {
	principal *auth.Principal
	err       error
	reads     int
}

func (f *fixedSource) Principal(context.Context) (*auth.Principal, error) {
	f.reads++
	return f.principal, f.err
}

type recordingNavigator struct {
	paths []string
}

func (r *recordingNavigator) Redirect(_ context.Context, path string) error {
	r.paths = append(r.paths, path)
	return nil
}

func TestStep(t *testing.T) {
	tests := []struct {
		name    string
		p       *auth.Principal
		req     auth.Requirement
		state   State
		verdict auth.Verdict
	}{
		{"no session", nil, auth.RequireAgentPortal, Redirecting, auth.RedirectToLogin},
		{"agent in agent portal", &auth.Principal{Role: auth.RoleAgent}, auth.RequireAgentPortal, Authorized, auth.Allow},
		{"agent in admin portal", &auth.Principal{Role: auth.RoleAgent}, auth.RequireAdminPortal, Redirecting, auth.RedirectToAgentHome},
		{"admin in agent portal", &auth.Principal{Role: auth.RoleAdmin}, auth.RequireAgentPortal, Redirecting, auth.RedirectToAdminHome},
		{"superadmin in admin portal", &auth.Principal{Role: auth.RoleSuperAdmin}, auth.RequireAdminPortal, Authorized, auth.Allow},
		{"open view", &auth.Principal{Role: auth.RoleAgent}, auth.RequireNone, Authorized, auth.Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, verdict := Step(tt.p, tt.req)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.verdict, verdict)
		})
	}
}

func TestGuardAuthorized(t *testing.T) {
	src := &fixedSource{principal: &auth.Principal{ID: "u-1", Role: auth.RoleAdmin}}
	g := NewGuard(src, auth.RequireAdminPortal)
	assert.Equal(t, Loading, g.State())

	nav := &recordingNavigator{}
	assert.True(t, g.Run(context.Background(), nav))
	assert.Equal(t, Authorized, g.State())
	assert.Empty(t, nav.paths)
	assert.Empty(t, g.Path())
}

func TestGuardRedirectIsTerminal(t *testing.T) {
	src := &fixedSource{principal: &auth.Principal{ID: "u-1", Role: auth.RoleAgent}}
	g := NewGuard(src, auth.RequireAdminPortal)
	nav := &recordingNavigator{}
	ctx := context.Background()

	assert.False(t, g.Run(ctx, nav))
	// The principal changes, but the guard has already decided.
	src.principal = &auth.Principal{ID: "u-1", Role: auth.RoleAdmin}
	assert.False(t, g.Run(ctx, nav))
	state, verdict := g.Check(ctx)

	assert.Equal(t, Redirecting, state)
	assert.Equal(t, auth.RedirectToAgentHome, verdict)
	assert.Equal(t, []string{"/agent"}, nav.paths)
	assert.Equal(t, 1, src.reads)
	assert.Equal(t, "/agent", g.Path())
}

func TestGuardSourceErrorRedirectsToLogin(t *testing.T) {
	src := &fixedSource{err: errors.New("storage unreadable")}
	nav := &recordingNavigator{}
	g := NewGuard(src, auth.RequireAgentPortal, WithRoutes(Routes{Login: "/signin", AdminHome: "/a", AgentHome: "/b"}))

	assert.False(t, g.Run(context.Background(), nav))
	assert.Equal(t, auth.RedirectToLogin, g.Verdict())
	assert.Equal(t, []string{"/signin"}, nav.paths)
}

func TestGuardNavigatorErrorStillTerminal(t *testing.T) {
	calls := 0
	nav := NavigatorFunc(func(context.Context, string) error {
		calls++
		return errors.New("browser closed")
	})
	g := NewGuard(&fixedSource{}, auth.RequireAdminPortal)

	assert.False(t, g.Run(context.Background(), nav))
	assert.False(t, g.Run(context.Background(), nav))
	assert.Equal(t, 1, calls)
}

func TestSignOutThenGuardRedirectsToLogin(t *testing.T) {
	ctx := context.Background()
	store := newStore(NewMemoryStorage(), nil)
	_, err := store.SignIn(ctx, auth.TokenBundle{IDToken: authtest.MustSign(authtest.Identity{
		Subject: "u-agent",
		Groups:  []string{"Agent"},
	})})
	require.NoError(t, err)

	nav := &recordingNavigator{}
	assert.True(t, NewGuard(store, auth.RequireAgentPortal).Run(ctx, nav))

	require.NoError(t, store.SignOut(ctx))
	_, ok := store.GetToken(ctx)
	assert.False(t, ok)

	for _, req := range []auth.Requirement{auth.RequireNone, auth.RequireAgentPortal, auth.RequireAdminPortal} {
		g := NewGuard(store, req)
		assert.False(t, g.Run(ctx, nav), req.String())
		assert.Equal(t, auth.RedirectToLogin, g.Verdict())
	}
	assert.Equal(t, []string{"/login", "/login", "/login"}, nav.paths)
}

func TestRoutesPathFor(t *testing.T) {
	assert.Equal(t, "", DefaultRoutes.PathFor(auth.Allow))
	assert.Equal(t, "/admin", DefaultRoutes.PathFor(auth.RedirectToAdminHome))
	assert.Equal(t, "/agent", DefaultRoutes.PathFor(auth.RedirectToAgentHome))
	assert.Equal(t, "/login", DefaultRoutes.PathFor(auth.RedirectToLogin))
}
