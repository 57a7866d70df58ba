package fiberauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/auth/authtest"
)

type stubValidator struct {
	inactive map[string]bool
	err      error
}

func (v *stubValidator) ValidateUserActive(ctx context.Context, userID string) error {
	if v.err != nil {
		return v.err
	}
	if v.inactive[userID] {
		return auth.ErrUserInactive
	}
	return nil
}

func newTestApp(t *testing.T, validator auth.UserValidator) *fiber.App {
	t.Helper()
	ts, err := auth.NewTokenService(auth.VerifierConfig{HMACSecret: []byte(authtest.Secret)})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", RequireAuth(Config{Verifier: ts, Validator: validator}), func(c *fiber.Ctx) error {
		p, _ := GetPrincipal(c)
		return c.JSON(p)
	})
	app.Get("/admin", RequireAuth(Config{Verifier: ts, Validator: validator}), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/unguarded", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("never")
	})
	return app
}

func do(t *testing.T, app *fiber.App, path, authorization string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func bearer(id authtest.Identity) string {
	return "Bearer " + authtest.MustSign(id)
}

func TestRequireAuthStoresPrincipal(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := do(t, app, "/me", bearer(authtest.Identity{Subject: "u-1", Email: "a@b.c", Groups: []string{"Admin"}}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u-1", body["id"])
	assert.Equal(t, "Admin", body["role"])
}

func TestRequireAuthRejections(t *testing.T) {
	app := newTestApp(t, &stubValidator{inactive: map[string]bool{"gone": true}})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"no header", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"malformed", "Bearer a.b", http.StatusUnauthorized, "MALFORMED_TOKEN"},
		{"inactive", bearer(authtest.Identity{Subject: "gone"}), http.StatusUnauthorized, "USER_INACTIVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, "/me", tt.header)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, "err", body["result"])
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestRequireAuthValidatorFailure(t *testing.T) {
	app := newTestApp(t, &stubValidator{err: errors.New("db down")})

	code, body := do(t, app, "/me", bearer(authtest.Identity{Subject: "u-1"}))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "err", body["result"])
}

func TestRequireAdmin(t *testing.T) {
	app := newTestApp(t, nil)

	for _, group := range []string{"Admin", "SuperAdmin"} {
		code, _ := do(t, app, "/admin", bearer(authtest.Identity{Subject: "u-1", Groups: []string{group}}))
		assert.Equal(t, http.StatusOK, code, group)
	}

	code, body := do(t, app, "/admin", bearer(authtest.Identity{Subject: "u-2", Groups: []string{"Agent"}}))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "INSUFFICIENT_ROLE", body["code"])

	code, body = do(t, app, "/unguarded", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestExtractBearer(t *testing.T) {
	token, err := ExtractBearer("bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearer("")
	assert.True(t, errors.Is(err, auth.ErrMissingToken))
	_, err = ExtractBearer("Token abc")
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}

func TestWriteErrorFiberErrorReturnedUnchanged(t *testing.T) {
	app := fiber.New()
	var returned error
	app.Get("/", func(c *fiber.Ctx) error {
		returned = WriteError(c, fiber.ErrTeapot)
		return returned
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Same(t, fiber.ErrTeapot, returned)
}
