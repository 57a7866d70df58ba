package usermgmt

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/auth/authtest"
	"amazobank.com/crm/auth/fiberauth"
	"amazobank.com/crm/pg/repo"
)

type apiFixture struct {
	app *fiber.App
	svc *Service
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ts, err := auth.NewTokenService(auth.VerifierConfig{HMACSecret: []byte(authtest.Secret)})
	require.NoError(t, err)

	svc := NewService(repo.NewMemoryDB())
	cached := auth.NewCachedUserValidator(svc, &auth.CacheConfig{UserStatusTTL: time.Minute, MaxCacheSize: 100})
	svc.SetInvalidator(cached)

	app := fiber.New()
	SetupRoutes(app, NewHandlers(svc), fiberauth.Config{Verifier: ts, Validator: cached})
	return &apiFixture{app: app, svc: svc}
}

func tokenFor(sub string, role auth.Role) string {
	return authtest.MustSign(authtest.Identity{Subject: sub, Groups: []string{string(role)}})
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Result string `json:"result"`
		Code   string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	assert.Equal(t, "err", env.Result)
	return env.Code
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	code, body := f.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"UP"}`, string(body))
}

func TestAdminCannotCreateAdmin(t *testing.T) {
	f := newAPI(t)
	code, body := f.call(t, http.MethodPost, "/api/users", tokenFor("ad-1", auth.RoleAdmin),
		validCreate("new-admin@amazobank.com", auth.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ROLE_ESCALATION_DENIED", errorCode(t, body))
}

func TestSuperAdminCreatesAdmin(t *testing.T) {
	f := newAPI(t)
	code, body := f.call(t, http.MethodPost, "/api/users", tokenFor("sa-1", auth.RoleSuperAdmin),
		validCreate("new-admin@amazobank.com", auth.RoleAdmin))
	require.Equal(t, http.StatusCreated, code, string(body))

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Admin", created["role"])
	assert.Equal(t, "Active", created["status"])
	assert.NotContains(t, created, "PasswordHash")
	assert.NotContains(t, created, "temporaryPassword")
}

func TestAgentIsRejectedFromUserRoutes(t *testing.T) {
	f := newAPI(t)
	code, body := f.call(t, http.MethodGet, "/api/users", tokenFor("ag-1", auth.RoleAgent), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "INSUFFICIENT_ROLE", errorCode(t, body))

	code, body = f.call(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, body))
}

func TestCreateUserBadInput(t *testing.T) {
	f := newAPI(t)
	token := tokenFor("sa-1", auth.RoleSuperAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{broken"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, body := f.call(t, http.MethodPost, "/api/users", token, map[string]string{"firstName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	var env struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Contains(t, env.Fields, "email")
	assert.Contains(t, env.Fields, "role")
}

func TestPatchAndDeleteFlow(t *testing.T) {
	f := newAPI(t)
	adminToken := tokenFor("ad-1", auth.RoleAdmin)

	req := validCreate("agent@amazobank.com", auth.RoleAgent)
	req.Subject = "agent-sub"
	code, body := f.call(t, http.MethodPost, "/api/users", adminToken, req)
	require.Equal(t, http.StatusCreated, code, string(body))

	agentToken := tokenFor("agent-sub", auth.RoleAgent)
	assert.NoError(t, f.svc.ValidateUserActive(t.Context(), "agent-sub"))

	code, body = f.call(t, http.MethodPatch, "/api/users/agent-sub", adminToken, map[string]string{"role": "Admin"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ROLE_ESCALATION_DENIED", errorCode(t, body))

	code, body = f.call(t, http.MethodPatch, "/api/users/agent-sub", adminToken, map[string]string{"lastName": "Smith"})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Contains(t, string(body), `"lastName":"Smith"`)

	code, body = f.call(t, http.MethodPatch, "/api/users/nobody", adminToken, map[string]string{"lastName": "Smith"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, body))

	// The agent's own token is accepted until the account is disabled.
	code, _ = f.call(t, http.MethodGet, "/api/users", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.call(t, http.MethodDelete, "/api/users/agent-sub", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, body = f.call(t, http.MethodGet, "/api/users", agentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "USER_INACTIVE", errorCode(t, body))

	code, _ = f.call(t, http.MethodDelete, "/api/users/agent-sub", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDuplicateEmailConflict(t *testing.T) {
	f := newAPI(t)
	token := tokenFor("ad-1", auth.RoleAdmin)
	code, _ := f.call(t, http.MethodPost, "/api/users", token, validCreate("dup@amazobank.com", auth.RoleAgent))
	require.Equal(t, http.StatusCreated, code)

	code, body := f.call(t, http.MethodPost, "/api/users", token, validCreate("dup@amazobank.com", auth.RoleAgent))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, body))
}

func TestCreateUserExistingSubjectConflict(t *testing.T) {
	f := newAPI(t)
	req := validCreate("root@amazobank.com", auth.RoleSuperAdmin)
	req.Subject = "sa-2"
	code, _ := f.call(t, http.MethodPost, "/api/users", tokenFor("sa-1", auth.RoleSuperAdmin), req)
	require.Equal(t, http.StatusCreated, code)

	takeover := validCreate("other@amazobank.com", auth.RoleAgent)
	takeover.Subject = "sa-2"
	code, body := f.call(t, http.MethodPost, "/api/users", tokenFor("ad-1", auth.RoleAdmin), takeover)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "USER_EXISTS", errorCode(t, body))
}
