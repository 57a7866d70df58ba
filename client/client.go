// Package client calls the user API on behalf of the signed-in principal.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/pg/model"
	"amazobank.com/crm/usermgmt"
)

const defaultTimeout = 10 * time.Second

// Session supplies the bearer token and the principal making requests.
// *session.Store implements it.
type Session interface {
	GetToken(ctx context.Context) (string, bool)
	Principal(ctx context.Context) (*auth.Principal, error)
}

// APIError is a non-auth error returned by the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d [%s]: %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes the store errors the codes stand for.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "USER_NOT_FOUND":
		return model.ErrUserNotFound
	case "EMAIL_TAKEN":
		return model.ErrEmailTaken
	case "USER_EXISTS":
		return model.ErrUserExists
	}
	return nil
}

var authErrors = map[string]*auth.AuthError{}

func init() {
	for _, e := range []*auth.AuthError{
		auth.ErrMalformedToken, auth.ErrNoSession, auth.ErrMissingToken, auth.ErrInvalidToken,
		auth.ErrUserInactive, auth.ErrInsufficientRole, auth.ErrRoleEscalationDenied, auth.ErrUpstreamUnavailable,
	} {
		authErrors[e.Type] = e
	}
}

// Client is a user API client.
type Client struct {
	baseURL string
	session Session
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the API at baseURL.
func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateUser creates a user. A role the principal may not assign is refused
// without contacting the server.
func (c *Client) CreateUser(ctx context.Context, req usermgmt.CreateUserRequest) (*usermgmt.CreatedUser, error) {
	principal, err := c.session.Principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckRoleAssignment(principal.Role, req.Role); err != nil {
		return nil, err
	}

	out := &usermgmt.CreatedUser{}
	if err := c.do(ctx, fiber.Post(c.baseURL+"/api/users").JSON(req), out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser patches a user, refusing role changes the principal may not make.
func (c *Client) UpdateUser(ctx context.Context, id string, req usermgmt.UpdateUserRequest) (*model.User, error) {
	if req.Role != nil {
		principal, err := c.session.Principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := auth.CheckRoleAssignment(principal.Role, *req.Role); err != nil {
			return nil, err
		}
	}

	out := &model.User{}
	if err := c.do(ctx, fiber.Patch(c.baseURL+"/api/users/"+url.PathEscape(id)).JSON(req), out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser disables a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, fiber.Delete(c.baseURL+"/api/users/"+url.PathEscape(id)), nil)
}

// ListUsers lists users.
func (c *Client) ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, error) {
	q := url.Values{}
	if opts.Role != "" {
		q.Set("role", string(opts.Role))
	}
	if opts.IncludeDisabled {
		q.Set("includeDisabled", strconv.FormatBool(true))
	}

	agent := fiber.Get(c.baseURL + "/api/users")
	if len(q) > 0 {
		agent.QueryString(q.Encode())
	}
	var out []*model.User
	if err := c.do(ctx, agent, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}
	token, ok := c.session.GetToken(ctx)
	if !ok {
		fiber.ReleaseAgent(agent)
		return auth.ErrNoSession
	}

	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		log.Warnw("user api unreachable", "error", errors.Join(errs...))
		return fmt.Errorf("%w: %v", auth.ErrUpstreamUnavailable, errors.Join(errs...))
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return decodeError(status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", auth.ErrUpstreamUnavailable, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var env struct {
		Error  string            `json:"error"`
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(body, &env)

	if known, ok := authErrors[env.Code]; ok {
		msg := env.Error
		if msg == "" {
			msg = known.Message
		}
		return auth.NewAuthError(known.Type, msg, status)
	}
	if status >= http.StatusInternalServerError || env.Code == "" {
		return fmt.Errorf("%w: status %d", auth.ErrUpstreamUnavailable, status)
	}
	return &APIError{Status: status, Code: env.Code, Message: env.Error, Fields: env.Fields}
}
