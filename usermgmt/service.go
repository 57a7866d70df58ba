// Package usermgmt is the server side of the user REST surface. Every
// mutation re-checks the role policy regardless of what the caller checked.
package usermgmt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/pg/model"
)

// ErrCannotManageUser is returned when the target's role is not strictly
// below the actor's.
var ErrCannotManageUser = auth.NewAuthError("INSUFFICIENT_ROLE", "Users can only be managed by a higher role", http.StatusForbidden)

// Invalidator drops cached status for a user. *auth.CachedUserValidator
// implements it.
type Invalidator interface {
	Invalidate(userID string)
}

// CreatedUser is the result of CreateUser. TemporaryPassword is set only
// when the request carried no password.
type CreatedUser struct {
	*model.User
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

// Service provides user management.
type Service struct {
	store       model.UserStore
	validate    *validator.Validate
	invalidator Invalidator
}

// NewService creates a user service over store.
func NewService(store model.UserStore) *Service {
	return &Service{
		store:    store,
		validate: newValidator(),
	}
}

// SetInvalidator registers the cache to clear when a user's status or role
// changes.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

func requireAdmin(actor *auth.Principal) error {
	if actor == nil {
		return auth.ErrMissingToken
	}
	if !actor.Role.CanAccessAdminPortal() {
		return auth.ErrInsufficientRole
	}
	return nil
}

// CreateUser validates req, enforces the role-assignment rule and stores the
// new user.
func (s *Service) CreateUser(ctx context.Context, actor *auth.Principal, req CreateUserRequest) (*CreatedUser, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(s.validate, &req); err != nil {
		return nil, err
	}
	if err := auth.CheckRoleAssignment(actor.Role, req.Role); err != nil {
		log.Warnw("role escalation denied", "actor", actor.ID, "actorRole", actor.Role, "targetRole", req.Role)
		return nil, err
	}

	created := &CreatedUser{}
	password := req.Password
	if password == "" {
		password = TemporaryPassword()
		created.TemporaryPassword = password
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	id := req.Subject
	if id == "" {
		id = uuid.NewString()
	}
	user := &model.User{
		ID:           id,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Role:         req.Role,
		Status:       model.StatusActive,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Infow("user created", "actor", actor.ID, "user", user.ID, "role", user.Role)
	created.User = user
	return created, nil
}

// ListUsers returns users visible to an administrator.
func (s *Service) ListUsers(ctx context.Context, actor *auth.Principal, opts model.ListOptions) ([]*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if opts.Role != "" && !opts.Role.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"role": "must be one of Agent Admin SuperAdmin"}}
	}
	return s.store.ListUsers(ctx, opts)
}

// loadManageable fetches an active user the actor outranks.
func (s *Service) loadManageable(ctx context.Context, actor *auth.Principal, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, model.ErrUserNotFound
	}
	if !auth.CanManageUser(actor.Role, user.Role) {
		return nil, ErrCannotManageUser
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of req. A role change is checked
// against the assignment rule before the target is even loaded.
func (s *Service) UpdateUser(ctx context.Context, actor *auth.Principal, id string, req UpdateUserRequest) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, &req); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if err := auth.CheckRoleAssignment(actor.Role, *req.Role); err != nil {
			log.Warnw("role escalation denied", "actor", actor.ID, "actorRole", actor.Role, "targetRole", *req.Role)
			return nil, err
		}
	}

	user, err := s.loadManageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		if user.PasswordHash, err = HashPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("could not hash password: %w", err)
		}
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(user.ID)
	log.Infow("user updated", "actor", actor.ID, "user", user.ID, "role", user.Role)
	return user, nil
}

// DisableUser soft-deletes a user. Disabled users can no longer
// authenticate and are not found by later updates.
func (s *Service) DisableUser(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	user, err := s.loadManageable(ctx, actor, id)
	if err != nil {
		return err
	}
	user.Status = model.StatusDisabled
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.invalidate(user.ID)
	log.Infow("user disabled", "actor", actor.ID, "user", user.ID)
	return nil
}

// ValidateUserActive implements auth.UserValidator. Identities with no local
// record are accepted; only disabled records are rejected.
func (s *Service) ValidateUserActive(ctx context.Context, userID string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check user status: %w", err)
	}
	if !user.Active() {
		return auth.ErrUserInactive
	}
	return nil
}

func (s *Service) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
