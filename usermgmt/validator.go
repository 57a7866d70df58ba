package usermgmt

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"amazobank.com/crm/auth"
)

var alphaSpace = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	// Subject links the record to an existing identity provider account.
	// A new id is generated when empty.
	Subject   string    `json:"subject,omitempty" validate:"omitempty,max=128"`
	FirstName string    `json:"firstName" validate:"required,min=1,max=50,alpha"`
	LastName  string    `json:"lastName" validate:"required,min=1,max=50,alphaspace"`
	Email     string    `json:"email" validate:"required,email,max=100"`
	Password  string    `json:"password,omitempty" validate:"omitempty,min=8,max=255"`
	Role      auth.Role `json:"role" validate:"required,oneof=Agent Admin SuperAdmin"`
}

// UpdateUserRequest is the body of PATCH /api/users/:id. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	FirstName *string    `json:"firstName,omitempty" validate:"omitempty,min=1,max=50,alpha"`
	LastName  *string    `json:"lastName,omitempty" validate:"omitempty,min=1,max=50,alphaspace"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Password  *string    `json:"password,omitempty" validate:"omitempty,min=8,max=255"`
	Role      *auth.Role `json:"role,omitempty" validate:"omitempty,oneof=Agent Admin SuperAdmin"`
}

// ValidationError lists the offending fields by their JSON names.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpace.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs v and converts failures into a *ValidationError.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "alpha":
		return "must contain letters only"
	case "alphaspace":
		return "must contain letters and single spaces only"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
