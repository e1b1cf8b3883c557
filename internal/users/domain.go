package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/shared"
)

var (
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", shared.ErrNotFound)
	// ErrDuplicateUsername indicates the username is taken.
	ErrDuplicateUsername = fmt.Errorf("%w: Username already exists", shared.ErrConflict)
	// ErrSystemUser indicates an operation that system users are exempt from.
	ErrSystemUser = fmt.Errorf("%w: system users cannot be deactivated", shared.ErrForbidden)
)

// User represents a user account for management. The password hash never leaves
// the repository.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	IsActive    bool      `json:"isActive"`
	IsSystem    bool      `json:"isSystem"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	Username    string   `json:"username" validate:"min=3,max=50"`
	DisplayName string   `json:"displayName" validate:"min=3,max=120"`
	Password    string   `json:"password" validate:"min=8,max=72"`
	Roles       []string `json:"roles" validate:"min=1"`
}

// UpdateRolesInput replaces the role set of a user.
type UpdateRolesInput struct {
	Roles []string `json:"roles" validate:"min=1"`
}

// SetActiveInput toggles whether a user may sign in.
type SetActiveInput struct {
	Active bool `json:"active"`
}

// ResetPasswordInput sets a new password for a user.
type ResetPasswordInput struct {
	Password string `json:"password" validate:"min=8,max=72"`
}
