package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/rbac"
)

// User represents a back-office account as seen by authentication.
type User struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	PasswordHash string
	IsActive     bool
	IsSystem     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a login session. Sessions are closed by setting LoggedOutAt and are
// never deleted.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	LoggedInAt  time.Time  `json:"loggedInAt"`
	LoggedOutAt *time.Time `json:"loggedOutAt,omitempty"`
	UserAgent   string     `json:"userAgent,omitempty"`
	IPAddress   string     `json:"ipAddress,omitempty"`
}

// IsOpen reports whether the session has not been logged out.
func (s Session) IsOpen() bool {
	return s.LoggedOutAt == nil
}

// SessionMetadata carries optional client details recorded at login.
type SessionMetadata struct {
	UserAgent string
	IPAddress string
}

// Identity is the authenticated principal resolved for a request.
type Identity = rbac.Principal

// SessionSummary is a session joined with its owner's display name.
type SessionSummary struct {
	Session
	DisplayName string `json:"displayName"`
}
