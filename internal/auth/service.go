package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/expertpos/expert-pos/internal/shared"
)

// UserLookup finds accounts by login name.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

// LoginInput carries submitted credentials.
type LoginInput struct {
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=6"`
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Identity  *Identity
	Session   Session
	Token     string
	ExpiresAt time.Time
}

// Login results reported to LoginRecorder.
const (
	LoginSucceeded = "success"
	LoginRejected  = "invalid"
	LoginThrottled = "throttled"
)

// LoginRecorder observes login results.
type LoginRecorder interface {
	ObserveLogin(result string)
}

// Service wraps authentication business rules.
type Service struct {
	users    UserLookup
	verifier PasswordVerifier
	sessions *Manager
	throttle *Throttle
	recorder LoginRecorder
	logger   *slog.Logger
}

// NewService constructs a new Service. throttle may be nil.
func NewService(users UserLookup, verifier PasswordVerifier, sessions *Manager, throttle *Throttle, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, verifier: verifier, sessions: sessions, throttle: throttle, logger: logger}
}

// SetLoginRecorder attaches a recorder for login results.
func (s *Service) SetLoginRecorder(recorder LoginRecorder) {
	s.recorder = recorder
}

func (s *Service) observe(result string) {
	if s.recorder != nil {
		s.recorder.ObserveLogin(result)
	}
}

// NormalizeUsername trims and lower-cases a login name.
func NormalizeUsername(username string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(username))
}

// Login authenticates the credentials and opens a session. Unknown, inactive and
// mismatched accounts all fail with shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput, meta SessionMetadata) (*LoginResult, error) {
	input.Username = NormalizeUsername(input.Username)
	if err := shared.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := s.throttle.Check(ctx, input.Username); err != nil {
		if errors.Is(err, shared.ErrThrottled) {
			s.observe(LoginThrottled)
			return nil, err
		}
		s.logger.Warn("login throttle check", slog.Any("error", err))
	}

	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if user == nil || !user.IsActive || !s.verifier.Verify(input.Password, user.PasswordHash) {
		if err := s.throttle.Fail(ctx, input.Username); err != nil {
			s.logger.Warn("login throttle record", slog.Any("error", err))
		}
		s.observe(LoginRejected)
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.throttle.Reset(ctx, input.Username); err != nil {
		s.logger.Warn("login throttle reset", slog.Any("error", err))
	}

	session, token, expiresAt, err := s.sessions.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}
	identity, err := s.sessions.ResolveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, shared.ErrInvalidCredentials
	}
	s.observe(LoginSucceeded)
	s.logger.Info("user logged in", slog.String("username", user.Username), slog.String("session_id", session.ID.String()))
	return &LoginResult{Identity: identity, Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout closes the session referenced by token, if any.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.CloseCurrentSession(ctx, token)
}
