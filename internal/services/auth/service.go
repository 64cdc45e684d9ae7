package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
	"github.com/mcoot/eventsphere/internal/dependencies/random"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSession            = errors.New("session store failure")
)

// tokenBytes is the entropy of a session token
const tokenBytes = 32

// cookieValueName is the name mixed into the cookie MAC
const cookieValueName = "admin_session"

// Config holds configuration for the auth service
type Config struct {
	AdminUsername string
	// AdminPasswordHash is a bcrypt hash of the admin password
	AdminPasswordHash string
	SessionDuration   time.Duration
	// CookieSecret signs session cookies
	CookieSecret []byte
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		AdminUsername:   "admin",
		SessionDuration: 24 * time.Hour,
	}
}

// Service is the admin gate: it logs the administrator in and out and
// checks every admin-only request against the session store.
type Service struct {
	sessions storage.SessionStore
	clock    clock.Clock
	random   random.Random
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
	cookies  *securecookie.SecureCookie
}

// New creates a new auth service. A zero SessionDuration uses the default;
// a negative one or an empty CookieSecret is an error.
func New(
	sessions storage.SessionStore,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) (*Service, error) {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.SessionDuration <= 0 {
		return nil, fmt.Errorf("session duration must be positive, got %s", cfg.SessionDuration)
	}
	if len(cfg.CookieSecret) == 0 {
		return nil, errors.New("cookie secret is required")
	}

	cookies := securecookie.New(cfg.CookieSecret, nil).
		MaxAge(int(cfg.SessionDuration / time.Second))

	return &Service{
		sessions: sessions,
		clock:    clock,
		random:   random,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		cookies:  cookies,
	}, nil
}

// SessionDuration returns how long new sessions live
func (s *Service) SessionDuration() time.Duration {
	return s.cfg.SessionDuration
}

// Login checks the admin credentials and opens a new session.
// Wrong username and wrong password both return ErrInvalidCredentials, and
// the bcrypt comparison runs in both cases.
func (s *Service) Login(ctx context.Context, username, password string) (*model.AdminSession, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password))

	if !usernameOK || passwordErr != nil {
		if passwordErr != nil && !errors.Is(passwordErr, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("admin password hash check failed", "error", passwordErr)
		}
		s.metrics.Login(metrics.OutcomeInvalid)
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	session := &model.AdminSession{
		Token:     s.random.Token(tokenBytes),
		IsAdmin:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionDuration),
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("%w: save session: %w", ErrSession, err)
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	s.logger.Info("admin logged in")
	return session, nil
}

// Logout destroys the session. An empty or unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %w", ErrSession, err)
	}
	return nil
}

// RequireAdmin returns the session for token if it exists, is unexpired and
// carries the admin flag. Otherwise it returns ErrUnauthorized, or ErrSession
// if the store could not be read.
func (s *Service) RequireAdmin(ctx context.Context, token string) (*model.AdminSession, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: get session: %w", ErrSession, err)
	}

	if session.Expired(s.clock.Now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrUnauthorized
	}

	if !session.IsAdmin {
		return nil, ErrUnauthorized
	}

	return session, nil
}

// CleanExpiredSessions removes expired sessions (call periodically).
// Stores with native expiry report zero.
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	removed, err := s.sessions.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired sessions: %w", ErrSession, err)
	}
	return removed, nil
}

// SignToken returns the signed cookie value carrying a session token
func (s *Service) SignToken(token string) (string, error) {
	value, err := s.cookies.Encode(cookieValueName, token)
	if err != nil {
		return "", fmt.Errorf("%w: sign cookie: %w", ErrSession, err)
	}
	return value, nil
}

// VerifyCookie extracts the session token from a signed cookie value.
// Tampered, foreign or malformed values return ErrUnauthorized without touching the store.
func (s *Service) VerifyCookie(value string) (string, error) {
	var token string
	if err := s.cookies.Decode(cookieValueName, value, &token); err != nil || token == "" {
		return "", ErrUnauthorized
	}
	return token, nil
}

// AuthenticateCookie verifies a signed cookie value and requires an admin session
func (s *Service) AuthenticateCookie(ctx context.Context, value string) (*model.AdminSession, error) {
	token, err := s.VerifyCookie(value)
	if err != nil {
		return nil, err
	}
	return s.RequireAdmin(ctx, token)
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
