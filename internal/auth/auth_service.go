package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucial707/authsvc/internal/metrics"
	"github.com/crucial707/authsvc/internal/models"
	"github.com/crucial707/authsvc/internal/repo"
)

var tracer = otel.Tracer("authsvc/auth")

// Health values reported by Service.Health.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	DatabaseOK     = "ok"
	DatabaseDown   = "down"
)

// missingCredentials is the message for an absent username or password.
const missingCredentials = "Username and password are required"

// AccountStore is the persistence the service needs.
type AccountStore interface {
	Insert(ctx context.Context, username string, passwordHash []byte, role string) (int64, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Ping(ctx context.Context) bool
}

// Registration describes a newly created account.
type Registration struct {
	ID       int64
	Username string
	Role     string
}

// Session is the result of a successful login.
type Session struct {
	Token    string
	UserID   int64
	Username string
	Role     string
}

// HealthStatus is always produced, whether or not the store answers.
type HealthStatus struct {
	Status   string
	Database string
}

// Healthy reports whether the store answered.
func (h HealthStatus) Healthy() bool {
	return h.Status == StatusOK
}

// Service orchestrates registration and login. It holds no per-request state.
type Service struct {
	store  AccountStore
	hasher PasswordHasher
	tokens TokenSigner

	// dummyHash is verified against when the username is unknown. It is built
	// here so the first such login costs the same as every later one.
	dummyHash []byte
}

// NewService wires the service to its collaborators.
func NewService(store AccountStore, hasher PasswordHasher, tokens TokenSigner) *Service {
	dummy, err := hasher.Hash("enumeration-guard")
	if err != nil {
		slog.Warn("auth: dummy hash unavailable", "error", err)
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, dummyHash: dummy}
}

// ==========================
// Register
// ==========================

// Register hashes the password and stores a new account. An empty role becomes models.RoleUser.
// No token is issued.
func (s *Service) Register(ctx context.Context, username, password, role string) (_ *Registration, err error) {
	ctx, span := tracer.Start(ctx, "auth.register", trace.WithAttributes(attribute.String("auth.username", username)))
	defer func() { endSpan(span, err) }()

	if role == "" {
		role = models.RoleUser
	}
	if err := validateRegistration(username, password, role); err != nil {
		metrics.IncAuthOutcome("register", "invalid")
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		metrics.IncAuthOutcome("register", "error")
		slog.ErrorContext(ctx, "registration: hash password failed", "username", username, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	id, err := s.store.Insert(ctx, username, hash, role)
	if errors.Is(err, repo.ErrDuplicateUsername) {
		metrics.IncAuthOutcome("register", "conflict")
		return nil, ErrConflict
	}
	if err != nil {
		metrics.IncAuthOutcome("register", "error")
		slog.ErrorContext(ctx, "registration: insert account failed", "username", username, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	metrics.IncAuthOutcome("register", "created")
	slog.InfoContext(ctx, "account registered", "user_id", id, "username", username, "role", role)
	return &Registration{ID: id, Username: username, Role: role}, nil
}

// ==========================
// Login
// ==========================

// Login verifies the credentials and issues a session token. Unknown usernames
// and wrong passwords both yield ErrAuthenticationFailed, after the same amount of hashing work.
func (s *Service) Login(ctx context.Context, username, password string) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "auth.login", trace.WithAttributes(attribute.String("auth.username", username)))
	defer func() { endSpan(span, err) }()

	if username == "" || password == "" {
		metrics.IncAuthOutcome("login", "invalid")
		return nil, invalid(missingCredentials)
	}

	account, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		metrics.IncAuthOutcome("login", "rejected")
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		metrics.IncAuthOutcome("login", "error")
		slog.ErrorContext(ctx, "login: lookup account failed", "username", username, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		metrics.IncAuthOutcome("login", "rejected")
		return nil, ErrAuthenticationFailed
	}

	token, err := s.tokens.Issue(account.Username, account.ID, account.Role)
	if err != nil {
		metrics.IncAuthOutcome("login", "error")
		slog.ErrorContext(ctx, "login: issue token failed", "user_id", account.ID, "error", err)
		if !errors.Is(err, ErrIssuance) {
			err = fmt.Errorf("%w: %w", ErrIssuance, err)
		}
		return nil, err
	}

	metrics.IncAuthOutcome("login", "authenticated")
	return &Session{Token: token, UserID: account.ID, Username: account.Username, Role: account.Role}, nil
}

// ==========================
// Health
// ==========================

// Health pings the store. It never fails; an unreachable store is reported as degraded.
func (s *Service) Health(ctx context.Context) HealthStatus {
	ctx, span := tracer.Start(ctx, "auth.health")
	defer span.End()

	up := s.store.Ping(ctx)
	metrics.SetStoreUp(up)
	span.SetAttributes(attribute.Bool("store.up", up))
	if !up {
		slog.WarnContext(ctx, "health: database unreachable")
		return HealthStatus{Status: StatusDegraded, Database: DatabaseDown}
	}
	return HealthStatus{Status: StatusOK, Database: DatabaseOK}
}

func validateRegistration(username, password, role string) error {
	switch {
	case username == "" || password == "":
		return invalid(missingCredentials)
	case len(username) > models.MaxUsernameLength:
		return invalid(fmt.Sprintf("Username must be at most %d characters", models.MaxUsernameLength))
	case len(password) > MaxPasswordBytes:
		return invalid(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	case len(role) > models.MaxRoleLength:
		return invalid(fmt.Sprintf("Role must be at most %d characters", models.MaxRoleLength))
	}
	return nil
}

// endSpan marks only unexpected failures as span errors; rejected credentials are normal traffic.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("auth.outcome", outcome(err)))
		if errors.Is(err, ErrInternal) || errors.Is(err, ErrIssuance) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAuthenticationFailed):
		return "rejected"
	default:
		return "error"
	}
}
