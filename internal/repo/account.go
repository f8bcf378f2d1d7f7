package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/samber/oops"

	"github.com/crucial707/authsvc/internal/db"
	"github.com/crucial707/authsvc/internal/models"
)

var (
	// ErrNotFound is returned when no account has the requested username.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateUsername is returned when the unique constraint on username rejects an insert.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrStore wraps every other persistence or connectivity failure.
	ErrStore = errors.New("store error")
)

// Connector hands out a connection that the caller must close.
type Connector interface {
	Connect(ctx context.Context) (*sql.Conn, error)
}

// ==========================
// AccountRepo
// ==========================

// AccountRepo persists accounts in the users table. Every call acquires its own
// connection and releases it before returning.
type AccountRepo struct {
	conns Connector
}

// ==========================
// Constructor
// ==========================

// NewAccountRepo returns a repo that takes a connection from conns for every call.
func NewAccountRepo(conns Connector) *AccountRepo {
	return &AccountRepo{conns: conns}
}

// ==========================
// Ensure Schema
// ==========================

// EnsureSchema creates the users table if it does not exist. Safe to call on every start.
func (r *AccountRepo) EnsureSchema(ctx context.Context) error {
	conn, err := r.conns.Connect(ctx)
	if err != nil {
		return storeErr("SCHEMA_CONNECT_FAILED", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, db.CreateUsersTable); err != nil {
		return storeErr("SCHEMA_CREATE_FAILED", err)
	}
	return nil
}

// ==========================
// Insert Account
// ==========================

// Insert stores a new account and returns its id. Uniqueness is left to the
// database constraint so concurrent registrations cannot both succeed.
func (r *AccountRepo) Insert(ctx context.Context, username string, passwordHash []byte, role string) (int64, error) {
	conn, err := r.conns.Connect(ctx)
	if err != nil {
		return 0, storeErr("ACCOUNT_CONNECT_FAILED", err, "username", username)
	}
	defer conn.Close()

	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err = conn.QueryRowContext(ctx, query, username, passwordHash, role).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, oops.Code("ACCOUNT_DUPLICATE").
				With("username", username).
				Wrap(fmt.Errorf("%w: %w", ErrDuplicateUsername, err))
		}
		return 0, storeErr("ACCOUNT_INSERT_FAILED", err, "username", username)
	}

	return id, nil
}

// ==========================
// Find By Username
// ==========================

// FindByUsername returns the full account, or ErrNotFound.
func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	conn, err := r.conns.Connect(ctx)
	if err != nil {
		return nil, storeErr("ACCOUNT_CONNECT_FAILED", err, "username", username)
	}
	defer conn.Close()

	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`

	account := &models.Account{}
	err = conn.QueryRowContext(ctx, query, username).
		Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("ACCOUNT_LOOKUP_FAILED", err, "username", username)
	}

	return account, nil
}

// ==========================
// Ping
// ==========================

// Ping reports whether the store answers a trivial query.
func (r *AccountRepo) Ping(ctx context.Context) bool {
	conn, err := r.conns.Connect(ctx)
	if err != nil {
		return false
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return false
	}
	return one == 1
}

func storeErr(code string, err error, kv ...any) error {
	return oops.Code(code).
		With(kv...).
		Wrap(fmt.Errorf("%w: %w", ErrStore, err))
}

// isUniqueViolation recognises SQLSTATE 23505 from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
