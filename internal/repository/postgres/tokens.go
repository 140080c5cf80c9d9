package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/core/port"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository wires a PostgreSQL-backed token repository.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// NewTokenRepositoryWithExecutor constructs a repository backed by any executor,
// primarily for tests.
func NewTokenRepositoryWithExecutor(exec pgExecutor) *TokenRepository {
	repo := &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// CreateAuthToken inserts a new bearer token row.
func (r *TokenRepository) CreateAuthToken(ctx context.Context, token domain.AuthToken) error {
	stmt, args, err := r.builder.
		Insert("accounts.auth_tokens").
		Columns("id", "user_id", "token_hash", "name", "ip", "user_agent", "created_at", "last_used_at").
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.Name,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.LastUsedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert auth token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert auth token: %w", err)
	}

	return nil
}

// GetAuthTokenByHash looks up a bearer token by its SHA-256 hash.
func (r *TokenRepository) GetAuthTokenByHash(ctx context.Context, hash string) (*domain.AuthToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "token_hash", "name", "ip", "user_agent", "created_at", "last_used_at").
		From("accounts.auth_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select auth token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.AuthToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Name,
		&token.IP,
		&token.UserAgent,
		&token.CreatedAt,
		&token.LastUsedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan auth token: %w", err)
	}

	return &token, nil
}

// TouchAuthToken records the last time the token authenticated a request.
func (r *TokenRepository) TouchAuthToken(ctx context.Context, id string, usedAt time.Time) error {
	stmt, args, err := r.builder.
		Update("accounts.auth_tokens").
		Set("last_used_at", usedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch auth token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("touch auth token: %w", err)
	}

	return nil
}

// DeleteAuthToken revokes a single bearer token.
func (r *TokenRepository) DeleteAuthToken(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("accounts.auth_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete auth token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete auth token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteAuthTokensForUser revokes every bearer token for the user except the
// optional keepID.
func (r *TokenRepository) DeleteAuthTokensForUser(ctx context.Context, userID, keepID string) (int, error) {
	query := r.builder.
		Delete("accounts.auth_tokens").
		Where(squirrel.Eq{"user_id": userID})
	if keepID != "" {
		query = query.Where(squirrel.NotEq{"id": keepID})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete user auth tokens sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete user auth tokens: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// CreatePasswordReset stores a reset token after discarding any previous token
// for the same email.
func (r *TokenRepository) CreatePasswordReset(ctx context.Context, token domain.PasswordResetToken) error {
	delStmt, delArgs, err := r.builder.
		Delete("accounts.password_reset_tokens").
		Where(squirrel.Eq{"email": token.Email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build supersede password reset sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, delStmt, delArgs...); err != nil {
		return fmt.Errorf("supersede password reset: %w", err)
	}

	stmt, args, err := r.builder.
		Insert("accounts.password_reset_tokens").
		Columns("id", "email", "token_hash", "created_at", "expires_at").
		Values(token.ID, token.Email, token.TokenHash, token.CreatedAt, token.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password reset sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}

	return nil
}

// GetPasswordResetByEmail retrieves the active reset token for an email.
func (r *TokenRepository) GetPasswordResetByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.
		Select("id", "email", "token_hash", "created_at", "expires_at").
		From("accounts.password_reset_tokens").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password reset sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.PasswordResetToken
	if err := row.Scan(&token.ID, &token.Email, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan password reset: %w", err)
	}

	return &token, nil
}

// ConsumePasswordReset removes a reset token so it cannot be replayed.
func (r *TokenRepository) ConsumePasswordReset(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("accounts.password_reset_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume password reset sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume password reset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateEmailVerification stores a verification token after discarding any
// previous token for the same user.
func (r *TokenRepository) CreateEmailVerification(ctx context.Context, token domain.EmailVerificationToken) error {
	delStmt, delArgs, err := r.builder.
		Delete("accounts.email_verification_tokens").
		Where(squirrel.Eq{"user_id": token.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build supersede email verification sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, delStmt, delArgs...); err != nil {
		return fmt.Errorf("supersede email verification: %w", err)
	}

	stmt, args, err := r.builder.
		Insert("accounts.email_verification_tokens").
		Columns("id", "user_id", "token_hash", "email", "created_at", "expires_at").
		Values(token.ID, token.UserID, token.TokenHash, token.Email, token.CreatedAt, token.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert email verification sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert email verification: %w", err)
	}

	return nil
}

// GetEmailVerificationByUser retrieves the pending verification token for a user.
func (r *TokenRepository) GetEmailVerificationByUser(ctx context.Context, userID string) (*domain.EmailVerificationToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "token_hash", "email", "created_at", "expires_at").
		From("accounts.email_verification_tokens").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select email verification sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.EmailVerificationToken
	if err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.Email, &token.CreatedAt, &token.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan email verification: %w", err)
	}

	return &token, nil
}

// ConsumeEmailVerification removes a verification token after use.
func (r *TokenRepository) ConsumeEmailVerification(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("accounts.email_verification_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume email verification sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume email verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
