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

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// NewUserRepositoryWithExecutor constructs a repository backed by any executor,
// primarily for tests.
func NewUserRepositoryWithExecutor(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var userColumns = []string{
	"id",
	"name",
	"email",
	"password_hash",
	"password_algo",
	"email_verified_at",
	"created_at",
	"updated_at",
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	query := r.builder.Insert("accounts.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.PasswordAlgo,
			user.EmailVerifiedAt,
			user.CreatedAt,
			user.UpdatedAt,
		)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, pred squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("accounts.users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		user       domain.User
		verifiedAt *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.PasswordAlgo,
		&verifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.EmailVerifiedAt = verifiedAt

	return &user, nil
}

// UpdateProfile persists name and email changes together with the resolved
// verification timestamp.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string, verifiedAt *time.Time, updatedAt time.Time) error {
	stmt, args, err := r.builder.
		Update("accounts.users").
		Set("name", name).
		Set("email", email).
		Set("email_verified_at", verifiedAt).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash, passwordAlgo string, changedAt time.Time) error {
	stmt, args, err := r.builder.
		Update("accounts.users").
		Set("password_hash", passwordHash).
		Set("password_algo", passwordAlgo).
		Set("updated_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// MarkEmailVerified stamps the verification timestamp without touching other columns.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	stmt, args, err := r.builder.
		Update("accounts.users").
		Set("email_verified_at", verifiedAt).
		Set("updated_at", verifiedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark verified sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes the user row and every credential issued to it in a single
// transaction. It returns the number of bearer tokens revoked.
func (r *UserRepository) Delete(ctx context.Context, id string) (int, error) {
	beginner, ok := r.exec.(interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	})
	if !ok {
		return 0, fmt.Errorf("delete user: executor cannot begin transactions")
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := r.WithTx(tx).GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	tokensDeleted, err := r.deleteWhere(ctx, tx, "accounts.auth_tokens", squirrel.Eq{"user_id": id})
	if err != nil {
		return 0, err
	}

	if _, err := r.deleteWhere(ctx, tx, "accounts.password_reset_tokens", squirrel.Eq{"email": user.Email}); err != nil {
		return 0, err
	}

	if _, err := r.deleteWhere(ctx, tx, "accounts.email_verification_tokens", squirrel.Eq{"user_id": id}); err != nil {
		return 0, err
	}

	deleted, err := r.deleteWhere(ctx, tx, "accounts.users", squirrel.Eq{"id": id})
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete user tx: %w", err)
	}

	return tokensDeleted, nil
}

func (r *UserRepository) deleteWhere(ctx context.Context, tx pgx.Tx, table string, pred squirrel.Eq) (int, error) {
	stmt, args, err := r.builder.Delete(table).Where(pred).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete sql for %s: %w", table, err)
	}

	tag, err := tx.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.UserRepository = (*UserRepository)(nil)
