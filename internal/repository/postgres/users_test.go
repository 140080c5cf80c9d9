package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()
	user := domain.User{
		ID:           "user-123",
		Name:         "Jordan Example",
		Email:        "jordan@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		PasswordAlgo: "argon2id",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	mock.ExpectExec(`INSERT INTO accounts\.users`).
		WithArgs(
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.PasswordAlgo,
			(*time.Time)(nil),
			user.CreatedAt,
			user.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()
	verifiedAt := createdAt.Add(time.Minute)

	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "password_hash", "password_algo", "email_verified_at", "created_at", "updated_at",
	}).AddRow(
		"user-1", "Jordan Example", "jordan@example.com", "hash", "argon2id", &verifiedAt, createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .*FROM accounts\.users`).
		WithArgs("jordan@example.com").
		WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "jordan@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user id user-1, got %s", user.ID)
	}
	if user.EmailVerifiedAt == nil || !user.EmailVerifiedAt.Equal(verifiedAt) {
		t.Fatalf("expected verification timestamp populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	mock.ExpectQuery(`SELECT .*FROM accounts\.users`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "password_hash", "password_algo", "email_verified_at", "created_at", "updated_at",
		}))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdateProfileMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	updatedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs("New Name", "new@example.com", (*time.Time)(nil), updatedAt, "user-404").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateProfile(context.Background(), "user-404", "New Name", "new@example.com", nil, updatedAt)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DeleteRemovesCredentials(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepositoryWithExecutor(mock)

	createdAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .*FROM accounts\.users`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "password_hash", "password_algo", "email_verified_at", "created_at", "updated_at",
		}).AddRow(
			"user-1", "Jordan Example", "jordan@example.com", "hash", "argon2id", (*time.Time)(nil), createdAt, createdAt,
		))
	mock.ExpectExec(`DELETE FROM accounts\.auth_tokens`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM accounts\.password_reset_tokens`).
		WithArgs("jordan@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM accounts\.email_verification_tokens`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM accounts\.users`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	tokensRevoked, err := repo.Delete(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if tokensRevoked != 2 {
		t.Fatalf("expected 2 tokens revoked, got %d", tokensRevoked)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
