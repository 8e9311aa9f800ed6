package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/honeynil/RecipeService/internal/models"
	repository "github.com/honeynil/RecipeService/internal/repository/postgres"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

const userID = "3f1c9a52-6d1e-4c7b-9a57-2b8f0a4e1d11"

func TestPostgresUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("NilUser", func(t *testing.T) {
		err := repo.Create(ctx, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNilUser)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingPasswordHash", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Name: "A", Email: "a@example.com"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "password_hash is required")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		user := &models.User{Name: "A", Email: "a@example.com", PasswordHash: "hash"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(sqlmock.AnyArg(), user.Name, user.Email, user.PasswordHash).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, pkgerrors.ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		user := &models.User{Name: "A", Email: "b@example.com", PasswordHash: "hash"}
		createdAt := time.Now().UTC()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`)).
			WithArgs(sqlmock.AnyArg(), user.Name, user.Email, user.PasswordHash).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, createdAt, user.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		user := &models.User{Name: "A", Email: "c@example.com", PasswordHash: "hash"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(ctx, user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, email, created_at FROM users WHERE id = $1`)

	t.Run("Success", func(t *testing.T) {
		createdAt := time.Now().UTC()
		mock.ExpectQuery(query).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
				AddRow(userID, "Alice", "alice@example.com", createdAt))

		user, err := repo.GetByID(ctx, userID)
		assert.NoError(t, err)
		assert.Equal(t, &models.User{ID: userID, Name: "Alice", Email: "alice@example.com", CreatedAt: createdAt}, user)
		assert.Empty(t, user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MalformedID", func(t *testing.T) {
		user, err := repo.GetByID(ctx, "not-a-uuid")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(ctx, userID)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnError(fmt.Errorf("database error"))

		user, err := repo.GetByID(ctx, userID)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "failed to get user by id")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`)

	t.Run("Success", func(t *testing.T) {
		createdAt := time.Now().UTC()
		mock.ExpectQuery(query).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
				AddRow(userID, "Alice", "alice@example.com", "hash", createdAt))

		user, err := repo.GetByEmail(ctx, "alice@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		user, err := repo.GetByEmail(ctx, "")
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "email cannot be empty")
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
