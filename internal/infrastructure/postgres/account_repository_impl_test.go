package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	"github.com/oksasatya/otp-auth-service/internal/domain/repository"
)

var columns = []string{
	"id", "email", "first_name", "last_name", "gender", "birth_date", "password_hash",
	"avatar_url", "verified", "otp", "otp_generated_at", "created_at", "updated_at",
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewAccountRepository(mock)
}

func TestSave_Insert(t *testing.T) {
	mock, r := newMock(t)
	created := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("7f1c0c9e-2a55-4b43-9c1e-3b8f5d0c1a10", created, created))

	code := "042017"
	a := &entity.Account{Email: "ada@example.com", FirstName: "Ada"}
	a.IssueOTP(code, created)

	require.NoError(t, r.Save(context.Background(), a))
	assert.Equal(t, "7f1c0c9e-2a55-4b43-9c1e-3b8f5d0c1a10", a.ID)
	assert.Equal(t, created, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_InsertDuplicate(t *testing.T) {
	mock, r := newMock(t)
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	err := r.Save(context.Background(), &entity.Account{Email: "ada@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UpdateMissingRow(t *testing.T) {
	mock, r := newMock(t)
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs(anyArgs(11)...).
		WillReturnError(pgx.ErrNoRows)

	err := r.Save(context.Background(), &entity.Account{ID: "missing", Email: "ada@example.com"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	mock, r := newMock(t)
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	code := "042017"
	mock.ExpectQuery(`FROM accounts WHERE email = \$1$`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"id-1", "ada@example.com", "Ada", "Lovelace", "F",
			time.Date(1996, 5, 10, 0, 0, 0, 0, time.UTC), "hash", "", false, &code, &at, at, at,
		))

	a, err := r.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", a.ID)
	require.NotNil(t, a.OTP)
	assert.Equal(t, "042017", *a.OTP)
	require.NotNil(t, a.OTPGeneratedAt)
	assert.Equal(t, at, *a.OTPGeneratedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_VerifiedHasNoOTP(t *testing.T) {
	mock, r := newMock(t)
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM accounts WHERE email`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"id-1", "ada@example.com", "Ada", "Lovelace", "F",
			time.Date(1996, 5, 10, 0, 0, 0, 0, time.UTC), "hash", "", true, nil, nil, at, at,
		))

	a, err := r.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, a.Verified)
	assert.Nil(t, a.OTP)
	assert.Nil(t, a.OTPGeneratedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	mock, r := newMock(t)
	id := "0b7c2a4e-5f1d-4c39-9a0e-3d2f6b8e1c44"
	mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_MalformedIDSkipsQuery(t *testing.T) {
	mock, r := newMock(t)

	_, err := r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByEmail(t *testing.T) {
	mock, r := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := r.ExistsByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithTx_CommitLocksRows(t *testing.T) {
	mock, r := newMock(t)
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE email = \$1 FOR UPDATE`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"id-1", "ada@example.com", "Ada", "Lovelace", "F",
			time.Date(1996, 5, 10, 0, 0, 0, 0, time.UTC), "hash", "", true, nil, nil, at, at,
		))
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs(anyArgs(11)...).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(at.Add(time.Minute)))
	mock.ExpectCommit()

	err := r.WithTx(context.Background(), func(tx repository.AccountRepository) error {
		a, err := tx.GetByEmail(context.Background(), "ada@example.com")
		if err != nil {
			return err
		}
		a.FirstName = "Augusta"
		return tx.Save(context.Background(), a)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	mock, r := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := r.WithTx(context.Background(), func(repository.AccountRepository) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	mock, r := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := r.WithTx(context.Background(), func(tx repository.AccountRepository) error {
		return tx.WithTx(context.Background(), func(repository.AccountRepository) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
