package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	"github.com/oksasatya/otp-auth-service/internal/domain/repository"
)

const uniqueViolation = "23505"

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AccountRepository struct {
	db   DB
	inTx bool
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id::text, email, first_name, last_name, gender, birth_date, password_hash,
	avatar_url, verified, otp, otp_generated_at, created_at, updated_at`

func (r *AccountRepository) Save(ctx context.Context, a *entity.Account) error {
	if a.ID == "" {
		return r.insert(ctx, a)
	}
	return r.update(ctx, a)
}

func (r *AccountRepository) insert(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, first_name, last_name, gender, birth_date, password_hash,
			avatar_url, verified, otp, otp_generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at, updated_at
	`, a.Email, a.FirstName, a.LastName, a.Gender, a.BirthDate, a.PasswordHash,
		a.AvatarURL, a.Verified, a.OTP, a.OTPGeneratedAt)

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *AccountRepository) update(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET email = $2, first_name = $3, last_name = $4, gender = $5, birth_date = $6,
			password_hash = $7, avatar_url = $8, verified = $9, otp = $10,
			otp_generated_at = $11, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, a.ID, a.Email, a.FirstName, a.LastName, a.Gender, a.BirthDate,
		a.PasswordHash, a.AvatarURL, a.Verified, a.OTP, a.OTPGeneratedAt)

	if err := row.Scan(&a.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID treats an ID that is not a UUID as a missing row.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uid.String())
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// WithTx runs fn in a transaction. Reads through the repository handed to
// fn take row locks; nested calls join the outer transaction.
func (r *AccountRepository) WithTx(ctx context.Context, fn func(repository.AccountRepository) error) (err error) {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&AccountRepository{db: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (*entity.Account, error) {
	if r.inTx {
		query += ` FOR UPDATE`
	}
	a := &entity.Account{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Gender, &a.BirthDate, &a.PasswordHash,
		&a.AvatarURL, &a.Verified, &a.OTP, &a.OTPGeneratedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	normalize(a)
	return a, nil
}

// normalize converts driver timestamps to UTC.
func normalize(a *entity.Account) {
	a.BirthDate = a.BirthDate.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if a.OTPGeneratedAt != nil {
		t := a.OTPGeneratedAt.UTC()
		a.OTPGeneratedAt = &t
	}
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	return err
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
