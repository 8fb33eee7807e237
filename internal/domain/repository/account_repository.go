package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// AccountRepository defines the persistence operations for accounts.
//
// Save inserts when the account has no ID yet (assigning ID and CreatedAt)
// and updates otherwise. Email uniqueness is enforced by the store and
// reported as ErrDuplicateEmail.
//
// WithTx runs fn against a repository bound to a single transaction; reads
// made through it lock the returned rows until fn returns. A nil error from
// fn commits, anything else rolls back.
type AccountRepository interface {
	Save(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	WithTx(ctx context.Context, fn func(r AccountRepository) error) error
}
