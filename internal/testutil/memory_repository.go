// Package testutil holds in-memory collaborators shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	"github.com/oksasatya/otp-auth-service/internal/domain/repository"
)

// MemoryAccountRepository is a map-backed repository.AccountRepository.
// Transactions are serialized and applied only when fn succeeds.
type MemoryAccountRepository struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	rows map[string]entity.Account

	// SaveErr, when set, is returned by every Save.
	SaveErr error
	Saves   int
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{rows: make(map[string]entity.Account)}
}

func (m *MemoryAccountRepository) Save(_ context.Context, a *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(m.rows, a)
}

func (m *MemoryAccountRepository) save(rows map[string]entity.Account, a *entity.Account) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for id, row := range rows {
		if row.Email == a.Email && id != a.ID {
			return repository.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.CreatedAt = now
	} else if _, ok := rows[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = now
	rows[a.ID] = clone(*a)
	m.Saves++
	return nil
}

func (m *MemoryAccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getByID(m.rows, id)
}

func (m *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getByEmail(m.rows, email)
}

func (m *MemoryAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *MemoryAccountRepository) WithTx(ctx context.Context, fn func(r repository.AccountRepository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	staged := make(map[string]entity.Account, len(m.rows))
	for k, v := range m.rows {
		staged[k] = clone(v)
	}
	m.mu.RUnlock()

	if err := fn(&memoryTx{parent: m, rows: staged}); err != nil {
		return err
	}
	m.mu.Lock()
	m.rows = staged
	m.mu.Unlock()
	return nil
}

// Put stores a fully formed account as-is, bypassing Save bookkeeping.
func (m *MemoryAccountRepository) Put(a entity.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.rows[a.ID] = clone(a)
}

// Get returns a copy of the stored row for assertions.
func (m *MemoryAccountRepository) Get(email string) (entity.Account, bool) {
	a, err := m.GetByEmail(context.Background(), email)
	if err != nil {
		return entity.Account{}, false
	}
	return *a, true
}

type memoryTx struct {
	parent *MemoryAccountRepository
	rows   map[string]entity.Account
}

func (t *memoryTx) Save(_ context.Context, a *entity.Account) error {
	return t.parent.save(t.rows, a)
}

func (t *memoryTx) GetByID(_ context.Context, id string) (*entity.Account, error) {
	return getByID(t.rows, id)
}

func (t *memoryTx) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	return getByEmail(t.rows, email)
}

func (t *memoryTx) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := getByEmail(t.rows, email)
	return err == nil, nil
}

func (t *memoryTx) WithTx(_ context.Context, fn func(r repository.AccountRepository) error) error {
	return fn(t)
}

func getByID(rows map[string]entity.Account, id string) (*entity.Account, error) {
	row, ok := rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(row)
	return &c, nil
}

func getByEmail(rows map[string]entity.Account, email string) (*entity.Account, error) {
	for _, row := range rows {
		if row.Email == email {
			c := clone(row)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func clone(a entity.Account) entity.Account {
	if a.OTP != nil {
		v := *a.OTP
		a.OTP = &v
	}
	if a.OTPGeneratedAt != nil {
		v := *a.OTPGeneratedAt
		a.OTPGeneratedAt = &v
	}
	return a
}

var _ repository.AccountRepository = (*MemoryAccountRepository)(nil)
