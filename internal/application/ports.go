package application

import (
	"context"
	"io"
	"time"
)

// Hasher is a one-way password hash.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer signs time-bounded bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
	ParseSubject(token string) (string, error)
}

// Notifier delivers a verification code out of band.
type Notifier interface {
	SendOTP(ctx context.Context, to, code, displayName string) error
}

// AccountIndex keeps a searchable directory of verified accounts.
type AccountIndex interface {
	Index(ctx context.Context, doc AccountDocument) error
	Search(ctx context.Context, query string, size int) ([]AccountDocument, error)
}

// AvatarStore persists profile pictures and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// AccountDocument is the directory view of an account.
type AccountDocument struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}
