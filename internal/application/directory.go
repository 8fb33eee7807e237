package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/otp-auth-service/internal/domain/repository"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// UploadAvatar stores a profile picture and records its URL on the account.
func (s *Service) UploadAvatar(ctx context.Context, email string, r io.Reader, filename, contentType string) (acc *entity.Account, err error) {
	defer func() { s.record("upload_avatar", err) }()

	if s.avatars == nil {
		return nil, ErrAvatarsDisabled
	}
	a, err := findByEmail(ctx, s.repo, email)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", a.ID, uuid.NewString()+ext))
	url, err := s.avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	err = s.repo.WithTx(ctx, func(r repo.AccountRepository) error {
		cur, err := findByEmail(ctx, r, email)
		if err != nil {
			return err
		}
		cur.AvatarURL = url
		if err := r.Save(ctx, cur); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		acc = cur
		return nil
	})
	if err != nil {
		s.discardAvatar(ctx, objectPath)
		return nil, err
	}
	s.indexAccount(ctx, acc)
	return acc, nil
}

// discardAvatar removes an uploaded object whose URL never reached the account.
func (s *Service) discardAvatar(ctx context.Context, objectPath string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.avatars.Delete(ctx, objectPath); err != nil {
		s.logger.WithError(err).WithField("object", objectPath).Warn("orphaned avatar object left in storage")
	}
}

// SearchAccounts queries the directory of verified accounts. Without an
// index configured it returns an empty result.
func (s *Service) SearchAccounts(ctx context.Context, query string, size int) ([]AccountDocument, error) {
	if s.index == nil {
		return []AccountDocument{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	return s.index.Search(ctx, strings.TrimSpace(query), size)
}

// indexAccount is best effort: the directory may lag but never blocks
// a lifecycle operation.
func (s *Service) indexAccount(ctx context.Context, a *entity.Account) {
	if s.index == nil || a == nil || !a.Verified {
		return
	}
	if err := s.index.Index(ctx, ToDocument(a)); err != nil {
		s.logger.WithError(err).WithField("account_id", a.ID).Warn("account index failed")
	}
}

func ToDocument(a *entity.Account) AccountDocument {
	return AccountDocument{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		AvatarURL: a.AvatarURL,
		CreatedAt: a.CreatedAt,
	}
}
