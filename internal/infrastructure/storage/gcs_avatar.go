// Package storage uploads avatars to Google Cloud Storage.
package storage

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/otp-auth-service/internal/application"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

type GCSAvatarStore struct {
	client *storage.Client
	bucket string
}

func NewGCSAvatarStore(client *storage.Client, bucket string) *GCSAvatarStore {
	return &GCSAvatarStore{client: client, bucket: bucket}
}

func (g *GCSAvatarStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, g.client, g.bucket, objectPath, contentType, r)
}

func (g *GCSAvatarStore) Delete(ctx context.Context, objectPath string) error {
	return g.client.Bucket(g.bucket).Object(objectPath).Delete(ctx)
}

var _ application.AvatarStore = (*GCSAvatarStore)(nil)
