// Package gcsblob implements the gateway blob storage on Google Cloud Storage.
package gcsblob

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
)

type Storage struct {
	client *gcs.Client
}

func New(ctx context.Context) (*Storage, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Storage{client: c}, nil
}

func (s *Storage) Close() error { return s.client.Close() }

func (s *Storage) Upload(ctx context.Context, bucket, path, contentType string, r io.Reader) error {
	obj := s.client.Bucket(bucket).Object(path)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return gateway.E(gateway.KindUnavailable, "upload "+path, err)
	}
	if err := w.Close(); err != nil {
		return gateway.E(gateway.KindUnavailable, "upload "+path, err)
	}

	// objects are served publicly to the frontend
	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return gateway.E(gateway.KindPermissionDenied, "publish "+path, err)
	}
	return nil
}

func (s *Storage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path)
}
