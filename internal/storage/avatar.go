// Package storage holds the avatar blob store backed by an S3
// compatible object store. Each user has exactly one avatar object,
// overwritten on every upload.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const avatarURLExpiry = 24 * time.Hour

// AvatarStore uploads and serves user avatar images.
type AvatarStore struct {
	client *minio.Client
	bucket string
}

// Config carries the object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewAvatarStore connects to the object store and ensures the avatar
// bucket exists.
func NewAvatarStore(ctx context.Context, cfg Config) (*AvatarStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &AvatarStore{client: client, bucket: cfg.Bucket}, nil
}

func avatarObjectName(userID int64) string {
	return fmt.Sprintf("avatars/%d", userID)
}

// Put replaces the user's avatar and returns a time-limited URL for it.
func (s *AvatarStore) Put(ctx context.Context, userID int64, r io.Reader, size int64, contentType string) (string, error) {
	name := avatarObjectName(userID)
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return s.URL(ctx, userID)
}

// URL returns a presigned URL for the user's avatar.
func (s *AvatarStore) URL(ctx context.Context, userID int64) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, avatarObjectName(userID), avatarURLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign avatar: %w", err)
	}
	return u.String(), nil
}

// Remove deletes the user's avatar. Removing a missing avatar is not an
// error.
func (s *AvatarStore) Remove(ctx context.Context, userID int64) error {
	return s.client.RemoveObject(ctx, s.bucket, avatarObjectName(userID), minio.RemoveObjectOptions{})
}
