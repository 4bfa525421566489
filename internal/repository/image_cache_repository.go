package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

// ImageCacheRepository caches fetched encoded images in Redis so repeated
// browse sessions do not pull the same template art from origin.
type ImageCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewImageCacheRepository constructs an image cache repository.
func NewImageCacheRepository(client *redis.Client, logger *zap.Logger) *ImageCacheRepository {
	return &ImageCacheRepository{client: client, logger: logger}
}

func imageKey(uri string) string {
	sum := sha1.Sum([]byte(uri))
	return "img:" + hex.EncodeToString(sum[:])
}

// Get returns the cached encoded bytes for uri.
func (r *ImageCacheRepository) Get(ctx context.Context, uri string) ([]byte, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, imageKey(uri)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get image %s: %w", uri, err)
	}
	return raw, nil
}

// Set stores the encoded bytes for uri with the given TTL.
func (r *ImageCacheRepository) Set(ctx context.Context, uri string, data []byte, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	if err := r.client.Set(ctx, imageKey(uri), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set image %s: %w", uri, err)
	}
	return nil
}
