package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/imagecache"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type imageFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type imageByteCache interface {
	Get(ctx context.Context, uri string) ([]byte, error)
	Set(ctx context.Context, uri string, data []byte, ttl time.Duration) error
}

// ImageServiceConfig tunes image resolution behaviour.
type ImageServiceConfig struct {
	RedisTTL          time.Duration
	PlaceholderWidth  int
	PlaceholderHeight int
}

// ImageService resolves image URIs through three tiers: the in-process LRU
// of decoded images, the Redis byte cache and finally the origin. Every
// failure path lands on a single shared placeholder handle, so a URI that
// failed once is retried on its next lookup instead of poisoning the cache.
type ImageService struct {
	lru         *imagecache.Cache
	bytes       imageByteCache
	fetcher     imageFetcher
	placeholder *imagecache.Handle
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ImageServiceConfig
}

// NewImageService constructs an ImageService with sane defaults.
func NewImageService(lru *imagecache.Cache, bytes imageByteCache, fetcher imageFetcher, metrics *MetricsService, logger *zap.Logger, cfg ImageServiceConfig) *ImageService {
	if cfg.RedisTTL <= 0 {
		cfg.RedisTTL = 6 * time.Hour
	}
	if cfg.PlaceholderWidth <= 0 {
		cfg.PlaceholderWidth = 360
	}
	if cfg.PlaceholderHeight <= 0 {
		cfg.PlaceholderHeight = 640
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		lru:         lru,
		bytes:       bytes,
		fetcher:     fetcher,
		placeholder: imagecache.NewPlaceholder(cfg.PlaceholderWidth, cfg.PlaceholderHeight),
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// Resolve returns the decoded image handle for uri. The handle is never nil:
// an empty URI or a failed fetch resolves to the shared placeholder.
func (s *ImageService) Resolve(ctx context.Context, uri string) *imagecache.Handle {
	if uri == "" {
		s.recordLookup("placeholder")
		return s.placeholder
	}
	if handle, ok := s.lru.Get(uri); ok {
		s.recordLookup("memory")
		return handle
	}
	if handle := s.resolveRedis(ctx, uri); handle != nil {
		s.recordLookup("redis")
		return handle
	}
	if handle := s.resolveOrigin(ctx, uri); handle != nil {
		s.recordLookup("origin")
		return handle
	}
	s.recordLookup("placeholder")
	return s.placeholder
}

// Placeholder exposes the shared placeholder handle.
func (s *ImageService) Placeholder() *imagecache.Handle {
	return s.placeholder
}

func (s *ImageService) resolveRedis(ctx context.Context, uri string) *imagecache.Handle {
	if s.bytes == nil {
		return nil
	}
	data, err := s.bytes.Get(ctx, uri)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("image byte cache get failed", zap.String("uri", uri), zap.Error(err))
		}
		return nil
	}
	img, err := imagecache.Decode(data)
	if err != nil {
		s.logger.Warn("cached image bytes undecodable", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	return s.lru.Insert(&imagecache.Handle{URI: uri, Image: img})
}

func (s *ImageService) resolveOrigin(ctx context.Context, uri string) *imagecache.Handle {
	if s.fetcher == nil {
		return nil
	}
	data, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		s.logger.Warn("image fetch failed", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	img, err := imagecache.Decode(data)
	if err != nil {
		s.logger.Warn("fetched image undecodable", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	if s.bytes != nil {
		if err := s.bytes.Set(ctx, uri, data, s.cfg.RedisTTL); err != nil {
			s.logger.Warn("image byte cache set failed", zap.String("uri", uri), zap.Error(err))
		}
	}
	return s.lru.Insert(&imagecache.Handle{URI: uri, Image: img})
}

func (s *ImageService) recordLookup(source string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordImageLookup(source)
}
