package service

import (
	"bytes"
	"context"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/imagecache"
	"github.com/DepParmar/vyom/internal/render"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type draftProvider interface {
	Draft(id string) (*composer.Draft, bool)
}

type backgroundResolver interface {
	Resolve(ctx context.Context, uri string) *imagecache.Handle
}

type photoOpener interface {
	Open(filename string) (*os.File, error)
}

// PosterOptions controls one rasterisation pass.
type PosterOptions struct {
	Scale    float64
	EmbedQR  bool
	ShareURL string
}

// RenderServiceConfig tunes rasterisation behaviour.
type RenderServiceConfig struct {
	ExportScale float64
	QRSize      int
}

// RenderService flattens drafts into poster bitmaps. The template
// background always resolves to an image, falling back to the shared
// placeholder, so a broken image URL degrades the poster instead of
// failing the render.
type RenderService struct {
	drafts     draftProvider
	images     backgroundResolver
	photos     photoOpener
	compositor *render.Compositor
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        RenderServiceConfig
}

// NewRenderService constructs a RenderService with sane defaults.
func NewRenderService(drafts draftProvider, images backgroundResolver, photos photoOpener, compositor *render.Compositor, metrics *MetricsService, logger *zap.Logger, cfg RenderServiceConfig) *RenderService {
	if cfg.ExportScale <= 0 {
		cfg.ExportScale = 3
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		drafts:     drafts,
		images:     images,
		photos:     photos,
		compositor: compositor,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// ExportScale reports the density multiplier used for gallery exports.
func (s *RenderService) ExportScale() float64 {
	return s.cfg.ExportScale
}

// Preview rasterises the draft at base density and returns the encoded PNG.
// The delete-control overlay is hidden for the capture; it comes back only
// when the render fails.
func (s *RenderService) Preview(ctx context.Context, draftID string) ([]byte, error) {
	draft, ok := s.drafts.Draft(draftID)
	if !ok {
		return nil, appErrors.ErrDraftExpired
	}
	snap := draft.Snapshot()
	overlayWasVisible := snap.OverlayVisible
	if overlayWasVisible {
		draft.SetOverlayVisible(false)
		snap.OverlayVisible = false
	}

	start := time.Now()
	img, err := s.RenderPoster(ctx, snap, PosterOptions{Scale: 1})
	if err != nil {
		if overlayWasVisible {
			draft.SetOverlayVisible(true)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRender("preview", time.Since(start))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preview")
	}
	return buf.Bytes(), nil
}

// RenderPoster flattens a draft snapshot into a bitmap at the requested
// density.
func (s *RenderService) RenderPoster(ctx context.Context, snap composer.State, opts PosterOptions) (image.Image, error) {
	scene := render.Scene{
		PhotoScale:   snap.Scale,
		PhotoOffsetX: snap.OffsetX,
		PhotoOffsetY: snap.OffsetY,
		StudentName:  snap.StudentName,
		UnitLabel:    snap.UnitLabel,
		Percentage:   snap.Percentage,
	}

	background := ""
	if snap.Template.ImageURL != nil {
		background = *snap.Template.ImageURL
	}
	scene.Background = s.images.Resolve(ctx, background).Image

	if snap.PhotoRef != "" && snap.PhotoState != composer.PhotoNone {
		if photo, err := s.openPhoto(snap.PhotoRef); err != nil {
			s.logger.Warn("draft photo unavailable, rendering without it",
				zap.String("draft_id", snap.ID), zap.String("ref", snap.PhotoRef), zap.Error(err))
		} else {
			scene.Photo = photo
		}
	}

	scene.Marks = make([]render.MarkRow, 0, len(snap.Subjects))
	for _, subject := range snap.Subjects {
		scene.Marks = append(scene.Marks, render.MarkRow{Subject: subject, Text: snap.Marks[subject]})
	}

	if opts.EmbedQR && opts.ShareURL != "" {
		qr, err := render.ShareQR(opts.ShareURL, s.cfg.QRSize)
		if err != nil {
			s.logger.Warn("share QR generation failed", zap.String("draft_id", snap.ID), zap.Error(err))
		} else {
			scene.QR = qr
		}
	}

	img, err := s.compositor.Render(scene, opts.Scale)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to render poster")
	}
	return img, nil
}

func (s *RenderService) openPhoto(ref string) (image.Image, error) {
	file, err := s.photos.Open(ref)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck
	return imaging.Decode(file)
}
