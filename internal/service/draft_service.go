package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/models"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type draftCatalog interface {
	FindTemplate(ctx context.Context, id string) (*models.Template, error)
	ListSubjectsFor(ctx context.Context, schoolID string, standard int) ([]string, error)
}

type draftPhotoStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

type draftEntry struct {
	draft      *composer.Draft
	lastActive time.Time
}

// draftStore keeps live drafts in memory until their idle TTL elapses.
// Expired entries are dropped lazily on access and by the sweeper, which
// also reports the drafts it removed so their photos can be cleaned up.
type draftStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]*draftEntry
}

func newDraftStore(ttl time.Duration) *draftStore {
	return &draftStore{ttl: ttl, items: make(map[string]*draftEntry)}
}

func (s *draftStore) Save(id string, draft *composer.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &draftEntry{draft: draft, lastActive: time.Now()}
}

func (s *draftStore) Get(id string) (*composer.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if time.Since(entry.lastActive) > s.ttl {
		delete(s.items, id)
		return nil, false
	}
	entry.lastActive = time.Now()
	return entry.draft, true
}

func (s *draftStore) Delete(id string) (*composer.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return nil, false
	}
	delete(s.items, id)
	return entry.draft, true
}

func (s *draftStore) Sweep() []*composer.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*composer.Draft
	for id, entry := range s.items {
		if time.Since(entry.lastActive) > s.ttl {
			delete(s.items, id)
			removed = append(removed, entry.draft)
		}
	}
	return removed
}

func (s *draftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CreateDraftRequest holds payload for opening a poster draft.
type CreateDraftRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
}

// TransformPhotoRequest holds one pinch or drag step applied to the photo.
type TransformPhotoRequest struct {
	ScaleFactor float64 `json:"scale_factor" validate:"required,gt=0"`
	DX          float64 `json:"dx"`
	DY          float64 `json:"dy"`
}

// ApplyPromptRequest holds the result of a modal text prompt. A null value
// means the prompt was dismissed.
type ApplyPromptRequest struct {
	Field string  `json:"field" validate:"required,oneof=student_name unit_label"`
	Value *string `json:"value"`
}

// SetMarkRequest holds the raw mark text for a subject.
type SetMarkRequest struct {
	Value string `json:"value"`
}

// SetOverlayRequest toggles the delete-control overlay.
type SetOverlayRequest struct {
	Visible bool `json:"visible"`
}

// DraftServiceConfig tunes draft session behaviour.
type DraftServiceConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxPhotoBytes int64
}

// DraftService owns the in-memory poster drafts and the uploaded photos
// backing them. Destroying a draft, replacing its photo or letting it
// expire removes the orphaned photo file.
type DraftService struct {
	catalog   draftCatalog
	photos    draftPhotoStore
	store     *draftStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DraftServiceConfig
}

// NewDraftService constructs a DraftService with sane defaults.
func NewDraftService(catalog draftCatalog, photos draftPhotoStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DraftServiceConfig) *DraftService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}
	if cfg.MaxPhotoBytes <= 0 {
		cfg.MaxPhotoBytes = 8 * 1024 * 1024
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		catalog:   catalog,
		photos:    photos,
		store:     newDraftStore(cfg.SessionTTL),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// StartSweeper launches the background expiry loop. Expired drafts take
// their uploaded photos with them.
func (s *DraftService) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.store.Sweep()
				for _, draft := range removed {
					s.removePhoto(draft.Snapshot().PhotoRef)
				}
				if len(removed) > 0 {
					s.logger.Debug("drafts expired", zap.Int("count", len(removed)))
				}
				s.reportDrafts()
			}
		}
	}()
}

// CreateDraft opens a draft over a template, resolving the subjects that
// apply to the template's standard.
func (s *DraftService) CreateDraft(ctx context.Context, req CreateDraftRequest) (composer.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return composer.State{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}
	template, err := s.catalog.FindTemplate(ctx, req.TemplateID)
	if err != nil {
		return composer.State{}, err
	}
	subjects, err := s.catalog.ListSubjectsFor(ctx, template.SchoolID, template.Standard)
	if err != nil {
		return composer.State{}, err
	}
	draft := composer.NewDraft(uuid.NewString(), *template, subjects)
	s.store.Save(draft.ID(), draft)
	s.reportDrafts()
	return draft.Snapshot(), nil
}

// GetDraft returns the current draft state.
func (s *DraftService) GetDraft(ctx context.Context, id string) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	return draft.Snapshot(), nil
}

// AttachPhoto stores an uploaded photo and attaches it to the draft,
// replacing (and removing) any previously uploaded one.
func (s *DraftService) AttachPhoto(ctx context.Context, id, filename string, size int64, r io.Reader) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	if r == nil || size <= 0 {
		return composer.State{}, appErrors.Clone(appErrors.ErrValidation, "photo file is required")
	}
	if size > s.cfg.MaxPhotoBytes {
		return composer.State{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo exceeds %d bytes limit", s.cfg.MaxPhotoBytes))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return composer.State{}, appErrors.Clone(appErrors.ErrValidation, "unsupported photo type")
	}
	ref := fmt.Sprintf("photos/%s%s", uuid.NewString(), ext)
	if _, err := s.photos.SaveStream(ref, r); err != nil {
		return composer.State{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	previous := draft.Snapshot().PhotoRef
	draft.AttachPhoto(ref)
	if previous != "" && previous != ref {
		s.removePhoto(previous)
	}
	return draft.Snapshot(), nil
}

// TransformPhoto applies one pinch or drag step to the photo.
func (s *DraftService) TransformPhoto(ctx context.Context, id string, req TransformPhotoRequest) (composer.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return composer.State{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transform payload")
	}
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	if err := draft.ApplyTransform(req.ScaleFactor, req.DX, req.DY); err != nil {
		return composer.State{}, mapDraftError(err)
	}
	return draft.Snapshot(), nil
}

// RequestPhotoDelete enters the delete confirmation state.
func (s *DraftService) RequestPhotoDelete(ctx context.Context, id string) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	if err := draft.RequestDelete(); err != nil {
		return composer.State{}, mapDraftError(err)
	}
	return draft.Snapshot(), nil
}

// CancelPhotoDelete leaves the delete confirmation state unchanged.
func (s *DraftService) CancelPhotoDelete(ctx context.Context, id string) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	if err := draft.CancelDelete(); err != nil {
		return composer.State{}, mapDraftError(err)
	}
	return draft.Snapshot(), nil
}

// ConfirmPhotoDelete removes the photo from the draft and from storage.
func (s *DraftService) ConfirmPhotoDelete(ctx context.Context, id string) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	removed, err := draft.ConfirmDelete()
	if err != nil {
		return composer.State{}, mapDraftError(err)
	}
	s.removePhoto(removed)
	return draft.Snapshot(), nil
}

// ApplyPrompt applies a modal text edit to the named field.
func (s *DraftService) ApplyPrompt(ctx context.Context, id string, req ApplyPromptRequest) (composer.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return composer.State{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prompt payload")
	}
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	if err := draft.ApplyPrompt(composer.Field(req.Field), req.Value); err != nil {
		return composer.State{}, mapDraftError(err)
	}
	return draft.Snapshot(), nil
}

// SetMark records the raw mark text for a subject and reports the focus
// transition alongside the recomputed percentage.
func (s *DraftService) SetMark(ctx context.Context, id, subject string, req SetMarkRequest) (composer.MarkResult, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.MarkResult{}, err
	}
	result, err := draft.SetMark(subject, req.Value)
	if err != nil {
		return composer.MarkResult{}, mapDraftError(err)
	}
	return result, nil
}

// SetOverlay toggles the transient delete-control overlay.
func (s *DraftService) SetOverlay(ctx context.Context, id string, req SetOverlayRequest) (composer.State, error) {
	draft, err := s.findDraft(id)
	if err != nil {
		return composer.State{}, err
	}
	draft.SetOverlayVisible(req.Visible)
	return draft.Snapshot(), nil
}

// DestroyDraft discards a draft and its uploaded photo.
func (s *DraftService) DestroyDraft(ctx context.Context, id string) error {
	draft, ok := s.store.Delete(id)
	if !ok {
		return appErrors.ErrDraftExpired
	}
	s.removePhoto(draft.Snapshot().PhotoRef)
	s.reportDrafts()
	return nil
}

// Draft exposes the live draft for collaborating services.
func (s *DraftService) Draft(id string) (*composer.Draft, bool) {
	return s.store.Get(id)
}

func (s *DraftService) findDraft(id string) (*composer.Draft, error) {
	draft, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.ErrDraftExpired
	}
	return draft, nil
}

func (s *DraftService) removePhoto(ref string) {
	if ref == "" || s.photos == nil {
		return
	}
	if err := s.photos.Delete(ref); err != nil {
		s.logger.Warn("photo cleanup failed", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *DraftService) reportDrafts() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetActiveSessions("draft", s.store.Len())
}

func mapDraftError(err error) error {
	switch {
	case errors.Is(err, composer.ErrNoPhoto):
		return appErrors.Clone(appErrors.ErrValidation, "no photo attached")
	case errors.Is(err, composer.ErrDeletePending):
		return appErrors.Clone(appErrors.ErrConflict, "photo delete confirmation pending")
	case errors.Is(err, composer.ErrNoDeletePending):
		return appErrors.Clone(appErrors.ErrConflict, "no delete confirmation pending")
	case errors.Is(err, composer.ErrUnknownField):
		return appErrors.Clone(appErrors.ErrValidation, "unknown text field")
	case errors.Is(err, composer.ErrUnknownSubject):
		return appErrors.Clone(appErrors.ErrNotFound, "subject not on this template")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "draft update failed")
	}
}
