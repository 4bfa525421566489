package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/catalog"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type browseSession struct {
	browser    *catalog.Browser
	lastActive time.Time
}

// browseSessionStore keeps live browsers in memory until their idle TTL
// elapses. Expired entries are dropped lazily on access and by the sweeper.
type browseSessionStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]*browseSession
}

func newBrowseSessionStore(ttl time.Duration) *browseSessionStore {
	return &browseSessionStore{ttl: ttl, items: make(map[string]*browseSession)}
}

func (s *browseSessionStore) Save(id string, browser *catalog.Browser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &browseSession{browser: browser, lastActive: time.Now()}
}

func (s *browseSessionStore) Get(id string) (*catalog.Browser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if time.Since(session.lastActive) > s.ttl {
		delete(s.items, id)
		return nil, false
	}
	session.lastActive = time.Now()
	return session.browser, true
}

func (s *browseSessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *browseSessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.items {
		if time.Since(session.lastActive) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *browseSessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CreateBrowseSessionRequest holds payload for opening a browse session.
type CreateBrowseSessionRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=filtered paginated"`
	SchoolID string `json:"school_id"`
	MaxMarks *int   `json:"max_marks"`
}

// UpdateBrowseFiltersRequest holds payload for changing browse filters.
type UpdateBrowseFiltersRequest struct {
	SchoolID *string `json:"school_id"`
	MaxMarks *int    `json:"max_marks"`
}

// BrowseServiceConfig tunes browse session behaviour.
type BrowseServiceConfig struct {
	SessionTTL    time.Duration
	PageSize      int
	SweepInterval time.Duration
}

// BrowseService owns the in-memory browse sessions. Catalog fetch failures
// never tear a session down: the previous list is kept and the caller
// receives the unchanged snapshot, matching the tolerant refresh behaviour
// of the catalog browser itself.
type BrowseService struct {
	source    catalog.TemplateSource
	store     *browseSessionStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BrowseServiceConfig
}

// NewBrowseService constructs a BrowseService with sane defaults.
func NewBrowseService(source catalog.TemplateSource, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BrowseServiceConfig) *BrowseService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowseService{
		source:    source,
		store:     newBrowseSessionStore(cfg.SessionTTL),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// StartSweeper launches the background expiry loop. It stops when the
// context is cancelled.
func (s *BrowseService) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.store.Sweep(); removed > 0 {
					s.logger.Debug("browse sessions expired", zap.Int("count", removed))
				}
				s.reportSessions()
			}
		}
	}()
}

// CreateSession opens a browse session and performs the initial load: the
// school and marks filters for the filtered mode, the first page for the
// paginated mode.
func (s *BrowseService) CreateSession(ctx context.Context, req CreateBrowseSessionRequest) (string, catalog.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", catalog.State{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid browse session payload")
	}
	mode := catalog.Mode(req.Mode)
	browser := catalog.NewBrowser(mode, s.source, s.cfg.PageSize, s.logger)
	id := uuid.NewString()

	switch mode {
	case catalog.ModeFiltered:
		if req.SchoolID != "" {
			s.applyFetch(browser.SetSchool(ctx, req.SchoolID), "school", id)
			if req.MaxMarks != nil {
				s.applyFetch(browser.SetMarks(ctx, *req.MaxMarks), "marks", id)
			}
		}
	case catalog.ModePaginated:
		s.applyFetch(browser.NextPage(ctx), "page", id)
	}

	s.store.Save(id, browser)
	s.reportSessions()
	return id, browser.Snapshot(), nil
}

// GetSession returns the current snapshot for a live session.
func (s *BrowseService) GetSession(ctx context.Context, id string) (catalog.State, error) {
	browser, ok := s.store.Get(id)
	if !ok {
		return catalog.State{}, appErrors.Clone(appErrors.ErrNotFound, "browse session not found")
	}
	return browser.Snapshot(), nil
}

// UpdateFilters applies school and marks filter changes to a filtered
// session and returns the resulting snapshot.
func (s *BrowseService) UpdateFilters(ctx context.Context, id string, req UpdateBrowseFiltersRequest) (catalog.State, error) {
	browser, ok := s.store.Get(id)
	if !ok {
		return catalog.State{}, appErrors.Clone(appErrors.ErrNotFound, "browse session not found")
	}
	if req.SchoolID != nil {
		if err := browser.SetSchool(ctx, *req.SchoolID); err != nil {
			if errors.Is(err, catalog.ErrModeMismatch) {
				return catalog.State{}, appErrors.Clone(appErrors.ErrValidation, "filters apply to filtered sessions only")
			}
			s.applyFetch(err, "school", id)
		}
	}
	if req.MaxMarks != nil {
		if err := browser.SetMarks(ctx, *req.MaxMarks); err != nil {
			switch {
			case errors.Is(err, catalog.ErrModeMismatch):
				return catalog.State{}, appErrors.Clone(appErrors.ErrValidation, "filters apply to filtered sessions only")
			case errors.Is(err, catalog.ErrNoSchool):
				return catalog.State{}, appErrors.Clone(appErrors.ErrValidation, "select a school before marks")
			default:
				s.applyFetch(err, "marks", id)
			}
		}
	}
	return browser.Snapshot(), nil
}

// NextPage loads the next page for a paginated session and returns the
// resulting snapshot. Calls during an in-flight fetch or past the end of
// the catalog return the unchanged snapshot.
func (s *BrowseService) NextPage(ctx context.Context, id string) (catalog.State, error) {
	browser, ok := s.store.Get(id)
	if !ok {
		return catalog.State{}, appErrors.Clone(appErrors.ErrNotFound, "browse session not found")
	}
	if err := browser.NextPage(ctx); err != nil {
		if errors.Is(err, catalog.ErrModeMismatch) {
			return catalog.State{}, appErrors.Clone(appErrors.ErrValidation, "paging applies to paginated sessions only")
		}
		s.applyFetch(err, "page", id)
	}
	return browser.Snapshot(), nil
}

// DeleteSession discards a session.
func (s *BrowseService) DeleteSession(ctx context.Context, id string) {
	s.store.Delete(id)
	s.reportSessions()
}

// applyFetch implements the tolerant failure policy for catalog fetches. A
// superseded fetch is the expected outcome of rapid filter changes; a
// failed fetch is logged and the session keeps its previous list.
func (s *BrowseService) applyFetch(err error, op, sessionID string) {
	if err == nil || errors.Is(err, catalog.ErrSuperseded) {
		return
	}
	s.logger.Warn("catalog fetch failed, keeping previous list",
		zap.String("op", op), zap.String("session_id", sessionID), zap.Error(err))
}

func (s *BrowseService) reportSessions() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetActiveSessions("browse", s.store.Len())
}
