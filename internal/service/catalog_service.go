package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/catalog"
	"github.com/DepParmar/vyom/internal/models"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type catalogSchoolRepository interface {
	List(ctx context.Context) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
}

type catalogTemplateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error)
	ListMarksOptions(ctx context.Context, schoolID string) ([]int, error)
	FindByID(ctx context.Context, id string) (*models.Template, error)
	Create(ctx context.Context, template *models.Template) error
	Update(ctx context.Context, template *models.Template) error
}

type catalogSubjectRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// CreateSchoolRequest holds payload for registering schools.
type CreateSchoolRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateTemplateRequest holds payload for publishing marksheet templates.
type CreateTemplateRequest struct {
	SchoolID string  `json:"school_id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Standard int     `json:"standard" validate:"required,gte=1,lte=12"`
	MaxMarks int     `json:"max_marks" validate:"required,gte=1"`
	ImageURL *string `json:"image_url"`
}

// UpdateTemplateRequest holds payload for updating marksheet templates.
type UpdateTemplateRequest struct {
	Name     string  `json:"name" validate:"required"`
	Standard int     `json:"standard" validate:"required,gte=1,lte=12"`
	MaxMarks int     `json:"max_marks" validate:"required,gte=1"`
	ImageURL *string `json:"image_url"`
}

// CreateSubjectMappingRequest holds payload for mapping a subject to a standard range.
type CreateSubjectMappingRequest struct {
	SchoolID      string `json:"school_id" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	StandardRange string `json:"standard_range" validate:"required"`
}

type cachedTemplatePage struct {
	Items []models.Template `json:"items"`
	Total int               `json:"total"`
}

// CatalogServiceConfig tunes catalog behaviour.
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService serves schools, templates, marks options and subject mappings
// with Redis-backed read caching.
type CatalogService struct {
	schools   catalogSchoolRepository
	templates catalogTemplateRepository
	subjects  catalogSubjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CatalogServiceConfig
}

// CatalogServiceParams groups constructor dependencies.
type CatalogServiceParams struct {
	Schools   catalogSchoolRepository
	Templates catalogTemplateRepository
	Subjects  catalogSubjectRepository
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    CatalogServiceConfig
}

// NewCatalogService constructs a CatalogService with sane defaults.
func NewCatalogService(params CatalogServiceParams) *CatalogService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		schools:   params.Schools,
		templates: params.Templates,
		subjects:  params.Subjects,
		cache:     params.Cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// ListSchools returns every registered school ordered by name. The boolean
// reports whether the result came from cache.
func (s *CatalogService) ListSchools(ctx context.Context) ([]models.School, bool, error) {
	cacheKey := makeCatalogCacheKey("schools")
	var cached []models.School
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get schools cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	s.persistCatalogCache(ctx, cacheKey, schools)
	return schools, false, nil
}

// CreateSchool registers a school and invalidates the school listing cache.
func (s *CatalogService) CreateSchool(ctx context.Context, req CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school := &models.School{Name: req.Name}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("schools"))
	return school, nil
}

// ListTemplates returns templates matching the filter together with the total
// row count. A zero PageSize loads the complete filtered set.
func (s *CatalogService) ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error) {
	cacheKey := templateListCacheKey(filter)
	var cached cachedTemplatePage
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, 0, fmt.Errorf("get templates cache: %w", err)
		} else if hit {
			return cached.Items, cached.Total, nil
		}
	}
	templates, total, err := s.templates.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	s.persistCatalogCache(ctx, cacheKey, cachedTemplatePage{Items: templates, Total: total})
	return templates, total, nil
}

// ListMarksOptions returns the distinct max-marks values published for a school.
func (s *CatalogService) ListMarksOptions(ctx context.Context, schoolID string) ([]int, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}
	cacheKey := makeCatalogCacheKey("marks", schoolID)
	var cached []int
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, fmt.Errorf("get marks cache: %w", err)
		} else if hit {
			return cached, nil
		}
	}
	options, err := s.templates.ListMarksOptions(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks options")
	}
	s.persistCatalogCache(ctx, cacheKey, options)
	return options, nil
}

// FindTemplate returns a single template by id.
func (s *CatalogService) FindTemplate(ctx context.Context, id string) (*models.Template, error) {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// CreateTemplate publishes a new marksheet template for a school.
func (s *CatalogService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	template := &models.Template{
		SchoolID: req.SchoolID,
		Name:     req.Name,
		Standard: req.Standard,
		MaxMarks: req.MaxMarks,
		ImageURL: req.ImageURL,
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("templates")+":*")
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("marks", req.SchoolID))
	return template, nil
}

// UpdateTemplate modifies an existing template.
func (s *CatalogService) UpdateTemplate(ctx context.Context, id string, req UpdateTemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	template.Name = req.Name
	template.Standard = req.Standard
	template.MaxMarks = req.MaxMarks
	template.ImageURL = req.ImageURL
	if err := s.templates.Update(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("templates")+":*")
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("marks", template.SchoolID))
	return template, nil
}

// ListSubjectsFor resolves the ordered subject names applicable to a standard.
func (s *CatalogService) ListSubjectsFor(ctx context.Context, schoolID string, standard int) ([]string, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}
	if standard < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "standard must be positive")
	}
	mappings, err := s.loadSubjectMappings(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return catalog.SubjectsFor(mappings, standard), nil
}

// CreateSubjectMapping registers a subject with its standard range.
func (s *CatalogService) CreateSubjectMapping(ctx context.Context, req CreateSubjectMappingRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	subject := &models.Subject{
		SchoolID:      req.SchoolID,
		Name:          req.Subject,
		StandardRange: req.StandardRange,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject mapping")
	}
	s.invalidateCatalogCache(ctx, makeCatalogCacheKey("subjects", req.SchoolID))
	return subject, nil
}

func (s *CatalogService) loadSubjectMappings(ctx context.Context, schoolID string) ([]models.Subject, error) {
	cacheKey := makeCatalogCacheKey("subjects", schoolID)
	var cached []models.Subject
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, fmt.Errorf("get subjects cache: %w", err)
		} else if hit {
			return cached, nil
		}
	}
	mappings, err := s.subjects.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject mappings")
	}
	s.persistCatalogCache(ctx, cacheKey, mappings)
	return mappings, nil
}

func (s *CatalogService) persistCatalogCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidateCatalogCache(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil && s.logger != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func makeCatalogCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("catalog")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func templateListCacheKey(filter models.TemplateFilter) string {
	school := filter.SchoolID
	if school == "" {
		school = "any"
	}
	marks := "any"
	if filter.MaxMarks != nil {
		marks = strconv.Itoa(*filter.MaxMarks)
	}
	page := "all"
	size := "all"
	if filter.PageSize > 0 {
		p := filter.Page
		if p < 1 {
			p = 1
		}
		page = strconv.Itoa(p)
		size = strconv.Itoa(filter.PageSize)
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	sortOrder := filter.SortOrder
	if sortOrder == "" {
		sortOrder = "asc"
	}
	return makeCatalogCacheKey("templates", school, marks, page, size, sortBy, sortOrder)
}
