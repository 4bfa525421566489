package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/models"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type schoolRepoStub struct {
	schools []models.School
	listErr error
}

func (s *schoolRepoStub) List(ctx context.Context) ([]models.School, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.schools, nil
}

func (s *schoolRepoStub) FindByID(ctx context.Context, id string) (*models.School, error) {
	for i := range s.schools {
		if s.schools[i].ID == id {
			return &s.schools[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *schoolRepoStub) Create(ctx context.Context, school *models.School) error {
	school.ID = "school-new"
	s.schools = append(s.schools, *school)
	return nil
}

type templateRepoStub struct {
	templates  []models.Template
	options    []int
	listCalls  int
	marksCalls int
	listErr    error
}

func (s *templateRepoStub) List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.templates, len(s.templates), nil
}

func (s *templateRepoStub) ListMarksOptions(ctx context.Context, schoolID string) ([]int, error) {
	s.marksCalls++
	return s.options, nil
}

func (s *templateRepoStub) FindByID(ctx context.Context, id string) (*models.Template, error) {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return &s.templates[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *templateRepoStub) Create(ctx context.Context, template *models.Template) error {
	template.ID = "template-new"
	s.templates = append(s.templates, *template)
	return nil
}

func (s *templateRepoStub) Update(ctx context.Context, template *models.Template) error {
	for i := range s.templates {
		if s.templates[i].ID == template.ID {
			s.templates[i] = *template
			return nil
		}
	}
	return sql.ErrNoRows
}

type subjectRepoStub struct {
	subjects []models.Subject
}

func (s *subjectRepoStub) ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range s.subjects {
		if subject.SchoolID == schoolID {
			out = append(out, subject)
		}
	}
	return out, nil
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "subject-new"
	s.subjects = append(s.subjects, *subject)
	return nil
}

type catalogCacheStub struct {
	store    map[string][]byte
	patterns []string
}

func (c *catalogCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	if c.store == nil {
		return appErrors.ErrCacheMiss
	}
	payload, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *catalogCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.store == nil {
		c.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = payload
	return nil
}

func (c *catalogCacheStub) DeleteByPattern(_ context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

func newCatalogServiceForTest(t *testing.T) (*CatalogService, *schoolRepoStub, *templateRepoStub, *subjectRepoStub, *catalogCacheStub) {
	t.Helper()
	schools := &schoolRepoStub{schools: []models.School{{ID: "school-1", Name: "Greenfield"}}}
	templates := &templateRepoStub{
		templates: []models.Template{{ID: "template-1", SchoolID: "school-1", Name: "Unit Test", Standard: 8, MaxMarks: 100}},
		options:   []int{25, 50, 100},
	}
	subjects := &subjectRepoStub{subjects: []models.Subject{
		{ID: "subject-1", SchoolID: "school-1", Name: "Maths", StandardRange: "1-10"},
		{ID: "subject-2", SchoolID: "school-1", Name: "Sanskrit", StandardRange: "8-10"},
		{ID: "subject-3", SchoolID: "school-1", Name: "Drawing", StandardRange: "1-5"},
	}}
	cacheRepo := &catalogCacheStub{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewCatalogService(CatalogServiceParams{
		Schools:   schools,
		Templates: templates,
		Subjects:  subjects,
		Cache:     cacheSvc,
		Logger:    zap.NewNop(),
	})
	return svc, schools, templates, subjects, cacheRepo
}

func TestCatalogServiceListSchoolsCacheHit(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	ctx := context.Background()

	schools, hit, err := svc.ListSchools(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, schools, 1)
	assert.Equal(t, "Greenfield", schools[0].Name)

	again, hit, err := svc.ListSchools(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, schools, again)
}

func TestCatalogServiceListTemplatesCaching(t *testing.T) {
	svc, _, templates, _, _ := newCatalogServiceForTest(t)
	ctx := context.Background()
	filter := models.TemplateFilter{SchoolID: "school-1"}

	first, total, err := svc.ListTemplates(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, templates.listCalls)

	second, _, err := svc.ListTemplates(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, templates.listCalls)
	assert.Equal(t, first, second)
}

func TestCatalogServiceListTemplatesDistinctFiltersMiss(t *testing.T) {
	svc, _, templates, _, _ := newCatalogServiceForTest(t)
	ctx := context.Background()
	marks := 100

	_, _, err := svc.ListTemplates(ctx, models.TemplateFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	_, _, err = svc.ListTemplates(ctx, models.TemplateFilter{SchoolID: "school-1", MaxMarks: &marks})
	require.NoError(t, err)
	assert.Equal(t, 2, templates.listCalls)
}

func TestCatalogServiceListMarksOptionsCaching(t *testing.T) {
	svc, _, templates, _, _ := newCatalogServiceForTest(t)
	ctx := context.Background()

	options, err := svc.ListMarksOptions(ctx, "school-1")
	require.NoError(t, err)
	assert.Equal(t, []int{25, 50, 100}, options)
	assert.Equal(t, 1, templates.marksCalls)

	_, err = svc.ListMarksOptions(ctx, "school-1")
	require.NoError(t, err)
	assert.Equal(t, 1, templates.marksCalls)
}

func TestCatalogServiceListMarksOptionsRequiresSchool(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	_, err := svc.ListMarksOptions(context.Background(), "")
	require.Error(t, err)
}

func TestCatalogServiceFindTemplateNotFound(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	_, err := svc.FindTemplate(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCatalogServiceCreateTemplateInvalidatesListCache(t *testing.T) {
	svc, _, _, _, cacheRepo := newCatalogServiceForTest(t)
	ctx := context.Background()

	_, _, err := svc.ListTemplates(ctx, models.TemplateFilter{SchoolID: "school-1"})
	require.NoError(t, err)

	_, err = svc.CreateTemplate(ctx, CreateTemplateRequest{
		SchoolID: "school-1",
		Name:     "Term Two",
		Standard: 9,
		MaxMarks: 50,
	})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patterns, "catalog:templates:*")
}

func TestCatalogServiceCreateTemplateValidation(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	_, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		SchoolID: "school-1",
		Name:     "Bad Standard",
		Standard: 13,
		MaxMarks: 100,
	})
	require.Error(t, err)
}

func TestCatalogServiceCreateTemplateUnknownSchool(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	_, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		SchoolID: "missing",
		Name:     "Orphan",
		Standard: 5,
		MaxMarks: 100,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCatalogServiceUpdateTemplate(t *testing.T) {
	svc, _, templates, _, _ := newCatalogServiceForTest(t)
	updated, err := svc.UpdateTemplate(context.Background(), "template-1", UpdateTemplateRequest{
		Name:     "Renamed",
		Standard: 7,
		MaxMarks: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "Renamed", templates.templates[0].Name)
}

func TestCatalogServiceListSubjectsForStandard(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	subjects, err := svc.ListSubjectsFor(context.Background(), "school-1", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maths", "Sanskrit"}, subjects)

	subjects, err = svc.ListSubjectsFor(context.Background(), "school-1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maths", "Drawing"}, subjects)
}

func TestCatalogServiceListSubjectsForValidation(t *testing.T) {
	svc, _, _, _, _ := newCatalogServiceForTest(t)
	_, err := svc.ListSubjectsFor(context.Background(), "", 8)
	require.Error(t, err)
	_, err = svc.ListSubjectsFor(context.Background(), "school-1", 0)
	require.Error(t, err)
}

func TestCatalogServiceCreateSchool(t *testing.T) {
	svc, schools, _, _, _ := newCatalogServiceForTest(t)
	school, err := svc.CreateSchool(context.Background(), CreateSchoolRequest{Name: "Riverdale"})
	require.NoError(t, err)
	assert.NotEmpty(t, school.ID)
	assert.Len(t, schools.schools, 2)
}

func TestCatalogServiceCreateSubjectMapping(t *testing.T) {
	svc, _, _, subjects, _ := newCatalogServiceForTest(t)
	subject, err := svc.CreateSubjectMapping(context.Background(), CreateSubjectMappingRequest{
		SchoolID:      "school-1",
		Subject:       "Civics",
		StandardRange: "6-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "Civics", subject.Name)
	assert.Len(t, subjects.subjects, 4)
}
