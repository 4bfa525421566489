package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/catalog"
	"github.com/DepParmar/vyom/internal/models"
)

type templateSourceStub struct {
	templates []models.Template
	options   []int
	listErr   error
	optErr    error
	listCalls int
}

func (s *templateSourceStub) ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var rows []models.Template
	for _, t := range s.templates {
		if filter.SchoolID != "" && t.SchoolID != filter.SchoolID {
			continue
		}
		if filter.MaxMarks != nil && t.MaxMarks != *filter.MaxMarks {
			continue
		}
		rows = append(rows, t)
	}
	total := len(rows)
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(rows) {
			return nil, total, nil
		}
		end := start + filter.PageSize
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[start:end]
	}
	return rows, total, nil
}

func (s *templateSourceStub) ListMarksOptions(ctx context.Context, schoolID string) ([]int, error) {
	if s.optErr != nil {
		return nil, s.optErr
	}
	return s.options, nil
}

func catalogTemplates(n int) []models.Template {
	out := make([]models.Template, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Template{
			ID:       fmt.Sprintf("template-%d", i+1),
			SchoolID: "school-1",
			Name:     fmt.Sprintf("Template %d", i+1),
			Standard: 8,
			MaxMarks: 100,
		})
	}
	return out
}

func newBrowseServiceForTest(t *testing.T, source catalog.TemplateSource) *BrowseService {
	t.Helper()
	return NewBrowseService(source, nil, nil, zap.NewNop(), BrowseServiceConfig{PageSize: 3})
}

func TestBrowseServiceCreateFilteredSession(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(2), options: []int{50, 100}}
	svc := newBrowseServiceForTest(t, source)

	id, state, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{
		Mode:     "filtered",
		SchoolID: "school-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, catalog.ModeFiltered, state.Mode)
	assert.Equal(t, []int{50, 100}, state.Options)
	assert.Len(t, state.Templates, 2)
}

func TestBrowseServiceCreateSessionRejectsBadMode(t *testing.T) {
	svc := newBrowseServiceForTest(t, &templateSourceStub{})
	_, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "scrolling"})
	require.Error(t, err)
}

func TestBrowseServiceMarksBeforeSchool(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(2), options: []int{100}}
	svc := newBrowseServiceForTest(t, source)
	id, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "filtered"})
	require.NoError(t, err)

	marks := 100
	_, err = svc.UpdateFilters(context.Background(), id, UpdateBrowseFiltersRequest{MaxMarks: &marks})
	require.Error(t, err)
}

func TestBrowseServiceFiltersOnPaginatedSession(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(4)}
	svc := newBrowseServiceForTest(t, source)
	id, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "paginated"})
	require.NoError(t, err)

	school := "school-1"
	_, err = svc.UpdateFilters(context.Background(), id, UpdateBrowseFiltersRequest{SchoolID: &school})
	require.Error(t, err)
}

func TestBrowseServiceNextPageOnFilteredSession(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(2), options: []int{100}}
	svc := newBrowseServiceForTest(t, source)
	id, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{
		Mode:     "filtered",
		SchoolID: "school-1",
	})
	require.NoError(t, err)

	_, err = svc.NextPage(context.Background(), id)
	require.Error(t, err)
}

func TestBrowseServicePaginationAccumulatesAndExhausts(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(5)}
	svc := newBrowseServiceForTest(t, source)

	id, state, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "paginated"})
	require.NoError(t, err)
	assert.Len(t, state.Templates, 3)
	assert.Equal(t, 1, state.Page)
	assert.False(t, state.Exhausted)

	state, err = svc.NextPage(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, state.Templates, 5)
	assert.Equal(t, 2, state.Page)
	assert.True(t, state.Exhausted)

	calls := source.listCalls
	state, err = svc.NextPage(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, state.Templates, 5)
	assert.Equal(t, calls, source.listCalls)
}

func TestBrowseServiceFetchFailureKeepsPreviousList(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(5)}
	svc := newBrowseServiceForTest(t, source)

	id, state, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "paginated"})
	require.NoError(t, err)
	require.Len(t, state.Templates, 3)

	source.listErr = errors.New("catalog down")
	state, err = svc.NextPage(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, state.Templates, 3)
	assert.Equal(t, 1, state.Page)
	assert.NotEmpty(t, state.LastError)

	source.listErr = nil
	state, err = svc.NextPage(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, state.Templates, 5)
	assert.Empty(t, state.LastError)
}

func TestBrowseServiceFilterChangeReplacesList(t *testing.T) {
	templates := catalogTemplates(3)
	templates[2].MaxMarks = 50
	source := &templateSourceStub{templates: templates, options: []int{50, 100}}
	svc := newBrowseServiceForTest(t, source)

	id, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{
		Mode:     "filtered",
		SchoolID: "school-1",
	})
	require.NoError(t, err)

	marks := 50
	state, err := svc.UpdateFilters(context.Background(), id, UpdateBrowseFiltersRequest{MaxMarks: &marks})
	require.NoError(t, err)
	require.Len(t, state.Templates, 1)
	assert.Equal(t, "template-3", state.Templates[0].ID)
}

func TestBrowseServiceUnknownSession(t *testing.T) {
	svc := newBrowseServiceForTest(t, &templateSourceStub{})
	_, err := svc.GetSession(context.Background(), "missing")
	require.Error(t, err)
}

func TestBrowseServiceDeleteSession(t *testing.T) {
	source := &templateSourceStub{templates: catalogTemplates(1)}
	svc := newBrowseServiceForTest(t, source)
	id, _, err := svc.CreateSession(context.Background(), CreateBrowseSessionRequest{Mode: "paginated"})
	require.NoError(t, err)

	svc.DeleteSession(context.Background(), id)
	_, err = svc.GetSession(context.Background(), id)
	require.Error(t, err)
}

func TestBrowseSessionStoreExpiry(t *testing.T) {
	store := newBrowseSessionStore(10 * time.Millisecond)
	store.Save("session-1", catalog.NewBrowser(catalog.ModePaginated, &templateSourceStub{}, 3, zap.NewNop()))

	_, ok := store.Get("session-1")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = store.Get("session-1")
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}
