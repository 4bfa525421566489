package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DepParmar/vyom/internal/models"
)

func TestSchoolRepositoryList(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM schools ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("s1", "Adarsh Vidyalaya", now, now).
			AddRow("s2", "Bright Future School", now, now))

	schools, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, schools, 2)
	assert.Equal(t, "Adarsh Vidyalaya", schools[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("INSERT INTO schools").
		WithArgs(sqlmock.AnyArg(), "Adarsh Vidyalaya", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	school := &models.School{Name: "Adarsh Vidyalaya"}
	require.NoError(t, repo.Create(context.Background(), school))
	assert.NotEmpty(t, school.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListBySchool(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE school_id = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "subject", "standard_range", "created_at"}).
			AddRow("sub1", "s1", "Math", "1-10", now).
			AddRow("sub2", "s1", "Sanskrit", "6-8", now))

	subjects, err := repo.ListBySchool(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Math", subjects[0].Name)
	assert.Equal(t, "6-8", subjects[1].StandardRange)
	assert.NoError(t, mock.ExpectationsWereMet())
}
