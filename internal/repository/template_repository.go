package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DepParmar/vyom/internal/models"
)

// TemplateRepository manages persistence for poster templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns templates matching the provided filters plus the total count.
// A non-positive page size returns every matching row, which is how the
// filtered catalog view loads; otherwise rows are paged with a stable
// created_at, id ordering so successive pages never interleave.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.MaxMarks != nil {
		conditions = append(conditions, fmt.Sprintf("max_marks = $%d", len(args)+1))
		args = append(args, *filter.MaxMarks)
	}

	where := strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "name",
		"standard":   "standard",
		"max_marks":  "max_marks",
		"created_at": "created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	limit := ""
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		size := filter.PageSize
		if size > 100 {
			size = 100
		}
		limit = fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	query := fmt.Sprintf(`SELECT id, school_id, name, standard, max_marks, image_url, created_at, updated_at
        FROM templates WHERE %s ORDER BY %s %s, id ASC%s`, where, column, order, limit)

	var templates []models.Template
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM templates WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}
	return templates, total, nil
}

// ListMarksOptions returns the distinct max-marks values offered by a
// school, ascending.
func (r *TemplateRepository) ListMarksOptions(ctx context.Context, schoolID string) ([]int, error) {
	const query = `SELECT DISTINCT max_marks FROM templates WHERE school_id = $1 ORDER BY max_marks ASC`
	var options []int
	if err := r.db.SelectContext(ctx, &options, query, schoolID); err != nil {
		return nil, fmt.Errorf("list marks options: %w", err)
	}
	return options, nil
}

// FindByID fetches a template by ID.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.Template, error) {
	const query = `SELECT id, school_id, name, standard, max_marks, image_url, created_at, updated_at
        FROM templates WHERE id = $1`
	var template models.Template
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// Create inserts a new template record.
func (r *TemplateRepository) Create(ctx context.Context, template *models.Template) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now
	const query = `INSERT INTO templates (id, school_id, name, standard, max_marks, image_url, created_at, updated_at)
        VALUES (:id, :school_id, :name, :standard, :max_marks, :image_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update modifies an existing template.
func (r *TemplateRepository) Update(ctx context.Context, template *models.Template) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE templates SET school_id = :school_id, name = :name, standard = :standard,
        max_marks = :max_marks, image_url = :image_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}
