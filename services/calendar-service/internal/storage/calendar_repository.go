package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
)

type CalendarRepository struct {
	pool *db.Pool
}

func NewCalendarRepository(pool *db.Pool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

func (r *CalendarRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const calendarColumns = `
	id, employer_id, calendar_name, business_name, description, url_slug,
	category, province, city, timezone, requires_approval, is_active, created_at`

func scanCalendar(row pgx.Row) (model.Calendar, error) {
	var c model.Calendar
	err := row.Scan(
		&c.ID,
		&c.EmployerID,
		&c.CalendarName,
		&c.BusinessName,
		&c.Description,
		&c.URLSlug,
		&c.Category,
		&c.Province,
		&c.City,
		&c.Timezone,
		&c.RequiresApproval,
		&c.IsActive,
		&c.CreatedAt,
	)
	return c, err
}

func (r *CalendarRepository) Create(ctx context.Context, tx pgx.Tx, c *model.Calendar) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO calendars
			(employer_id, calendar_name, business_name, description, url_slug,
			 category, province, city, timezone, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, c.EmployerID, c.CalendarName, c.BusinessName, c.Description, c.URLSlug,
		c.Category, c.Province, c.City, c.Timezone, c.RequiresApproval).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CalendarRepository) GetByID(ctx context.Context, id string) (model.Calendar, error) {
	return scanCalendar(r.pool.QueryRow(ctx, `
		SELECT`+calendarColumns+`
		FROM calendars
		WHERE id = $1
	`, id))
}

func (r *CalendarRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (model.Calendar, error) {
	return scanCalendar(tx.QueryRow(ctx, `
		SELECT`+calendarColumns+`
		FROM calendars
		WHERE id = $1
	`, id))
}

func (r *CalendarRepository) GetBySlug(ctx context.Context, slug string) (model.Calendar, error) {
	return scanCalendar(r.pool.QueryRow(ctx, `
		SELECT`+calendarColumns+`
		FROM calendars
		WHERE url_slug = $1 AND is_active
	`, slug))
}

// ListPublic returns active calendars for the public directory, optionally
// filtered by province and category.
func (r *CalendarRepository) ListPublic(ctx context.Context, province, category string, limit int) ([]model.Calendar, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	query := `
		SELECT` + calendarColumns + `
		FROM calendars
		WHERE is_active`
	var args []any
	if province = strings.TrimSpace(province); province != "" {
		args = append(args, province)
		query += fmt.Sprintf(" AND province = $%d", len(args))
	}
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCalendars(rows)
}

func (r *CalendarRepository) ListByEmployer(ctx context.Context, employerID string) ([]model.Calendar, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+calendarColumns+`
		FROM calendars
		WHERE employer_id = $1
		ORDER BY created_at DESC
	`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCalendars(rows)
}

func collectCalendars(rows pgx.Rows) ([]model.Calendar, error) {
	var out []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Locations lists the provinces and cities that currently have active
// calendars, for the public directory filters.
func (r *CalendarRepository) Locations(ctx context.Context) ([]model.Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT province, city
		FROM calendars
		WHERE is_active AND province <> ''
		ORDER BY province, city
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		var province, city string
		if err := rows.Scan(&province, &city); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Province != province {
			out = append(out, model.Location{Province: province})
		}
		if city != "" {
			last := &out[len(out)-1]
			last.Cities = append(last.Cities, city)
		}
	}
	return out, rows.Err()
}
