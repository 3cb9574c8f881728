package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	id, calendar_id, client_id, client_name, client_email,
	appointment_date::text, appointment_time, status, notes, cancelled_at, created_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&a.ID,
		&a.CalendarID,
		&a.ClientID,
		&a.ClientName,
		&a.ClientEmail,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.Status,
		&a.Notes,
		&cancelledAt,
		&a.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.CancelledAt = cancelledAt
	return a, nil
}

// Create inserts a confirmed appointment. The partial unique index on
// (calendar_id, appointment_date, appointment_time) for non-cancelled rows
// makes the losing side of a slot race surface as a conflict error.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(calendar_id, client_id, client_name, client_email,
			 appointment_date, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, a.CalendarID, a.ClientID, a.ClientName, a.ClientEmail,
		a.AppointmentDate, a.AppointmentTime, a.Status, a.Notes).Scan(&id, &a.CreatedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// TakenTimes returns the slot times already held on a date, cancelled
// bookings excluded.
func (r *AppointmentRepository) TakenTimes(ctx context.Context, calendarID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_time
		FROM appointments
		WHERE calendar_id = $1
			AND appointment_date = $2
			AND status <> 'cancelled'
		ORDER BY appointment_time
	`, calendarID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// TakenTimesByDate groups held slot times per date inside [from, to).
func (r *AppointmentRepository) TakenTimesByDate(ctx context.Context, calendarID, from, to string) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_date::text, appointment_time
		FROM appointments
		WHERE calendar_id = $1
			AND appointment_date >= $2
			AND appointment_date < $3
			AND status <> 'cancelled'
		ORDER BY appointment_date, appointment_time
	`, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := map[string][]string{}
	for rows.Next() {
		var date, t string
		if err := rows.Scan(&date, &t); err != nil {
			return nil, err
		}
		taken[date] = append(taken[date], t)
	}
	return taken, rows.Err()
}

func (r *AppointmentRepository) ListByCalendar(ctx context.Context, calendarID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE calendar_id = $1
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $2
	`, calendarID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) ListByCalendarAndClient(ctx context.Context, calendarID, clientID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE calendar_id = $1 AND client_id = $2
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $3
	`, calendarID, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByClient returns the client's bookings newest-first, enriched with the
// calendar and, when the projection has it, the employer's name.
func (r *AppointmentRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]model.ClientAppointment, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.calendar_id, a.client_id, a.client_name, a.client_email,
			a.appointment_date::text, a.appointment_time, a.status, a.notes,
			a.cancelled_at, a.created_at,
			c.calendar_name, c.business_name, c.url_slug,
			COALESCE(u.full_name, '')
		FROM appointments a
		JOIN calendars c ON c.id = a.calendar_id
		LEFT JOIN users u ON u.id = c.employer_id
		WHERE a.client_id = $1
		ORDER BY a.appointment_date DESC, a.appointment_time DESC
		LIMIT $2
	`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ClientAppointment
	for rows.Next() {
		var a model.ClientAppointment
		var cancelledAt *time.Time
		err := rows.Scan(
			&a.ID, &a.CalendarID, &a.ClientID, &a.ClientName, &a.ClientEmail,
			&a.AppointmentDate, &a.AppointmentTime, &a.Status, &a.Notes,
			&cancelledAt, &a.CreatedAt,
			&a.CalendarName, &a.BusinessName, &a.URLSlug,
			&a.EmployerName,
		)
		if err != nil {
			return nil, err
		}
		a.CancelledAt = cancelledAt
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, id string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled', cancelled_at = now()
		WHERE id = $1
		RETURNING cancelled_at
	`, id).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, id, status)
	return err
}

// CalendarOwner resolves the employer that owns the appointment's calendar.
func (r *AppointmentRepository) CalendarOwner(ctx context.Context, tx pgx.Tx, appointmentID string) (string, error) {
	var employerID string
	err := tx.QueryRow(ctx, `
		SELECT c.employer_id
		FROM appointments a
		JOIN calendars c ON c.id = a.calendar_id
		WHERE a.id = $1
	`, appointmentID).Scan(&employerID)
	return employerID, err
}
