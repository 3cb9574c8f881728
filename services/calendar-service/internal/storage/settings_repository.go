package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
)

type SettingsRepository struct {
	pool *db.Pool
}

func NewSettingsRepository(pool *db.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const settingsQuery = `
	SELECT calendar_id, appointment_duration, buffer_time, blocked_dates,
		blocked_saturdays, blocked_sundays, working_hours, specific_date_hours, updated_at
	FROM calendar_settings
	WHERE calendar_id = $1`

func (r *SettingsRepository) Get(ctx context.Context, calendarID string) (model.CalendarSettings, error) {
	return scanSettings(r.pool.QueryRow(ctx, settingsQuery, calendarID))
}

// GetForUpdate locks the settings row so a booking sees a stable
// configuration for the duration of its transaction.
func (r *SettingsRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, calendarID string) (model.CalendarSettings, error) {
	return scanSettings(tx.QueryRow(ctx, settingsQuery+` FOR UPDATE`, calendarID))
}

func scanSettings(row pgx.Row) (model.CalendarSettings, error) {
	var s model.CalendarSettings
	var workingHours, specificHours []byte
	err := row.Scan(
		&s.CalendarID,
		&s.AppointmentDuration,
		&s.BufferTime,
		&s.BlockedDates,
		&s.BlockedSaturdays,
		&s.BlockedSundays,
		&workingHours,
		&specificHours,
		&s.UpdatedAt,
	)
	if err != nil {
		return model.CalendarSettings{}, err
	}
	if err := json.Unmarshal(workingHours, &s.WorkingHours); err != nil {
		return model.CalendarSettings{}, fmt.Errorf("decode working_hours: %w", err)
	}
	if err := json.Unmarshal(specificHours, &s.SpecificDateHours); err != nil {
		return model.CalendarSettings{}, fmt.Errorf("decode specific_date_hours: %w", err)
	}
	if s.BlockedDates == nil {
		s.BlockedDates = []string{}
	}
	return s, nil
}

// Upsert replaces the calendar's settings wholesale. Settings writes are
// full documents, not patches.
func (r *SettingsRepository) Upsert(ctx context.Context, tx pgx.Tx, s model.CalendarSettings) error {
	workingHours, err := json.Marshal(s.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working_hours: %w", err)
	}
	specificHours, err := json.Marshal(s.SpecificDateHours)
	if err != nil {
		return fmt.Errorf("encode specific_date_hours: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO calendar_settings
			(calendar_id, appointment_duration, buffer_time, blocked_dates,
			 blocked_saturdays, blocked_sundays, working_hours, specific_date_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (calendar_id) DO UPDATE SET
			appointment_duration = EXCLUDED.appointment_duration,
			buffer_time = EXCLUDED.buffer_time,
			blocked_dates = EXCLUDED.blocked_dates,
			blocked_saturdays = EXCLUDED.blocked_saturdays,
			blocked_sundays = EXCLUDED.blocked_sundays,
			working_hours = EXCLUDED.working_hours,
			specific_date_hours = EXCLUDED.specific_date_hours,
			updated_at = now()
	`, s.CalendarID, s.AppointmentDuration, s.BufferTime, s.BlockedDates,
		s.BlockedSaturdays, s.BlockedSundays, workingHours, specificHours)
	return err
}
