package storage

import (
	"context"
	"encoding/json"

	"github.com/agusroldan/turnospro/libs/db"
)

// Notification is one delivery attempt recorded for a consumed event.
// SubjectID is the appointment or friendship the message is about.
type Notification struct {
	EventType  string
	SubjectID  string
	CalendarID string
	Channel    string
	Recipient  string
	Payload    map[string]any
	Status     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (event_type, subject_id, calendar_id, channel, recipient, payload, status)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`, n.EventType, n.SubjectID, n.CalendarID, n.Channel, n.Recipient, payload, n.Status)
	return err
}
