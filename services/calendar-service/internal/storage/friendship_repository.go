package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
)

type FriendshipRepository struct {
	pool *db.Pool
}

func NewFriendshipRepository(pool *db.Pool) *FriendshipRepository {
	return &FriendshipRepository{pool: pool}
}

func (r *FriendshipRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func scanFriendship(row pgx.Row) (model.Friendship, error) {
	var f model.Friendship
	var respondedAt *time.Time
	err := row.Scan(&f.ID, &f.ClientID, &f.EmployerID, &f.Status, &f.CreatedAt, &respondedAt)
	if err != nil {
		return model.Friendship{}, err
	}
	f.RespondedAt = respondedAt
	return f, nil
}

// Create inserts a pending request. The unique (client_id, employer_id) pair
// makes a repeat request surface as a conflict.
func (r *FriendshipRepository) Create(ctx context.Context, clientID, employerID string) (model.Friendship, error) {
	return scanFriendship(r.pool.QueryRow(ctx, `
		INSERT INTO friendships (client_id, employer_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, client_id, employer_id, status, created_at, responded_at
	`, clientID, employerID))
}

func (r *FriendshipRepository) Get(ctx context.Context, id string) (model.Friendship, error) {
	return scanFriendship(r.pool.QueryRow(ctx, `
		SELECT id, client_id, employer_id, status, created_at, responded_at
		FROM friendships
		WHERE id = $1
	`, id))
}

func (r *FriendshipRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Friendship, error) {
	return scanFriendship(tx.QueryRow(ctx, `
		SELECT id, client_id, employer_id, status, created_at, responded_at
		FROM friendships
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *FriendshipRepository) Respond(ctx context.Context, tx pgx.Tx, id, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE friendships
		SET status = $2, responded_at = now()
		WHERE id = $1
	`, id, status)
	return err
}

// StatusFor returns the friendship between a client and an employer, or
// pgx.ErrNoRows when none was ever requested.
func (r *FriendshipRepository) StatusFor(ctx context.Context, clientID, employerID string) (model.Friendship, error) {
	return scanFriendship(r.pool.QueryRow(ctx, `
		SELECT id, client_id, employer_id, status, created_at, responded_at
		FROM friendships
		WHERE client_id = $1 AND employer_id = $2
	`, clientID, employerID))
}

// HasAccepted is the booking-time gate for approval-only calendars. It runs
// inside the booking transaction.
func (r *FriendshipRepository) HasAccepted(ctx context.Context, tx pgx.Tx, clientID, employerID string) (bool, error) {
	var ok bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE client_id = $1 AND employer_id = $2 AND status = 'accepted'
		)
	`, clientID, employerID).Scan(&ok)
	return ok, err
}

// ListPendingForEmployer returns the employer's inbox of requests, with the
// requesting client's details from the user projection.
func (r *FriendshipRepository) ListPendingForEmployer(ctx context.Context, employerID string) ([]model.FriendshipRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.client_id, f.employer_id, f.status, f.created_at, f.responded_at,
			COALESCE(u.full_name, ''), COALESCE(u.email, '')
		FROM friendships f
		LEFT JOIN users u ON u.id = f.client_id
		WHERE f.employer_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at
	`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FriendshipRequest
	for rows.Next() {
		var req model.FriendshipRequest
		var respondedAt *time.Time
		err := rows.Scan(&req.ID, &req.ClientID, &req.EmployerID, &req.Status,
			&req.CreatedAt, &respondedAt, &req.ClientName, &req.ClientEmail)
		if err != nil {
			return nil, err
		}
		req.RespondedAt = respondedAt
		out = append(out, req)
	}
	return out, rows.Err()
}

// ServiceListing is an accepted connection and the employer's calendars the
// client can now book.
type ServiceListing struct {
	FriendshipID string           `json:"friendship_id"`
	EmployerID   string           `json:"employer_id"`
	EmployerName string           `json:"employer_name"`
	Calendars    []model.Calendar `json:"calendars"`
}

func (r *FriendshipRepository) ListServicesForClient(ctx context.Context, clientID string) ([]ServiceListing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.employer_id, COALESCE(u.full_name, ''),
			c.id, c.employer_id, c.calendar_name, c.business_name, c.description,
			c.url_slug, c.category, c.province, c.city, c.timezone,
			c.requires_approval, c.is_active, c.created_at
		FROM friendships f
		LEFT JOIN users u ON u.id = f.employer_id
		JOIN calendars c ON c.employer_id = f.employer_id AND c.is_active
		WHERE f.client_id = $1 AND f.status = 'accepted'
		ORDER BY f.created_at, c.created_at
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceListing
	for rows.Next() {
		var friendshipID, employerID, employerName string
		var c model.Calendar
		err := rows.Scan(&friendshipID, &employerID, &employerName,
			&c.ID, &c.EmployerID, &c.CalendarName, &c.BusinessName, &c.Description,
			&c.URLSlug, &c.Category, &c.Province, &c.City, &c.Timezone,
			&c.RequiresApproval, &c.IsActive, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].FriendshipID != friendshipID {
			out = append(out, ServiceListing{
				FriendshipID: friendshipID,
				EmployerID:   employerID,
				EmployerName: employerName,
			})
		}
		last := &out[len(out)-1]
		last.Calendars = append(last.Calendars, c)
	}
	return out, rows.Err()
}

// Delete removes a friendship if the requester is one of its two parties.
func (r *FriendshipRepository) Delete(ctx context.Context, id, requesterID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM friendships
		WHERE id = $1 AND (client_id = $2 OR employer_id = $2)
	`, id, requesterID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
