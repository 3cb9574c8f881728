package model

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
	// FriendshipNone is never stored; it is the status reported when no row exists.
	FriendshipNone = "none"
)

type Friendship struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	EmployerID  string     `json:"employer_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// FriendshipRequest is a pending request as the employer sees it, with the
// requesting client's details attached.
type FriendshipRequest struct {
	Friendship
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}
