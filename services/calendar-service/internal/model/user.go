package model

import "time"

// User is a local projection of auth-service accounts, kept in sync by
// consuming user events. Friendship and appointment listings join against it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
}
