package model

import "time"

const (
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID              string     `json:"id"`
	CalendarID      string     `json:"calendar_id"`
	ClientID        string     `json:"client_id"`
	ClientName      string     `json:"client_name"`
	ClientEmail     string     `json:"client_email"`
	AppointmentDate string     `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string     `json:"appointment_time"` // HH:MM
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ClientAppointment is an appointment as seen by the client who booked it,
// enriched with the calendar it belongs to.
type ClientAppointment struct {
	Appointment
	CalendarName string `json:"calendar_name"`
	BusinessName string `json:"business_name"`
	URLSlug      string `json:"url_slug"`
	EmployerName string `json:"employer_name,omitempty"`
}
