package main

import (
	"strings"
	"testing"
)

func TestBuildMessageBooked(t *testing.T) {
	msg, err := buildMessage("calendar.appointment.booked.v1", map[string]any{
		"appointment_id":   "appt-1",
		"calendar_id":      "cal-1",
		"calendar_name":    "Consultorio",
		"business_name":    "Dra. Gomez",
		"client_email":     "bruno@example.com",
		"appointment_date": "2026-02-10",
		"appointment_time": "10:30",
	})
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}
	if msg.recipient != "bruno@example.com" {
		t.Errorf("recipient = %q", msg.recipient)
	}
	if msg.subjectID != "appt-1" || msg.calendarID != "cal-1" {
		t.Errorf("ids = %q / %q", msg.subjectID, msg.calendarID)
	}
	if !strings.Contains(msg.body, "Dra. Gomez") {
		t.Errorf("body should prefer business_name, got %q", msg.body)
	}
	if !strings.Contains(msg.body, "2026-02-10") || !strings.Contains(msg.body, "10:30") {
		t.Errorf("body missing date or time: %q", msg.body)
	}
}

func TestBuildMessageCancelled(t *testing.T) {
	msg, err := buildMessage("calendar.appointment.cancelled.v1", map[string]any{
		"appointment_id":   "appt-2",
		"client_email":     "bruno@example.com",
		"appointment_date": "2026-02-11",
		"appointment_time": "09:00",
	})
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}
	if msg.subject != "Appointment cancelled" {
		t.Errorf("subject = %q", msg.subject)
	}
	if !strings.Contains(msg.body, "cancelled") {
		t.Errorf("body = %q", msg.body)
	}
}

func TestBuildMessageFriendshipRequested(t *testing.T) {
	msg, err := buildMessage("calendar.friendship.requested.v1", map[string]any{
		"friendship_id":  "fr-1",
		"client_name":    "Bruno Diaz",
		"employer_email": "ana@example.com",
	})
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}
	if msg.recipient != "ana@example.com" {
		t.Errorf("recipient = %q", msg.recipient)
	}
	if !strings.Contains(msg.body, "Bruno Diaz") {
		t.Errorf("body = %q", msg.body)
	}
}

func TestBuildMessageRejectsIncompleteEvents(t *testing.T) {
	cases := []struct {
		name      string
		eventType string
		payload   map[string]any
	}{
		{"unknown type", "calendar.something.v1", map[string]any{}},
		{"booked without email", "calendar.appointment.booked.v1", map[string]any{"appointment_id": "a"}},
		{"friendship without id", "calendar.friendship.requested.v1", map[string]any{"employer_email": "x@example.com"}},
	}
	for _, tc := range cases {
		if _, err := buildMessage(tc.eventType, tc.payload); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
