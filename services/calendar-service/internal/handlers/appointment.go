package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/outbox"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/schedule"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
)

type AppointmentHandler struct {
	appointments *storage.AppointmentRepository
	calendars    *storage.CalendarRepository
	settings     *storage.SettingsRepository
	friendships  *storage.FriendshipRepository
	outboxRepo   *outbox.Repository
	logger       *slog.Logger
	now          func() time.Time
}

func NewAppointmentHandler(
	appointments *storage.AppointmentRepository,
	calendars *storage.CalendarRepository,
	settings *storage.SettingsRepository,
	friendships *storage.FriendshipRepository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		calendars:    calendars,
		settings:     settings,
		friendships:  friendships,
		outboxRepo:   outboxRepo,
		logger:       logger,
		now:          time.Now,
	}
}

type createAppointmentRequest struct {
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes"`
}

// Create books a slot. The whole gate runs in one transaction: the settings
// row is locked, the slot grid is recomputed from it, the friendship rule is
// checked, and the insert relies on the partial unique index to reject a
// concurrent booking of the same slot.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Type != "client" {
		http.Error(w, "only clients can book appointments", http.StatusForbidden)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentDate = strings.TrimSpace(req.AppointmentDate)
	req.AppointmentTime = strings.TrimSpace(req.AppointmentTime)
	if _, err := schedule.ParseClock(req.AppointmentTime); err != nil {
		http.Error(w, "appointment_time must be HH:MM", http.StatusBadRequest)
		return
	}

	calendarID := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()

	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cal, err := h.calendars.GetByIDTx(ctx, tx, calendarID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "calendar not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}
	if !cal.IsActive {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	loc := calendarLocation(cal.Timezone)
	date, ok := parseDateParam(req.AppointmentDate, loc)
	if !ok {
		http.Error(w, "appointment_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	settings, err := h.settings.GetForUpdate(ctx, tx, cal.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			settings = model.DefaultSettings(cal.ID)
		} else {
			http.Error(w, "failed to load settings", http.StatusInternalServerError)
			return
		}
	}

	cfg, err := settings.ScheduleConfig()
	if err != nil {
		// Broken configuration never yields bookable slots.
		http.Error(w, "time slot not available", http.StatusConflict)
		return
	}
	resolver, err := schedule.NewResolver(cfg, loc)
	if err != nil {
		http.Error(w, "time slot not available", http.StatusConflict)
		return
	}
	if !resolver.HasSlot(date, req.AppointmentTime, h.now()) {
		http.Error(w, "time slot not available", http.StatusConflict)
		return
	}

	if cal.RequiresApproval {
		accepted, err := h.friendships.HasAccepted(ctx, tx, caller.ID, cal.EmployerID)
		if err != nil {
			http.Error(w, "failed to check access", http.StatusInternalServerError)
			return
		}
		if !accepted {
			// Stable token so callers can distinguish this from other 403s.
			http.Error(w, "friendship_required", http.StatusForbidden)
			return
		}
	}

	appt := &model.Appointment{
		CalendarID:      cal.ID,
		ClientID:        caller.ID,
		ClientName:      caller.Name,
		ClientEmail:     caller.Email,
		AppointmentDate: date.Format(schedule.DateLayout),
		AppointmentTime: req.AppointmentTime,
		Status:          model.AppointmentConfirmed,
		Notes:           strings.TrimSpace(req.Notes),
	}

	id, err := h.appointments.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot not available", http.StatusConflict)
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	appt.ID = id

	payload, err := json.Marshal(map[string]any{
		"appointment_id":   id,
		"calendar_id":      cal.ID,
		"calendar_name":    cal.CalendarName,
		"business_name":    cal.BusinessName,
		"employer_id":      cal.EmployerID,
		"client_id":        appt.ClientID,
		"client_name":      appt.ClientName,
		"client_email":     appt.ClientEmail,
		"appointment_date": appt.AppointmentDate,
		"appointment_time": appt.AppointmentTime,
		"timezone":         cal.Timezone,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     outbox.EventAppointmentBooked,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// ListForCalendar lists a calendar's bookings. The owning employer sees
// every row; a client sees only their own bookings on that calendar.
func (h *AppointmentHandler) ListForCalendar(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	cal, err := h.calendars.GetByID(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "calendar not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}

	var appts []model.Appointment
	switch {
	case cal.EmployerID == caller.ID:
		appts, err = h.appointments.ListByCalendar(r.Context(), cal.ID, 0)
	case caller.Type == "client":
		appts, err = h.appointments.ListByCalendarAndClient(r.Context(), cal.ID, caller.ID, 0)
	default:
		http.Error(w, "not your calendar", http.StatusForbidden)
		return
	}
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// ListMine is the client's booking history across calendars.
func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	appts, err := h.appointments.ListByClient(r.Context(), caller.ID, 0)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []model.ClientAppointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// Cancel frees a slot. Both parties may cancel: the client who booked or the
// employer who owns the calendar. Cancelling twice is a no-op.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()

	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appointments.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.ClientID != caller.ID {
		owner, err := h.appointments.CalendarOwner(ctx, tx, id)
		if err != nil || owner != caller.ID {
			http.Error(w, "not your appointment", http.StatusForbidden)
			return
		}
	}

	if appt.Status == model.AppointmentCancelled {
		writeJSON(w, http.StatusOK, appt)
		return
	}
	if appt.Status != model.AppointmentConfirmed {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.appointments.Cancel(ctx, tx, id)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"calendar_id":      appt.CalendarID,
		"client_id":        appt.ClientID,
		"client_name":      appt.ClientName,
		"client_email":     appt.ClientEmail,
		"appointment_date": appt.AppointmentDate,
		"appointment_time": appt.AppointmentTime,
		"cancelled_by":     caller.ID,
		"cancelled_at":     cancelledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentCancelled,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	appt.Status = model.AppointmentCancelled
	appt.CancelledAt = &cancelledAt
	writeJSON(w, http.StatusOK, appt)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus lets the owning employer mark a confirmed appointment as
// completed.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Status != model.AppointmentCompleted {
		http.Error(w, "status must be 'completed'", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()

	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appointments.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	owner, err := h.appointments.CalendarOwner(ctx, tx, id)
	if err != nil || owner != caller.ID {
		http.Error(w, "not your appointment", http.StatusForbidden)
		return
	}
	if appt.Status != model.AppointmentConfirmed {
		http.Error(w, "only confirmed appointments can be completed", http.StatusConflict)
		return
	}

	if err := h.appointments.UpdateStatus(ctx, tx, id, model.AppointmentCompleted); err != nil {
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	appt.Status = model.AppointmentCompleted
	writeJSON(w, http.StatusOK, appt)
}
