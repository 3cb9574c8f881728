package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
)

type SettingsHandler struct {
	calendars *storage.CalendarRepository
	settings  *storage.SettingsRepository
	logger    *slog.Logger
}

func NewSettingsHandler(calendars *storage.CalendarRepository, settings *storage.SettingsRepository, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{calendars: calendars, settings: settings, logger: logger}
}

func (h *SettingsHandler) loadCalendar(w http.ResponseWriter, r *http.Request) (model.Calendar, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "calendar id is required", http.StatusBadRequest)
		return model.Calendar{}, false
	}
	cal, err := h.calendars.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "calendar not found", http.StatusNotFound)
			return model.Calendar{}, false
		}
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return model.Calendar{}, false
	}
	return cal, true
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.loadCalendar(w, r)
	if !ok {
		return
	}
	settings, err := h.settings.Get(r.Context(), cal.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			// Calendars created before settings rows became mandatory.
			writeJSON(w, http.StatusOK, model.DefaultSettings(cal.ID))
			return
		}
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update validates and replaces the calendar's settings as one document.
// Nothing is persisted when any part of the payload is invalid.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	cal, ok := h.loadCalendar(w, r)
	if !ok {
		return
	}
	if cal.EmployerID != caller.ID {
		http.Error(w, "not your calendar", http.StatusForbidden)
		return
	}

	var req model.SettingsInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	settings := req.Canonical(cal.ID)
	cfg, err := settings.ScheduleConfig()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loc := calendarLocation(cal.Timezone)
	if err := cfg.ValidateNoPastDates(time.Now(), loc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.settings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.settings.Upsert(ctx, tx, settings); err != nil {
		h.logger.Error("settings upsert failed", "err", err, "calendar_id", cal.ID)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.settings.Get(ctx, cal.ID)
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
