package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/schedule"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
)

type AvailabilityHandler struct {
	calendars    *storage.CalendarRepository
	settings     *storage.SettingsRepository
	appointments *storage.AppointmentRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewAvailabilityHandler(calendars *storage.CalendarRepository, settings *storage.SettingsRepository, appointments *storage.AppointmentRepository, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		calendars:    calendars,
		settings:     settings,
		appointments: appointments,
		logger:       logger,
		now:          time.Now,
	}
}

// resolverFor loads the calendar's settings and builds a resolver. A broken
// configuration resolves to nil: the caller treats the calendar as having no
// availability rather than exposing bookable slots.
func (h *AvailabilityHandler) resolverFor(r *http.Request, cal model.Calendar) *schedule.Resolver {
	settings, err := h.settings.Get(r.Context(), cal.ID)
	if err != nil {
		if !storage.IsNotFound(err) {
			h.logger.Error("load settings failed", "err", err, "calendar_id", cal.ID)
			return nil
		}
		settings = model.DefaultSettings(cal.ID)
	}
	cfg, err := settings.ScheduleConfig()
	if err != nil {
		h.logger.Warn("calendar has invalid settings; treating as unavailable",
			"calendar_id", cal.ID, "err", err)
		return nil
	}
	resolver, err := schedule.NewResolver(cfg, calendarLocation(cal.Timezone))
	if err != nil {
		h.logger.Warn("calendar has invalid settings; treating as unavailable",
			"calendar_id", cal.ID, "err", err)
		return nil
	}
	return resolver
}

func (h *AvailabilityHandler) loadCalendar(w http.ResponseWriter, r *http.Request) (model.Calendar, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	cal, err := h.calendars.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "calendar not found", http.StatusNotFound)
			return model.Calendar{}, false
		}
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return model.Calendar{}, false
	}
	if !cal.IsActive {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return model.Calendar{}, false
	}
	return cal, true
}

// Slots returns the free slot times for one date: the configured grid minus
// slots already taken by non-cancelled appointments.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.loadCalendar(w, r)
	if !ok {
		return
	}

	loc := calendarLocation(cal.Timezone)
	date, ok := parseDateParam(r.URL.Query().Get("date"), loc)
	if !ok {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots := []string{}
	if resolver := h.resolverFor(r, cal); resolver != nil {
		dateKey := date.Format(schedule.DateLayout)
		taken, err := h.appointments.TakenTimes(r.Context(), cal.ID, dateKey)
		if err != nil {
			http.Error(w, "failed to load appointments", http.StatusInternalServerError)
			return
		}
		takenSet := map[string]bool{}
		for _, t := range taken {
			takenSet[t] = true
		}
		for _, s := range resolver.SlotsOn(date, h.now()) {
			if !takenSet[s] {
				slots = append(slots, s)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"calendar_id": cal.ID,
		"date":        date.Format(schedule.DateLayout),
		"slots":       slots,
	})
}

// Dates returns which days of a month still have at least one free slot.
func (h *AvailabilityHandler) Dates(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.loadCalendar(w, r)
	if !ok {
		return
	}

	month, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "month must be 1-12", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if err != nil || year < 2000 || year > 2100 {
		http.Error(w, "year is invalid", http.StatusBadRequest)
		return
	}

	loc := calendarLocation(cal.Timezone)
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)

	available := []string{}
	if resolver := h.resolverFor(r, cal); resolver != nil {
		taken, err := h.appointments.TakenTimesByDate(r.Context(), cal.ID,
			first.Format(schedule.DateLayout), next.Format(schedule.DateLayout))
		if err != nil {
			http.Error(w, "failed to load appointments", http.StatusInternalServerError)
			return
		}

		now := h.now()
		for day := first; day.Before(next); day = day.AddDate(0, 0, 1) {
			dateKey := day.Format(schedule.DateLayout)
			takenSet := map[string]bool{}
			for _, t := range taken[dateKey] {
				takenSet[t] = true
			}
			for _, s := range resolver.SlotsOn(day, now) {
				if !takenSet[s] {
					available = append(available, dateKey)
					break
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"calendar_id":     cal.ID,
		"month":           month,
		"year":            year,
		"available_dates": available,
	})
}
