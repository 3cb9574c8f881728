package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
)

type CalendarHandler struct {
	calendars *storage.CalendarRepository
	settings  *storage.SettingsRepository
	logger    *slog.Logger
}

func NewCalendarHandler(calendars *storage.CalendarRepository, settings *storage.SettingsRepository, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, settings: settings, logger: logger}
}

type createCalendarRequest struct {
	CalendarName     string `json:"calendar_name"`
	BusinessName     string `json:"business_name"`
	Description      string `json:"description"`
	URLSlug          string `json:"url_slug"`
	Category         string `json:"category"`
	Province         string `json:"province"`
	City             string `json:"city"`
	Timezone         string `json:"timezone"`
	RequiresApproval bool   `json:"requires_approval"`
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Type != "employer" {
		http.Error(w, "only employers can create calendars", http.StatusForbidden)
		return
	}

	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CalendarName = strings.TrimSpace(req.CalendarName)
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.URLSlug = strings.TrimSpace(req.URLSlug)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.CalendarName == "" {
		http.Error(w, "calendar_name is required", http.StatusBadRequest)
		return
	}
	if req.Timezone == "" {
		req.Timezone = "America/Argentina/Buenos_Aires"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	slug := req.URLSlug
	if slug == "" {
		slug = slugify(req.CalendarName)
	}

	cal := &model.Calendar{
		EmployerID:       caller.ID,
		CalendarName:     req.CalendarName,
		BusinessName:     req.BusinessName,
		Description:      strings.TrimSpace(req.Description),
		Category:         strings.TrimSpace(req.Category),
		Province:         strings.TrimSpace(req.Province),
		City:             strings.TrimSpace(req.City),
		Timezone:         req.Timezone,
		RequiresApproval: req.RequiresApproval,
	}

	ctx := r.Context()
	// Retry once with a random suffix when the chosen slug is taken.
	for attempt := 0; attempt < 2; attempt++ {
		tx, err := h.calendars.Begin(ctx)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		cal.URLSlug = slug
		id, err := h.calendars.Create(ctx, tx, cal)
		if err == nil {
			if err := h.settings.Upsert(ctx, tx, model.DefaultSettings(id)); err != nil {
				_ = tx.Rollback(ctx)
				http.Error(w, "failed to initialize settings", http.StatusInternalServerError)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				http.Error(w, "failed to commit", http.StatusInternalServerError)
				return
			}
			created, err := h.calendars.GetByID(ctx, id)
			if err != nil {
				http.Error(w, "failed to load calendar", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, created)
			return
		}

		_ = tx.Rollback(ctx)
		if !storage.IsConflict(err) {
			h.logger.Error("create calendar failed", "err", err)
			http.Error(w, "failed to create calendar", http.StatusInternalServerError)
			return
		}
		if req.URLSlug != "" {
			// Caller asked for this exact slug; do not invent another.
			http.Error(w, "url_slug already in use", http.StatusConflict)
			return
		}
		slug = slugify(req.CalendarName) + "-" + randomSuffix()
	}
	http.Error(w, "url_slug already in use", http.StatusConflict)
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := callerIdentity(r)
	ctx := r.Context()

	// Employers see their own calendars; everyone else browses the public
	// directory, optionally filtered by province and category.
	if caller.ID != "" && caller.Type == "employer" {
		calendars, err := h.calendars.ListByEmployer(ctx, caller.ID)
		if err != nil {
			http.Error(w, "failed to list calendars", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, orEmptyCalendars(calendars))
		return
	}

	calendars, err := h.calendars.ListPublic(ctx,
		r.URL.Query().Get("province"),
		r.URL.Query().Get("category"), 0)
	if err != nil {
		http.Error(w, "failed to list calendars", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orEmptyCalendars(calendars))
}

func (h *CalendarHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		http.Error(w, "slug is required", http.StatusBadRequest)
		return
	}
	cal, err := h.calendars.GetBySlug(r.Context(), slug)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "calendar not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (h *CalendarHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.calendars.Locations(r.Context())
	if err != nil {
		http.Error(w, "failed to list locations", http.StatusInternalServerError)
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	writeJSON(w, http.StatusOK, locations)
}

func orEmptyCalendars(calendars []model.Calendar) []model.Calendar {
	if calendars == nil {
		return []model.Calendar{}
	}
	return calendars
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func randomSuffix() string {
	var buf [2]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
