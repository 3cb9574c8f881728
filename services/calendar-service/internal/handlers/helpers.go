package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/schedule"
)

// identity is the authenticated caller as forwarded by the gateway.
type identity struct {
	ID    string
	Type  string // "employer" or "client"
	Name  string
	Email string
}

func callerIdentity(r *http.Request) identity {
	return identity{
		ID:    strings.TrimSpace(r.Header.Get("X-User-Id")),
		Type:  strings.TrimSpace(r.Header.Get("X-User-Type")),
		Name:  strings.TrimSpace(r.Header.Get("X-User-Name")),
		Email: strings.TrimSpace(r.Header.Get("X-User-Email")),
	}
}

// requireCaller rejects unauthenticated requests on endpoints the gateway
// exposes without mandatory auth.
func requireCaller(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id := callerIdentity(r)
	if id.ID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseDateParam parses a YYYY-MM-DD value in the given location.
func parseDateParam(raw string, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(schedule.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func calendarLocation(timezone string) *time.Location {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
