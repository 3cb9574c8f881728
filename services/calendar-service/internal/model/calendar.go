package model

import "time"

type Calendar struct {
	ID               string    `json:"id"`
	EmployerID       string    `json:"employer_id"`
	CalendarName     string    `json:"calendar_name"`
	BusinessName     string    `json:"business_name"`
	Description      string    `json:"description"`
	URLSlug          string    `json:"url_slug"`
	Category         string    `json:"category"`
	Province         string    `json:"province"`
	City             string    `json:"city"`
	Timezone         string    `json:"timezone"`
	RequiresApproval bool      `json:"requires_approval"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

type Location struct {
	Province string   `json:"province"`
	Cities   []string `json:"cities"`
}
