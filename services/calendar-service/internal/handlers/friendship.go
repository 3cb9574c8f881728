package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/outbox"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/storage"
)

type FriendshipHandler struct {
	friendships *storage.FriendshipRepository
	users       *storage.UserRepository
	outboxRepo  *outbox.Repository
	logger      *slog.Logger
}

func NewFriendshipHandler(friendships *storage.FriendshipRepository, users *storage.UserRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *FriendshipHandler {
	return &FriendshipHandler{
		friendships: friendships,
		users:       users,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

type friendshipRequestBody struct {
	EmployerID string `json:"employer_id"`
}

// Request lets a client ask an employer for booking access.
func (h *FriendshipHandler) Request(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Type != "client" {
		http.Error(w, "only clients can request connections", http.StatusForbidden)
		return
	}

	var req friendshipRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.EmployerID = strings.TrimSpace(req.EmployerID)
	if req.EmployerID == "" {
		http.Error(w, "employer_id is required", http.StatusBadRequest)
		return
	}
	if req.EmployerID == caller.ID {
		http.Error(w, "cannot request a connection with yourself", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	employer, err := h.users.Get(ctx, req.EmployerID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "employer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load employer", http.StatusInternalServerError)
		return
	}
	if employer.UserType != "employer" {
		http.Error(w, "employer not found", http.StatusNotFound)
		return
	}

	friendship, err := h.friendships.Create(ctx, caller.ID, req.EmployerID)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "connection request already exists", http.StatusConflict)
			return
		}
		h.logger.Error("create friendship failed", "err", err)
		http.Error(w, "failed to create request", http.StatusInternalServerError)
		return
	}

	h.publishFriendshipEvent(r, outbox.EventFriendshipRequested, friendship, map[string]any{
		"client_name":    caller.Name,
		"client_email":   caller.Email,
		"employer_email": employer.Email,
		"employer_name":  employer.FullName,
	})

	writeJSON(w, http.StatusCreated, friendship)
}

// ListRequests is the employer's inbox of pending requests.
func (h *FriendshipHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Type != "employer" {
		http.Error(w, "only employers have connection requests", http.StatusForbidden)
		return
	}

	requests, err := h.friendships.ListPendingForEmployer(r.Context(), caller.ID)
	if err != nil {
		http.Error(w, "failed to list requests", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []model.FriendshipRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

// Respond accepts or rejects a pending request. Only the employer it was
// addressed to may respond, and only once.
func (h *FriendshipHandler) Respond(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()

	tx, err := h.friendships.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	friendship, err := h.friendships.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load request", http.StatusInternalServerError)
		return
	}
	if friendship.EmployerID != caller.ID {
		http.Error(w, "not your request", http.StatusForbidden)
		return
	}
	if friendship.Status != model.FriendshipPending {
		http.Error(w, "request already responded", http.StatusConflict)
		return
	}

	status := model.FriendshipRejected
	if req.Accept {
		status = model.FriendshipAccepted
	}
	if err := h.friendships.Respond(ctx, tx, id, status); err != nil {
		http.Error(w, "failed to update request", http.StatusInternalServerError)
		return
	}

	if req.Accept {
		client, cerr := h.users.Get(ctx, friendship.ClientID)
		extra := map[string]any{"employer_name": caller.Name}
		if cerr == nil {
			extra["client_email"] = client.Email
			extra["client_name"] = client.FullName
		}
		payload := friendshipPayload(friendship, extra)
		payload["status"] = status
		body, merr := json.Marshal(payload)
		if merr == nil {
			if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
				AggregateType: "friendship",
				AggregateID:   friendship.ID,
				EventType:     outbox.EventFriendshipAccepted,
				Payload:       body,
			}); err != nil {
				http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	friendship.Status = status
	writeJSON(w, http.StatusOK, friendship)
}

// Status reports the caller's standing with an employer: pending, accepted,
// rejected, or none when no request was ever made.
func (h *FriendshipHandler) Status(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	employerID := strings.TrimSpace(r.PathValue("employer_id"))
	if employerID == "" {
		http.Error(w, "employer_id is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendships.StatusFor(r.Context(), caller.ID, employerID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusOK, map[string]any{
				"employer_id": employerID,
				"status":      model.FriendshipNone,
			})
			return
		}
		http.Error(w, "failed to load status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"friendship_id": friendship.ID,
		"employer_id":   employerID,
		"status":        friendship.Status,
	})
}

// MyServices lists the employers who accepted the caller, with their
// bookable calendars.
func (h *FriendshipHandler) MyServices(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	services, err := h.friendships.ListServicesForClient(r.Context(), caller.ID)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []storage.ServiceListing{}
	}
	writeJSON(w, http.StatusOK, services)
}

// Delete removes a connection. Either party can sever it.
func (h *FriendshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))

	deleted, err := h.friendships.Delete(r.Context(), id, caller.ID)
	if err != nil {
		http.Error(w, "failed to delete connection", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "connection not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func friendshipPayload(f model.Friendship, extra map[string]any) map[string]any {
	payload := map[string]any{
		"friendship_id": f.ID,
		"client_id":     f.ClientID,
		"employer_id":   f.EmployerID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

// publishFriendshipEvent writes a friendship event in its own transaction.
// Request creation is a single insert, so a separate outbox tx is fine; a
// lost event only delays the employer's notification.
func (h *FriendshipHandler) publishFriendshipEvent(r *http.Request, eventType string, f model.Friendship, extra map[string]any) {
	ctx := r.Context()
	payload := friendshipPayload(f, extra)
	payload["status"] = f.Status
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	tx, err := h.friendships.Begin(ctx)
	if err != nil {
		h.logger.Warn("friendship event skipped", "err", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "friendship",
		AggregateID:   f.ID,
		EventType:     eventType,
		Payload:       body,
	}); err != nil {
		h.logger.Warn("friendship event skipped", "err", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		h.logger.Warn("friendship event skipped", "err", err)
	}
}
