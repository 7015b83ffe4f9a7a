package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	CoverImage        string     `json:"cover_image"`
	InvitationMessage string     `json:"invitation_message"`
	StartAt           *time.Time `json:"start_at"`
	EndAt             *time.Time `json:"end_at"`
	IsPublic          bool       `json:"is_public"`
	ChatRoomID        string     `json:"chat_room_id"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartAt != nil && c.EndAt != nil && c.EndAt.Before(*c.StartAt) {
		errs = append(errs, "end_at must not be before start_at")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{id}.
// Absent fields are left unchanged.
type UpdateEventRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	CoverImage        *string    `json:"cover_image"`
	InvitationMessage *string    `json:"invitation_message"`
	StartAt           *time.Time `json:"start_at"`
	EndAt             *time.Time `json:"end_at"`
	IsPublic          *bool      `json:"is_public"`
	ChatRoomID        *string    `json:"chat_room_id"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	return errs
}

// AccessResponse reports the outcome of an access evaluation.
type AccessResponse struct {
	Allowed bool `json:"allowed"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create an event
// @Description Create an event owned by the authenticated full account. A unique invite code is assigned on creation.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := domain.NewEvent(strings.TrimSpace(req.Title), claims.AccountID, time.Now().UTC())
	event.Description = req.Description
	event.CoverImage = req.CoverImage
	event.InvitationMessage = req.InvitationMessage
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt
	event.IsPublic = req.IsPublic
	event.ChatRoomID = req.ChatRoomID
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetByID godoc
// @Summary Get an event by id
// @Description Return the event if the acting identity passes the access evaluation.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [get]
func (c *EventController) GetByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("id"), identity)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetByCode godoc
// @Summary Get an event by invite code
// @Description Look up an event by its share code, subject to the same access evaluation as lookup by id.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param code path string true "Event invite code"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/code/{code} [get]
func (c *EventController) GetByCode(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetEventByCode(r.Context(), strings.ToUpper(strings.TrimSpace(r.PathValue("code"))), identity)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListMine godoc
// @Summary List events owned by the current account
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [get]
func (c *EventController) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListEventsByOwner(r.Context(), claims.AccountID)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// Update godoc
// @Summary Update event metadata
// @Description Owner-only partial update. Owner, code, guests, and gallery cannot be changed through this endpoint.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("id"), claims.AccountID, domain.EventUpdate{
		Title:             req.Title,
		Description:       req.Description,
		CoverImage:        req.CoverImage,
		InvitationMessage: req.InvitationMessage,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
		IsPublic:          req.IsPublic,
		ChatRoomID:        req.ChatRoomID,
	})
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Archive godoc
// @Summary Archive an event
// @Description Owner-only soft delete. Archiving an already-archived event succeeds.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204 "archived"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [delete]
func (c *EventController) Archive(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.ArchiveEvent(r.Context(), r.PathValue("id"), claims.AccountID); err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAccess godoc
// @Summary Evaluate access for the current identity
// @Description Report whether the acting identity may view the event. Denial is reported as allowed=false, not an error.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains {allowed}"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/access [get]
func (c *EventController) CheckAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	allowed, err := c.Service.IsAccessAllowed(r.Context(), r.PathValue("id"), identity)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AccessResponse{Allowed: allowed})
}
