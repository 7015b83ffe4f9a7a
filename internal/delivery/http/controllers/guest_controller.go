package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

// AddGuestRequest is the request body for POST /events/{id}/guests.
// The snapshot fields seed the frozen profile for contacts that resolve to
// no existing account.
type AddGuestRequest struct {
	Contact      string `json:"contact"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	ProfileImage string `json:"profile_image"`
}

// Validate implements Validator.
func (a AddGuestRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Contact) == "" {
		errs = append(errs, "contact is required")
	}
	return errs
}

// AcceptGuestRequest is the request body for POST /events/{id}/guests/accept.
type AcceptGuestRequest struct {
	Contact string `json:"contact"`
}

// Validate implements Validator.
func (a AcceptGuestRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Contact) == "" {
		errs = append(errs, "contact is required")
	}
	return errs
}

// GuestListResponse is the paginated guest list.
type GuestListResponse struct {
	Guests     []domain.Guest         `json:"guests"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type GuestController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewGuestController(logger *slog.Logger, svc domain.EventService) *GuestController {
	return &GuestController{
		Logger:  logger,
		Service: svc,
	}
}

// Add godoc
// @Summary Invite a contact to an event
// @Description Owner-only. Idempotent by contact: inviting the same contact again returns the existing entry unchanged.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body AddGuestRequest true "Contact and optional profile seed"
// @Success 201 {object} helpers.APIResponse "data contains the guest entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/guests [post]
func (c *GuestController) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddGuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var fallback *domain.ProfileSnapshot
	if req.Username != "" || req.FullName != "" || req.ProfileImage != "" {
		fallback = &domain.ProfileSnapshot{
			Username:     req.Username,
			FullName:     req.FullName,
			ProfileImage: req.ProfileImage,
		}
	}
	guest, err := c.Service.AddGuest(r.Context(), r.PathValue("id"), claims.AccountID, req.Contact, fallback)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, guest)
}

// List godoc
// @Summary List an event's guests
// @Description Owner-only paginated view of the guest ledger.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains guests and pagination"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/guests [get]
func (c *GuestController) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	guests, total, err := c.Service.ListGuests(r.Context(), r.PathValue("id"), claims.AccountID, params)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, GuestListResponse{
		Guests:     guests,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// Accept godoc
// @Summary Accept an invitation
// @Description Mark the invitation for the contact as accepted, creating and linking a light account if the contact has none. Accepting an already-accepted invitation is a no-op.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body AcceptGuestRequest true "Contact accepting the invitation"
// @Success 200 {object} helpers.APIResponse "data contains the updated guest entry"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/guests/accept [post]
func (c *GuestController) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptGuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, err := c.Service.AcceptGuest(r.Context(), r.PathValue("id"), req.Contact)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guest)
}
