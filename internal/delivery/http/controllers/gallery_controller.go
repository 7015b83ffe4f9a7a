package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

// AddGalleryImageRequest is the request body for POST /events/{id}/gallery.
// The URL points at an already-uploaded asset; this service never touches
// image bytes.
type AddGalleryImageRequest struct {
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (a AddGalleryImageRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.URL) == "" {
		errs = append(errs, "url is required")
	}
	if a.Width < 0 || a.Height < 0 {
		errs = append(errs, "width and height must not be negative")
	}
	return errs
}

type GalleryController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewGalleryController(logger *slog.Logger, svc domain.EventService) *GalleryController {
	return &GalleryController{
		Logger:  logger,
		Service: svc,
	}
}

// Add godoc
// @Summary Add an image to an event's gallery
// @Description The uploader must pass the event access evaluation. The uploader reference is taken from the token, never from the body.
// @Tags gallery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body AddGalleryImageRequest true "Image metadata"
// @Success 201 {object} helpers.APIResponse "data contains the gallery entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/gallery [post]
func (c *GalleryController) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddGalleryImageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	img, err := c.Service.AddGalleryImage(r.Context(), r.PathValue("id"), identity, domain.GalleryImage{
		URL:         strings.TrimSpace(req.URL),
		Width:       req.Width,
		Height:      req.Height,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, img)
}

// Like godoc
// @Summary Like a gallery image
// @Tags gallery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param imageID path string true "Gallery image ID"
// @Success 200 {object} helpers.APIResponse "data contains the updated gallery entry"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/gallery/{imageID}/like [post]
func (c *GalleryController) Like(w http.ResponseWriter, r *http.Request) {
	img, err := c.Service.LikeGalleryImage(r.Context(), r.PathValue("id"), r.PathValue("imageID"))
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, img)
}

// Delete godoc
// @Summary Delete a gallery image
// @Description Soft delete, allowed for the event owner or the image uploader. The entry stays in storage flagged deleted.
// @Tags gallery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param imageID path string true "Gallery image ID"
// @Success 204 "deleted"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/gallery/{imageID} [delete]
func (c *GalleryController) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteGalleryImage(r.Context(), r.PathValue("id"), r.PathValue("imageID"), identity); err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
