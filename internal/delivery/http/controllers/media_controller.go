package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

type MediaController struct {
	Logger *slog.Logger
	Signer domain.MediaSigner
}

func NewMediaController(logger *slog.Logger, signer domain.MediaSigner) *MediaController {
	return &MediaController{
		Logger: logger,
		Signer: signer,
	}
}

// Signature godoc
// @Summary Get a direct-upload authorization
// @Description Return a short-lived signature the client presents to the media host to upload into its own folder.
// @Tags media
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the upload authorization"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /cloud/signature [post]
func (c *MediaController) Signature(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	auth, err := c.Signer.Sign(claims.AccountID, time.Now().UTC())
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, auth)
}
