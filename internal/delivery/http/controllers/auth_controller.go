package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SignUpRequest is the request body for POST /auth/signup
type SignUpRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	WhatsAppNumber string `json:"whatsapp_number"`
}

// Validate implements Validator.
func (s SignUpRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	} else if len(s.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// OAuthCallbackRequest is the request body for POST /auth/oauth/callback.
// It carries the profile tuple the identity provider handed back.
type OAuthCallbackRequest struct {
	Provider    string `json:"provider"`
	ProviderID  string `json:"provider_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
}

// Validate implements Validator.
func (o OAuthCallbackRequest) Validate() []string {
	var errs []string
	provider := strings.TrimSpace(strings.ToLower(o.Provider))
	switch provider {
	case "":
		errs = append(errs, "provider is required")
	case domain.LoginMethodGoogle, domain.LoginMethodFacebook, domain.LoginMethodLinkedIn:
	default:
		errs = append(errs, "unsupported provider")
	}
	if strings.TrimSpace(o.ProviderID) == "" {
		errs = append(errs, "provider_id is required")
	}
	return errs
}

// PromoteRequest is the request body for POST /auth/promote.
type PromoteRequest struct {
	WhatsAppNumber string `json:"whatsapp_number"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	ProfileImage   string `json:"profile_image"`
}

// Validate implements Validator.
func (p PromoteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.WhatsAppNumber) == "" {
		errs = append(errs, "whatsapp_number is required")
	}
	return errs
}

// AuthResponse is the response body for signup, login, and OAuth callback.
type AuthResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	Account   *domain.Sender `json:"account"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// SignUp godoc
// @Summary Sign up with email and password
// @Description Create a full account with email, password, name, and optional WhatsApp number. Password is stored hashed.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Sign-up data"
// @Success 201 {object} helpers.APIResponse "data contains token and account"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	account, token, err := c.Service.SignUpWithEmail(r.Context(), req.Email, req.Password, req.FullName, req.WhatsAppNumber)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		Account:   account,
	})
}

// Login godoc
// @Summary Log in with email and password
// @Description Authenticate and receive a JWT carrying account id, contact, and role.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data contains token and account"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	account, token, err := c.Service.LoginWithEmail(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		Account:   account,
	})
}

// OAuthCallback godoc
// @Summary Complete a federated login
// @Description Map provider callback data to a full account, creating or linking as needed, and return a token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body OAuthCallbackRequest true "Provider profile"
// @Success 200 {object} helpers.APIResponse "data contains token and account"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/oauth/callback [post]
func (c *AuthController) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req OAuthCallbackRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile := &domain.OAuthProfile{
		Provider:    strings.TrimSpace(strings.ToLower(req.Provider)),
		ProviderID:  strings.TrimSpace(req.ProviderID),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
	}
	account, token, err := c.Service.LoginWithOAuth(r.Context(), profile)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		Account:   account,
	})
}

// Profile godoc
// @Summary Get the current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the account"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /auth/profile [get]
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	account, err := c.Service.Profile(r.Context(), claims.AccountID)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, account)
}

// Promote godoc
// @Summary Promote a light account to a full account
// @Description One-way and idempotent: promoting an already-promoted receiver returns the linked account.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PromoteRequest true "Contact and optional profile overrides"
// @Success 200 {object} helpers.APIResponse "data contains the full account"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /auth/promote [post]
func (c *AuthController) Promote(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var override *domain.ProfileSnapshot
	if req.Username != "" || req.FullName != "" || req.ProfileImage != "" {
		override = &domain.ProfileSnapshot{
			Username:     req.Username,
			FullName:     req.FullName,
			ProfileImage: req.ProfileImage,
		}
	}
	account, err := c.Service.PromoteReceiver(r.Context(), req.WhatsAppNumber, override)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, account)
}
