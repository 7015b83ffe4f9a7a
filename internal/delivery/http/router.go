package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"invitease/internal/delivery/http/controllers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/domain"
)

// Controllers bundles the route handlers the router wires up.
type Controllers struct {
	Auth    *controllers.AuthController
	Event   *controllers.EventController
	Guest   *controllers.GuestController
	Gallery *controllers.GalleryController
	Media   *controllers.MediaController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("POST /auth/oauth/callback", c.Auth.OAuthCallback)
	mux.HandleFunc("GET /auth/profile", auth(c.Auth.Profile))
	mux.HandleFunc("POST /auth/promote", auth(c.Auth.Promote))

	// Events
	mux.HandleFunc("POST /events", auth(c.Event.Create))
	mux.HandleFunc("GET /events", auth(c.Event.ListMine))
	mux.HandleFunc("GET /events/{id}", auth(c.Event.GetByID))
	mux.HandleFunc("GET /events/code/{code}", auth(c.Event.GetByCode))
	mux.HandleFunc("PATCH /events/{id}", auth(c.Event.Update))
	mux.HandleFunc("DELETE /events/{id}", auth(c.Event.Archive))
	mux.HandleFunc("GET /events/{id}/access", auth(c.Event.CheckAccess))

	// Guests
	mux.HandleFunc("POST /events/{id}/guests", auth(c.Guest.Add))
	mux.HandleFunc("GET /events/{id}/guests", auth(c.Guest.List))
	mux.HandleFunc("POST /events/{id}/guests/accept", auth(c.Guest.Accept))

	// Gallery
	mux.HandleFunc("POST /events/{id}/gallery", auth(c.Gallery.Add))
	mux.HandleFunc("POST /events/{id}/gallery/{imageID}/like", auth(c.Gallery.Like))
	mux.HandleFunc("DELETE /events/{id}/gallery/{imageID}", auth(c.Gallery.Delete))

	// Media
	mux.HandleFunc("POST /cloud/signature", auth(c.Media.Signature))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
