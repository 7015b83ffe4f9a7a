package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"invitease/config"
	"invitease/internal/adapters/auth"
	"invitease/internal/adapters/email"
	"invitease/internal/adapters/media"
	delivery "invitease/internal/delivery/http"
	"invitease/internal/delivery/http/controllers"
	"invitease/internal/delivery/http/middleware"
	"invitease/internal/repository/postgres"
	"invitease/internal/services"
)

const (
	serviceTimeout = 10 * time.Second
	bcryptCost     = 12
)

// @title Invitease API
// @version 1.0
// @description Event invitation and guest access backend.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	senderRepo := postgres.NewSenderRepository(db)
	receiverRepo := postgres.NewReceiverRepository(db)

	hasher := auth.NewBcryptHasher(bcryptCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:          cfg.Mailer.SESRegion,
			AccessKeyID:     cfg.Mailer.SESAccessKeyID,
			SecretAccessKey: cfg.Mailer.SESSecretKey,
		},
	})
	if err != nil {
		logger.Error("configure mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	resolver := services.NewIdentityResolver(senderRepo, receiverRepo)
	eventService := services.NewEventService(eventRepo, senderRepo, receiverRepo, resolver, emailService, serviceTimeout)
	authService := services.NewAuthService(senderRepo, receiverRepo, hasher, tokenIssuer, cfg.TokenExpiry, emailService)

	mediaSigner := media.MustSigner(media.Config{
		CloudName: cfg.Media.CloudName,
		APIKey:    cfg.Media.APIKey,
		APISecret: cfg.Media.APISecret,
	}, logger)

	router := delivery.NewRouter(delivery.Controllers{
		Auth:    controllers.NewAuthController(logger, authService),
		Event:   controllers.NewEventController(logger, eventService),
		Guest:   controllers.NewGuestController(logger, eventService),
		Gallery: controllers.NewGalleryController(logger, eventService),
		Media:   controllers.NewMediaController(logger, mediaSigner),
	}, tokenVerifier, logger)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, router))

	addr := ":" + cfg.Port
	logger.Info("starting server", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
