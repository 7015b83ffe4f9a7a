package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"invitease/internal/domain"
)

const (
	minPasswordLen = 8

	// RoleSender is the role claim carried by full-account tokens.
	RoleSender = "sender"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	senderRepo   domain.SenderRepository
	receiverRepo domain.ReceiverRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	emailService domain.EmailService
}

// NewAuthService creates an AuthService with the given repositories and auth
// ports. emailService may be nil.
func NewAuthService(
	senderRepo domain.SenderRepository,
	receiverRepo domain.ReceiverRepository,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	emailService domain.EmailService,
) domain.AuthService {
	return &authService{
		senderRepo:   senderRepo,
		receiverRepo: receiverRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		emailService: emailService,
	}
}

func (s *authService) SignUpWithEmail(ctx context.Context, email, password, fullName, whatsappNumber string) (*domain.Sender, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, "", fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalidInput)
	}
	whatsappNumber = strings.TrimSpace(whatsappNumber)

	if existing, err := s.senderRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", domain.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, domain.ErrSenderNotFound) {
		return nil, "", fmt.Errorf("get sender by email: %w", err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, "", fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	sender := &domain.Sender{
		Email:          email,
		FullName:       strings.TrimSpace(fullName),
		WhatsAppNumber: whatsappNumber,
		LoginMethod:    domain.LoginMethodEmail,
		PasswordHash:   hash,
		Salt:           salt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.senderRepo.Create(ctx, sender); err != nil {
		if errors.Is(err, domain.ErrDuplicateContact) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create sender: %w", err)
	}

	token, err := s.tokenIssuer.Issue(sender.ID, sender.WhatsAppNumber, RoleSender, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	if s.emailService != nil {
		// Best-effort: a failed welcome email never fails the signup.
		_ = s.emailService.SendWelcome(ctx, &domain.WelcomeEmailData{
			Email:    sender.Email,
			FullName: sender.FullName,
		})
	}
	return sender, token, nil
}

func (s *authService) LoginWithEmail(ctx context.Context, email, password string) (*domain.Sender, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	sender, err := s.senderRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrSenderNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get sender by email: %w", err)
	}
	if sender.PasswordHash == "" {
		// Federated-only account; no password to check against.
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(sender.PasswordHash, sender.Salt, password); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenIssuer.Issue(sender.ID, sender.WhatsAppNumber, RoleSender, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return sender, token, nil
}

func (s *authService) LoginWithOAuth(ctx context.Context, profile *domain.OAuthProfile) (*domain.Sender, string, error) {
	if profile == nil || profile.Provider == "" || profile.ProviderID == "" {
		return nil, "", fmt.Errorf("provider and provider id are required: %w", domain.ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(profile.Email))

	sender, err := s.senderRepo.GetByOAuth(ctx, profile.Provider, profile.ProviderID)
	if err != nil && !errors.Is(err, domain.ErrSenderNotFound) {
		return nil, "", fmt.Errorf("get sender by oauth: %w", err)
	}
	if sender == nil && email != "" {
		sender, err = s.senderRepo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, domain.ErrSenderNotFound) {
			return nil, "", fmt.Errorf("get sender by email: %w", err)
		}
	}

	if sender == nil {
		now := time.Now()
		fullName := profile.DisplayName
		if fullName == "" {
			fullName = email
		}
		sender = &domain.Sender{
			FullName:     fullName,
			Email:        email,
			ProfileImage: profile.PhotoURL,
			LoginMethod:  profile.Provider,
			Verified:     true,
			OAuth: []domain.OAuthBinding{
				{Provider: profile.Provider, ProviderID: profile.ProviderID},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.senderRepo.Create(ctx, sender); err != nil {
			return nil, "", fmt.Errorf("create sender: %w", err)
		}
	} else {
		changed := false
		if !sender.HasOAuthBinding(profile.Provider, profile.ProviderID) {
			sender.OAuth = append(sender.OAuth, domain.OAuthBinding{
				Provider:   profile.Provider,
				ProviderID: profile.ProviderID,
			})
			changed = true
		}
		if profile.PhotoURL != "" && sender.ProfileImage == "" {
			sender.ProfileImage = profile.PhotoURL
			changed = true
		}
		// Provider data never overwrites an existing email or contact.
		if email != "" && sender.Email == "" {
			sender.Email = email
			changed = true
		}
		if changed {
			sender.UpdatedAt = time.Now()
			if err := s.senderRepo.Update(ctx, sender); err != nil {
				return nil, "", fmt.Errorf("update sender: %w", err)
			}
		}
	}

	token, err := s.tokenIssuer.Issue(sender.ID, sender.WhatsAppNumber, RoleSender, s.tokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return sender, token, nil
}

func (s *authService) Profile(ctx context.Context, accountID string) (*domain.Sender, error) {
	sender, err := s.senderRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrSenderNotFound) {
			return nil, domain.ErrSenderNotFound
		}
		return nil, fmt.Errorf("get sender: %w", err)
	}
	return sender, nil
}

func (s *authService) PromoteReceiver(ctx context.Context, whatsappNumber string, override *domain.ProfileSnapshot) (*domain.Sender, error) {
	whatsappNumber = strings.TrimSpace(whatsappNumber)
	if whatsappNumber == "" {
		return nil, fmt.Errorf("contact is required: %w", domain.ErrInvalidInput)
	}

	receiver, err := s.receiverRepo.GetByContact(ctx, whatsappNumber)
	if err != nil {
		if errors.Is(err, domain.ErrReceiverNotFound) {
			return nil, domain.ErrReceiverNotFound
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	// Promotion is one-way and idempotent: an already-promoted receiver
	// keeps its original link and the existing sender is returned.
	if receiver.ConvertedToSender && receiver.LinkedSenderID != nil {
		return s.senderRepo.GetByID(ctx, *receiver.LinkedSenderID)
	}

	now := time.Now()
	sender := &domain.Sender{
		Username:       receiver.Username,
		FullName:       receiver.FullName,
		WhatsAppNumber: receiver.WhatsAppNumber,
		ProfileImage:   receiver.ProfileImage,
		LoginMethod:    domain.LoginMethodWhatsApp,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if override != nil {
		if override.Username != "" {
			sender.Username = override.Username
		}
		if override.FullName != "" {
			sender.FullName = override.FullName
		}
		if override.ProfileImage != "" {
			sender.ProfileImage = override.ProfileImage
		}
	}
	if err := s.senderRepo.Create(ctx, sender); err != nil {
		return nil, fmt.Errorf("create sender: %w", err)
	}

	receiver.ConvertedToSender = true
	receiver.LinkedSenderID = &sender.ID
	receiver.UpdatedAt = now
	if err := s.receiverRepo.Update(ctx, receiver); err != nil {
		return nil, fmt.Errorf("link receiver to sender: %w", err)
	}
	return sender, nil
}
