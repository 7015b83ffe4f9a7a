package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for account operations.
var (
	ErrSenderNotFound     = errors.New("sender not found")
	ErrDuplicateContact   = errors.New("contact identifier already in use")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Login methods accepted for a full account.
const (
	LoginMethodEmail    = "email"
	LoginMethodWhatsApp = "whatsapp"
	LoginMethodGoogle   = "google"
	LoginMethodFacebook = "facebook"
	LoginMethodLinkedIn = "linkedin"
)

// OAuthBinding links a full account to a federated identity provider.
type OAuthBinding struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}

// Sender is a full account: it can create events, invite guests, and log in.
// The WhatsApp number is the unique contact identifier guests are invited by;
// it may be empty for accounts created via a federated provider until set.
// swagger:model Sender
type Sender struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	FullName       string         `json:"full_name"`
	Email          string         `json:"email"`
	WhatsAppNumber string         `json:"whatsapp_number"`
	ProfileImage   string         `json:"profile_image"`
	LoginMethod    string         `json:"login_method"`
	Verified       bool           `json:"verified"`
	PasswordHash   string         `json:"-"`
	Salt           string         `json:"-"`
	OAuth          []OAuthBinding `json:"oauth,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HasOAuthBinding reports whether the sender is already linked to the given
// provider identity.
func (s *Sender) HasOAuthBinding(provider, providerID string) bool {
	for _, b := range s.OAuth {
		if b.Provider == provider && b.ProviderID == providerID {
			return true
		}
	}
	return false
}

// OAuthProfile is the data a federated identity provider hands back on a
// successful login. The core only maps it to a Sender (create-or-link).
type OAuthProfile struct {
	Provider    string `json:"provider"`
	ProviderID  string `json:"provider_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
}

// TokenClaims are the verified claims carried by a bearer token.
type TokenClaims struct {
	AccountID string
	Contact   string
	Role      string
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues signed bearer tokens for an authenticated account.
type TokenIssuer interface {
	Issue(accountID, contact, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// SenderRepository defines storage operations for full accounts.
type SenderRepository interface {
	Create(ctx context.Context, s *Sender) error
	GetByID(ctx context.Context, id string) (*Sender, error)
	GetByEmail(ctx context.Context, email string) (*Sender, error)
	GetByContact(ctx context.Context, whatsappNumber string) (*Sender, error)
	GetByOAuth(ctx context.Context, provider, providerID string) (*Sender, error)
	Update(ctx context.Context, s *Sender) error
}

// AuthService defines account signup, login, and promotion logic.
type AuthService interface {
	SignUpWithEmail(ctx context.Context, email, password, fullName, whatsappNumber string) (*Sender, string, error)
	LoginWithEmail(ctx context.Context, email, password string) (*Sender, string, error)
	// LoginWithOAuth maps provider callback data to a Sender, creating or
	// linking as needed, and returns the account with a fresh token.
	LoginWithOAuth(ctx context.Context, profile *OAuthProfile) (*Sender, string, error)
	Profile(ctx context.Context, accountID string) (*Sender, error)
	// PromoteReceiver promotes the light account with the given contact to a
	// full account. One-way and idempotent: promoting an already-promoted
	// receiver returns the linked sender.
	PromoteReceiver(ctx context.Context, whatsappNumber string, override *ProfileSnapshot) (*Sender, error)
}
