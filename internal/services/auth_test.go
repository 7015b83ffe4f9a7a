package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invitease/internal/domain"
)

// fakeHasher is a deterministic PasswordHasher for tests.
type fakeHasher struct {
	saltErr error
}

func (f *fakeHasher) GenerateSalt() (string, error) {
	if f.saltErr != nil {
		return "", f.saltErr
	}
	return "salt", nil
}

func (f *fakeHasher) Hash(salt, password string) (string, error) {
	return "hash(" + salt + ":" + password + ")", nil
}

func (f *fakeHasher) Compare(hash, salt, password string) error {
	if hash != "hash("+salt+":"+password+")" {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer records the last issued claims.
type fakeTokenIssuer struct {
	lastAccountID string
	lastContact   string
	lastRole      string
	lastExpiry    time.Duration
	err           error
}

func (f *fakeTokenIssuer) Issue(accountID, contact, role string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastAccountID = accountID
	f.lastContact = contact
	f.lastRole = role
	f.lastExpiry = expiry
	return fmt.Sprintf("token-for-%s", accountID), nil
}

type authFixture struct {
	svc          domain.AuthService
	senderRepo   *fakeSenderRepo
	receiverRepo *fakeReceiverRepo
	issuer       *fakeTokenIssuer
	emails       *fakeEmailService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	senderRepo := newFakeSenderRepo()
	receiverRepo := newFakeReceiverRepo()
	issuer := &fakeTokenIssuer{}
	emails := &fakeEmailService{}
	svc := NewAuthService(senderRepo, receiverRepo, &fakeHasher{}, issuer, time.Hour, emails)
	return &authFixture{
		svc:          svc,
		senderRepo:   senderRepo,
		receiverRepo: receiverRepo,
		issuer:       issuer,
		emails:       emails,
	}
}

func TestAuthService_SignUpWithEmail(t *testing.T) {
	fx := newAuthFixture(t)

	sender, token, err := fx.svc.SignUpWithEmail(context.Background(), "New@Example.COM ", "secret-pass", " Ada Lovelace ", "+4477")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", sender.Email, "email is normalized")
	assert.Equal(t, "Ada Lovelace", sender.FullName)
	assert.Equal(t, domain.LoginMethodEmail, sender.LoginMethod)
	assert.NotEmpty(t, sender.PasswordHash)
	assert.Equal(t, "token-for-"+sender.ID, token)
	assert.Equal(t, RoleSender, fx.issuer.lastRole)
	assert.Equal(t, "+4477", fx.issuer.lastContact)

	require.Len(t, fx.emails.welcomes, 1)
	assert.Equal(t, "new@example.com", fx.emails.welcomes[0].Email)
}

func TestAuthService_SignUpWithEmail_Validation(t *testing.T) {
	fx := newAuthFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"invalid email", "not-an-email", "secret-pass"},
		{"empty email", "", "secret-pass"},
		{"short password", "a@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fx.svc.SignUpWithEmail(context.Background(), tt.email, tt.password, "", "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAuthService_SignUpWithEmail_Duplicate(t *testing.T) {
	fx := newAuthFixture(t)
	_, _, err := fx.svc.SignUpWithEmail(context.Background(), "dup@example.com", "secret-pass", "", "")
	require.NoError(t, err)

	_, _, err = fx.svc.SignUpWithEmail(context.Background(), "dup@example.com", "secret-pass", "", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAuthService_LoginWithEmail(t *testing.T) {
	fx := newAuthFixture(t)
	created, _, err := fx.svc.SignUpWithEmail(context.Background(), "ada@example.com", "secret-pass", "Ada", "")
	require.NoError(t, err)

	sender, token, err := fx.svc.LoginWithEmail(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, sender.ID)
	assert.NotEmpty(t, token)

	_, _, err = fx.svc.LoginWithEmail(context.Background(), "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = fx.svc.LoginWithEmail(context.Background(), "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = fx.svc.LoginWithEmail(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_LoginWithEmail_FederatedOnlyAccount(t *testing.T) {
	fx := newAuthFixture(t)
	_, _, err := fx.svc.LoginWithOAuth(context.Background(), &domain.OAuthProfile{
		Provider:   domain.LoginMethodGoogle,
		ProviderID: "g-1",
		Email:      "fed@example.com",
	})
	require.NoError(t, err)

	// The account has no password hash, so password login must not work.
	_, _, err = fx.svc.LoginWithEmail(context.Background(), "fed@example.com", "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_LoginWithOAuth_CreatesAccount(t *testing.T) {
	fx := newAuthFixture(t)

	sender, token, err := fx.svc.LoginWithOAuth(context.Background(), &domain.OAuthProfile{
		Provider:    domain.LoginMethodGoogle,
		ProviderID:  "g-42",
		DisplayName: "Grace Hopper",
		Email:       "Grace@Example.com",
		PhotoURL:    "https://img/grace.jpg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, "grace@example.com", sender.Email)
	assert.Equal(t, "Grace Hopper", sender.FullName)
	assert.Equal(t, domain.LoginMethodGoogle, sender.LoginMethod)
	assert.True(t, sender.Verified)
	assert.True(t, sender.HasOAuthBinding(domain.LoginMethodGoogle, "g-42"))
}

func TestAuthService_LoginWithOAuth_LinksExistingByEmail(t *testing.T) {
	fx := newAuthFixture(t)
	created, _, err := fx.svc.SignUpWithEmail(context.Background(), "ada@example.com", "secret-pass", "Ada", "+4477")
	require.NoError(t, err)

	sender, _, err := fx.svc.LoginWithOAuth(context.Background(), &domain.OAuthProfile{
		Provider:   domain.LoginMethodGoogle,
		ProviderID: "g-7",
		Email:      "ada@example.com",
		PhotoURL:   "https://img/ada.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, sender.ID, "no second account is created")
	assert.True(t, sender.HasOAuthBinding(domain.LoginMethodGoogle, "g-7"))
	assert.Equal(t, "https://img/ada.jpg", sender.ProfileImage, "empty photo adopted from provider")
	assert.Equal(t, "+4477", sender.WhatsAppNumber, "existing contact untouched")
	assert.Len(t, fx.senderRepo.byID, 1)
}

func TestAuthService_LoginWithOAuth_RepeatLoginStable(t *testing.T) {
	fx := newAuthFixture(t)
	profile := &domain.OAuthProfile{Provider: domain.LoginMethodGoogle, ProviderID: "g-9", Email: "x@example.com"}

	first, _, err := fx.svc.LoginWithOAuth(context.Background(), profile)
	require.NoError(t, err)
	second, _, err := fx.svc.LoginWithOAuth(context.Background(), profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.OAuth, 1, "binding is not duplicated")
}

func TestAuthService_LoginWithOAuth_Validation(t *testing.T) {
	fx := newAuthFixture(t)
	_, _, err := fx.svc.LoginWithOAuth(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = fx.svc.LoginWithOAuth(context.Background(), &domain.OAuthProfile{Provider: domain.LoginMethodGoogle})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthService_Profile(t *testing.T) {
	fx := newAuthFixture(t)
	created, _, err := fx.svc.SignUpWithEmail(context.Background(), "ada@example.com", "secret-pass", "Ada", "")
	require.NoError(t, err)

	sender, err := fx.svc.Profile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, sender.Email)

	_, err = fx.svc.Profile(context.Background(), "snd-missing")
	assert.ErrorIs(t, err, domain.ErrSenderNotFound)
}

func TestAuthService_PromoteReceiver(t *testing.T) {
	fx := newAuthFixture(t)
	receiver := &domain.Receiver{
		WhatsAppNumber:        "+4477",
		FullName:              "Jo Guest",
		Username:              "jo",
		ProfileImage:          "https://img/jo.jpg",
		CreatedFromInvitation: true,
	}
	require.NoError(t, fx.receiverRepo.Create(context.Background(), receiver))

	sender, err := fx.svc.PromoteReceiver(context.Background(), "+4477", nil)
	require.NoError(t, err)

	assert.Equal(t, "+4477", sender.WhatsAppNumber)
	assert.Equal(t, "Jo Guest", sender.FullName)
	assert.Equal(t, domain.LoginMethodWhatsApp, sender.LoginMethod)

	linked, err := fx.receiverRepo.GetByID(context.Background(), receiver.ID)
	require.NoError(t, err)
	assert.True(t, linked.ConvertedToSender)
	require.NotNil(t, linked.LinkedSenderID)
	assert.Equal(t, sender.ID, *linked.LinkedSenderID)
}

func TestAuthService_PromoteReceiver_Idempotent(t *testing.T) {
	fx := newAuthFixture(t)
	receiver := &domain.Receiver{WhatsAppNumber: "+4477", FullName: "Jo"}
	require.NoError(t, fx.receiverRepo.Create(context.Background(), receiver))

	first, err := fx.svc.PromoteReceiver(context.Background(), "+4477", nil)
	require.NoError(t, err)
	second, err := fx.svc.PromoteReceiver(context.Background(), "+4477", &domain.ProfileSnapshot{FullName: "Different"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "promotion is one-way; the original link wins")
	assert.Equal(t, "Jo", second.FullName)
	assert.Len(t, fx.senderRepo.byID, 1)
}

func TestAuthService_PromoteReceiver_Override(t *testing.T) {
	fx := newAuthFixture(t)
	receiver := &domain.Receiver{WhatsAppNumber: "+4477", FullName: "Jo", Username: "jo"}
	require.NoError(t, fx.receiverRepo.Create(context.Background(), receiver))

	sender, err := fx.svc.PromoteReceiver(context.Background(), "+4477", &domain.ProfileSnapshot{
		FullName: "Joanna Guest",
	})
	require.NoError(t, err)
	assert.Equal(t, "Joanna Guest", sender.FullName, "override replaces the field")
	assert.Equal(t, "jo", sender.Username, "unset override fields keep receiver data")
}

func TestAuthService_PromoteReceiver_NotFound(t *testing.T) {
	fx := newAuthFixture(t)
	_, err := fx.svc.PromoteReceiver(context.Background(), "+0000", nil)
	assert.ErrorIs(t, err, domain.ErrReceiverNotFound)

	_, err = fx.svc.PromoteReceiver(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
