package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"invitease/internal/domain"
)

type senderRepository struct {
	DB *sql.DB
}

// NewSenderRepository returns a SenderRepository backed by Postgres. OAuth
// bindings are stored as a JSONB array on the sender row.
func NewSenderRepository(db *sql.DB) domain.SenderRepository {
	return &senderRepository{DB: db}
}

func (r *senderRepository) Create(ctx context.Context, s *domain.Sender) error {
	oauth, err := marshalOAuth(s.OAuth)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO senders (username, full_name, email, whatsapp_number, profile_image,
			login_method, verified, password_hash, salt, oauth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		nullString(s.Username), s.FullName, nullString(s.Email), nullString(s.WhatsAppNumber),
		s.ProfileImage, s.LoginMethod, s.Verified, s.PasswordHash, s.Salt, oauth,
		s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "email") {
				return domain.ErrDuplicateEmail
			}
			return domain.ErrDuplicateContact
		}
		return err
	}
	return nil
}

const senderColumns = `id, username, full_name, email, whatsapp_number, profile_image,
			login_method, verified, password_hash, salt, oauth, created_at, updated_at`

func (r *senderRepository) GetByID(ctx context.Context, id string) (*domain.Sender, error) {
	query := `SELECT ` + senderColumns + ` FROM senders WHERE id = $1`
	return r.scanSender(r.DB.QueryRowContext(ctx, query, id))
}

func (r *senderRepository) GetByEmail(ctx context.Context, email string) (*domain.Sender, error) {
	query := `SELECT ` + senderColumns + ` FROM senders WHERE email = $1`
	return r.scanSender(r.DB.QueryRowContext(ctx, query, email))
}

func (r *senderRepository) GetByContact(ctx context.Context, whatsappNumber string) (*domain.Sender, error) {
	query := `SELECT ` + senderColumns + ` FROM senders WHERE whatsapp_number = $1`
	return r.scanSender(r.DB.QueryRowContext(ctx, query, whatsappNumber))
}

func (r *senderRepository) GetByOAuth(ctx context.Context, provider, providerID string) (*domain.Sender, error) {
	needle, err := json.Marshal([]domain.OAuthBinding{{Provider: provider, ProviderID: providerID}})
	if err != nil {
		return nil, fmt.Errorf("encode oauth needle: %w", err)
	}
	query := `SELECT ` + senderColumns + ` FROM senders WHERE oauth @> $1`
	return r.scanSender(r.DB.QueryRowContext(ctx, query, needle))
}

func (r *senderRepository) Update(ctx context.Context, s *domain.Sender) error {
	oauth, err := marshalOAuth(s.OAuth)
	if err != nil {
		return err
	}
	query := `
		UPDATE senders
		SET username = $1, full_name = $2, email = $3, whatsapp_number = $4, profile_image = $5,
			login_method = $6, verified = $7, password_hash = $8, salt = $9, oauth = $10, updated_at = $11
		WHERE id = $12
	`
	res, err := r.DB.ExecContext(ctx, query,
		nullString(s.Username), s.FullName, nullString(s.Email), nullString(s.WhatsAppNumber),
		s.ProfileImage, s.LoginMethod, s.Verified, s.PasswordHash, s.Salt, oauth,
		s.UpdatedAt, s.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "email") {
				return domain.ErrDuplicateEmail
			}
			return domain.ErrDuplicateContact
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSenderNotFound
	}
	return nil
}

func (r *senderRepository) scanSender(row rowScanner) (*domain.Sender, error) {
	s := &domain.Sender{}
	var username, email, whatsapp sql.NullString
	var oauth []byte
	err := row.Scan(
		&s.ID, &username, &s.FullName, &email, &whatsapp, &s.ProfileImage,
		&s.LoginMethod, &s.Verified, &s.PasswordHash, &s.Salt, &oauth,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSenderNotFound
		}
		return nil, err
	}
	s.Username = username.String
	s.Email = email.String
	s.WhatsAppNumber = whatsapp.String
	if len(oauth) > 0 {
		if err := json.Unmarshal(oauth, &s.OAuth); err != nil {
			return nil, fmt.Errorf("decode oauth: %w", err)
		}
	}
	return s, nil
}

func marshalOAuth(bindings []domain.OAuthBinding) ([]byte, error) {
	if bindings == nil {
		bindings = []domain.OAuthBinding{}
	}
	b, err := json.Marshal(bindings)
	if err != nil {
		return nil, fmt.Errorf("encode oauth: %w", err)
	}
	return b, nil
}

// nullString maps "" to NULL so sparse unique indexes ignore unset values.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
