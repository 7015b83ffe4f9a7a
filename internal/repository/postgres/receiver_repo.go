package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"invitease/internal/domain"
)

type receiverRepository struct {
	DB *sql.DB
}

// NewReceiverRepository returns a ReceiverRepository backed by Postgres.
func NewReceiverRepository(db *sql.DB) domain.ReceiverRepository {
	return &receiverRepository{DB: db}
}

func (r *receiverRepository) Create(ctx context.Context, rec *domain.Receiver) error {
	query := `
		INSERT INTO receivers (whatsapp_number, full_name, username, profile_image,
			created_from_invitation, converted_to_sender, linked_sender_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		rec.WhatsAppNumber, rec.FullName, nullString(rec.Username), rec.ProfileImage,
		rec.CreatedFromInvitation, rec.ConvertedToSender, nullStringPtr(rec.LinkedSenderID),
		rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateContact
		}
		return err
	}
	return nil
}

const receiverColumns = `id, whatsapp_number, full_name, username, profile_image,
			created_from_invitation, converted_to_sender, linked_sender_id, created_at, updated_at`

func (r *receiverRepository) GetByID(ctx context.Context, id string) (*domain.Receiver, error) {
	query := `SELECT ` + receiverColumns + ` FROM receivers WHERE id = $1`
	return r.scanReceiver(r.DB.QueryRowContext(ctx, query, id))
}

func (r *receiverRepository) GetByContact(ctx context.Context, whatsappNumber string) (*domain.Receiver, error) {
	query := `SELECT ` + receiverColumns + ` FROM receivers WHERE whatsapp_number = $1`
	return r.scanReceiver(r.DB.QueryRowContext(ctx, query, whatsappNumber))
}

func (r *receiverRepository) Update(ctx context.Context, rec *domain.Receiver) error {
	query := `
		UPDATE receivers
		SET full_name = $1, username = $2, profile_image = $3,
			converted_to_sender = $4, linked_sender_id = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.DB.ExecContext(ctx, query,
		rec.FullName, nullString(rec.Username), rec.ProfileImage,
		rec.ConvertedToSender, nullStringPtr(rec.LinkedSenderID), rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrReceiverNotFound
	}
	return nil
}

func (r *receiverRepository) scanReceiver(row rowScanner) (*domain.Receiver, error) {
	rec := &domain.Receiver{}
	var username sql.NullString
	var linked sql.NullString
	err := row.Scan(
		&rec.ID, &rec.WhatsAppNumber, &rec.FullName, &username, &rec.ProfileImage,
		&rec.CreatedFromInvitation, &rec.ConvertedToSender, &linked,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReceiverNotFound
		}
		return nil, err
	}
	rec.Username = username.String
	if linked.Valid {
		rec.LinkedSenderID = &linked.String
	}
	return rec, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
