package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"invitease/internal/domain"
)

const uniqueViolation = "23505"

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns an EventRepository backed by Postgres. The
// guest ledger and gallery live in JSONB columns on the event row, so every
// write replaces the whole aggregate; Update is compare-and-swap on the
// version column.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	guests, gallery, err := marshalSubdocs(event)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (code, title, description, cover_image, owner_id, invitation_message,
			guests, gallery, start_at, end_at, is_public, chat_room_id, archived, views, version,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, 1, $14, $15)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		event.Code, event.Title, event.Description, event.CoverImage, event.OwnerID,
		event.InvitationMessage, guests, gallery, nullTime(event.StartAt), nullTime(event.EndAt),
		event.IsPublic, event.ChatRoomID, event.Archived, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return err
	}
	event.Version = 1
	return nil
}

const eventColumns = `id, code, title, description, cover_image, owner_id, invitation_message,
			guests, gallery, start_at, end_at, is_public, chat_room_id, archived, views, version,
			created_at, updated_at`

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE code = $1`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, code))
}

func (r *eventRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	guests, gallery, err := marshalSubdocs(event)
	if err != nil {
		return err
	}
	query := `
		UPDATE events
		SET title = $1, description = $2, cover_image = $3, invitation_message = $4,
			guests = $5, gallery = $6, start_at = $7, end_at = $8, is_public = $9,
			chat_room_id = $10, archived = $11, version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14
	`
	res, err := r.DB.ExecContext(ctx, query,
		event.Title, event.Description, event.CoverImage, event.InvitationMessage,
		guests, gallery, nullTime(event.StartAt), nullTime(event.EndAt), event.IsPublic,
		event.ChatRoomID, event.Archived, event.UpdatedAt, event.ID, event.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or another writer bumped the version.
		return domain.ErrConflict
	}
	event.Version++
	return nil
}

func (r *eventRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE events SET views = views + 1 WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *eventRepository) scanEvent(row rowScanner) (*domain.Event, error) {
	event := &domain.Event{}
	var guests, gallery []byte
	var startAt, endAt sql.NullTime
	err := row.Scan(
		&event.ID, &event.Code, &event.Title, &event.Description, &event.CoverImage,
		&event.OwnerID, &event.InvitationMessage, &guests, &gallery, &startAt, &endAt,
		&event.IsPublic, &event.ChatRoomID, &event.Archived, &event.Views, &event.Version,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if startAt.Valid {
		event.StartAt = &startAt.Time
	}
	if endAt.Valid {
		event.EndAt = &endAt.Time
	}
	if err := json.Unmarshal(guests, &event.Guests); err != nil {
		return nil, fmt.Errorf("decode guests: %w", err)
	}
	if err := json.Unmarshal(gallery, &event.Gallery); err != nil {
		return nil, fmt.Errorf("decode gallery: %w", err)
	}
	if event.Guests == nil {
		event.Guests = []domain.Guest{}
	}
	if event.Gallery == nil {
		event.Gallery = []domain.GalleryImage{}
	}
	return event, nil
}

func marshalSubdocs(event *domain.Event) ([]byte, []byte, error) {
	guests := event.Guests
	if guests == nil {
		guests = []domain.Guest{}
	}
	gallery := event.Gallery
	if gallery == nil {
		gallery = []domain.GalleryImage{}
	}
	gb, err := json.Marshal(guests)
	if err != nil {
		return nil, nil, fmt.Errorf("encode guests: %w", err)
	}
	lb, err := json.Marshal(gallery)
	if err != nil {
		return nil, nil, fmt.Errorf("encode gallery: %w", err)
	}
	return gb, lb, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
