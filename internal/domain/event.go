package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by event operations.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("version conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Guest is one entry of an event's guest ledger. Contact is unique within
// the event. Kind and the account references are mutually consistent:
// sender kind implies SenderID set, receiver kind implies ReceiverID set,
// external implies neither. Acceptance is monotonic.
// swagger:model Guest
type Guest struct {
	ID         string          `json:"id"`
	Contact    string          `json:"contact"`
	Kind       GuestKind       `json:"kind"`
	SenderID   *string         `json:"sender_id,omitempty"`
	ReceiverID *string         `json:"receiver_id,omitempty"`
	Snapshot   ProfileSnapshot `json:"snapshot"`
	InvitedBy  string          `json:"invited_by"`
	InvitedAt  time.Time       `json:"invited_at"`
	Accepted   bool            `json:"accepted"`
	AcceptedAt *time.Time      `json:"accepted_at,omitempty"`
}

// GalleryImage is an image uploaded to an event's gallery. The uploader is a
// typed reference to either account variant. Images are soft-deleted only.
// swagger:model GalleryImage
type GalleryImage struct {
	ID           string    `json:"id"`
	UploaderKind GuestKind `json:"uploader_kind"`
	UploaderID   string    `json:"uploader_id"`
	URL          string    `json:"url"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	LikeCount    int       `json:"like_count"`
	ShareCount   int       `json:"share_count"`
	Deleted      bool      `json:"deleted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is the aggregate root: guest ledger and gallery are embedded and
// written back as a whole. OwnerID is immutable after creation. Events are
// archived, never physically deleted.
// swagger:model Event
type Event struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	CoverImage        string         `json:"cover_image"`
	OwnerID           string         `json:"owner_id"`
	InvitationMessage string         `json:"invitation_message"`
	Guests            []Guest        `json:"guests"`
	Gallery           []GalleryImage `json:"gallery"`
	StartAt           *time.Time     `json:"start_at,omitempty"`
	EndAt             *time.Time     `json:"end_at,omitempty"`
	IsPublic          bool           `json:"is_public"`
	ChatRoomID        string         `json:"chat_room_id,omitempty"`
	Archived          bool           `json:"archived"`
	Views             int64          `json:"views"`
	Version           int64          `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is set by the
// repository on create; Code is assigned by the event service.
func NewEvent(title, ownerID string, createdAt time.Time) *Event {
	return &Event{
		Title:     title,
		OwnerID:   ownerID,
		Guests:    []Guest{},
		Gallery:   []GalleryImage{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// FindGuest returns the guest entry for the given contact, or nil.
func (e *Event) FindGuest(contact string) *Guest {
	for i := range e.Guests {
		if e.Guests[i].Contact == contact {
			return &e.Guests[i]
		}
	}
	return nil
}

// FindGalleryImage returns the gallery entry with the given id, or nil.
func (e *Event) FindGalleryImage(id string) *GalleryImage {
	for i := range e.Gallery {
		if e.Gallery[i].ID == id {
			return &e.Gallery[i]
		}
	}
	return nil
}

// AcceptedCount returns the number of accepted guest entries.
func (e *Event) AcceptedCount() int {
	n := 0
	for i := range e.Guests {
		if e.Guests[i].Accepted {
			n++
		}
	}
	return n
}

// EventRepository defines storage operations for the event aggregate.
// Update writes the whole aggregate back and must fail with ErrConflict
// when the stored version no longer matches the loaded one.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	IncrementViews(ctx context.Context, id string) error
}

// EventUpdate holds the owner-editable event fields; nil means unchanged.
type EventUpdate struct {
	Title             *string
	Description       *string
	CoverImage        *string
	InvitationMessage *string
	StartAt           *time.Time
	EndAt             *time.Time
	IsPublic          *bool
	ChatRoomID        *string
}

// EventService defines the business logic around the event aggregate:
// creation, the guest ledger, access evaluation, and the gallery.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string, identity Identity) (*Event, error)
	GetEventByCode(ctx context.Context, code string, identity Identity) (*Event, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, upd EventUpdate) (*Event, error)
	ArchiveEvent(ctx context.Context, eventID, ownerID string) error

	// AddGuest invites a contact. Idempotent by contact: an existing entry is
	// returned unchanged, with no re-resolution and no snapshot refresh.
	AddGuest(ctx context.Context, eventID, ownerID, contact string, fallback *ProfileSnapshot) (*Guest, error)
	// AcceptGuest marks the invitation for the contact as accepted, creating
	// and linking a light account if none exists. Returns ErrNotFound when
	// the contact was never invited; acceptance cannot create an invitation.
	AcceptGuest(ctx context.Context, eventID, contact string) (*Guest, error)
	ListGuests(ctx context.Context, eventID, ownerID string, params PaginationParams) ([]Guest, int, error)
	// IsAccessAllowed reports whether the acting identity may view the event.
	// Denial is a value, not an error.
	IsAccessAllowed(ctx context.Context, eventID string, identity Identity) (bool, error)

	AddGalleryImage(ctx context.Context, eventID string, identity Identity, img GalleryImage) (*GalleryImage, error)
	LikeGalleryImage(ctx context.Context, eventID, imageID string) (*GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, eventID, imageID string, identity Identity) error
}
