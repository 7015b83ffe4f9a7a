package domain

import (
	"context"
	"errors"
	"time"
)

// ErrReceiverNotFound is returned when no light account exists for a contact.
var ErrReceiverNotFound = errors.New("receiver not found")

// Receiver is a lightweight invitee record, not a full account. It exists so
// an invited contact can hold a profile and accept invitations without
// signing up. To use sender features it must be promoted to a Sender; the
// promotion link is set exactly once and never cleared.
// swagger:model Receiver
type Receiver struct {
	ID                    string    `json:"id"`
	WhatsAppNumber        string    `json:"whatsapp_number"`
	FullName              string    `json:"full_name"`
	Username              string    `json:"username"`
	ProfileImage          string    `json:"profile_image"`
	CreatedFromInvitation bool      `json:"created_from_invitation"`
	ConvertedToSender     bool      `json:"converted_to_sender"`
	LinkedSenderID        *string   `json:"linked_sender_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ReceiverRepository defines storage operations for light accounts.
type ReceiverRepository interface {
	Create(ctx context.Context, r *Receiver) error
	GetByID(ctx context.Context, id string) (*Receiver, error)
	GetByContact(ctx context.Context, whatsappNumber string) (*Receiver, error)
	Update(ctx context.Context, r *Receiver) error
}
