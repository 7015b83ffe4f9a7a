package domain

import "context"

// GuestKind tells what an invited contact resolved to at resolution time.
type GuestKind string

const (
	// GuestKindSender means the contact belongs to a full account.
	GuestKindSender GuestKind = "sender"
	// GuestKindReceiver means the contact belongs to a light account only.
	GuestKindReceiver GuestKind = "receiver"
	// GuestKindExternal means the contact is unknown to the system.
	GuestKindExternal GuestKind = "external"
)

// ProfileSnapshot is profile data frozen at the moment of resolution.
// It goes intentionally stale: re-inviting does not refresh it.
type ProfileSnapshot struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	ProfileImage string `json:"profile_image"`
}

// ResolvedIdentity is the result of resolving a contact identifier.
// Sender resolution always outranks receiver resolution: Kind is
// GuestKindSender whenever Sender is set, even if a Receiver also exists.
type ResolvedIdentity struct {
	Kind     GuestKind
	Sender   *Sender
	Receiver *Receiver
	Snapshot ProfileSnapshot
}

// IdentityResolver resolves a contact identifier to a known account.
// A pure read: it never mutates anything, and an unavailable lookup is
// treated as "not found" rather than an error. The fallback snapshot, if
// given, is used only when no account is found.
type IdentityResolver interface {
	Resolve(ctx context.Context, contact string, fallback *ProfileSnapshot) (*ResolvedIdentity, error)
}

// Identity is the acting identity an access check runs against. Typed
// references take precedence; Contact is only consulted when neither
// account reference is set.
type Identity struct {
	SenderID   string
	ReceiverID string
	Contact    string
}
