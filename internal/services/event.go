package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"invitease/internal/domain"
)

// casRetries bounds how often a ledger operation retries after losing a
// write race on the event document.
const casRetries = 3

type eventService struct {
	eventRepo      domain.EventRepository
	senderRepo     domain.SenderRepository
	receiverRepo   domain.ReceiverRepository
	resolver       domain.IdentityResolver
	emailService   domain.EmailService
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given repositories,
// resolver, and notification port. emailService may be nil.
func NewEventService(
	eventRepo domain.EventRepository,
	senderRepo domain.SenderRepository,
	receiverRepo domain.ReceiverRepository,
	resolver domain.IdentityResolver,
	emailService domain.EmailService,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		senderRepo:     senderRepo,
		receiverRepo:   receiverRepo,
		resolver:       resolver,
		emailService:   emailService,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required: %w", domain.ErrInvalidInput)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Guests == nil {
		event.Guests = []domain.Guest{}
	}
	if event.Gallery == nil {
		event.Gallery = []domain.GalleryImage{}
	}

	if event.Code == "" {
		code, err := s.uniqueEventCode(ctx)
		if err != nil {
			return fmt.Errorf("generate event code: %w", err)
		}
		event.Code = code
	}

	return s.eventRepo.Create(ctx, event)
}

const eventCodeLength = 10

var eventCodeAlphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func generateEventCode() (string, error) {
	b := make([]rune, eventCodeLength)
	max := big.NewInt(int64(len(eventCodeAlphabet)))
	for i := 0; i < eventCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = eventCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// fallbackEventCode derives a deterministic code from the clock, same length
// as a generated one.
func fallbackEventCode(now time.Time) string {
	s := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(s) >= eventCodeLength {
		return s[len(s)-eventCodeLength:]
	}
	return strings.Repeat("0", eventCodeLength-len(s)) + s
}

// uniqueEventCode tries a handful of random codes against the store and
// falls back to a timestamp-derived code when all of them collide.
func (s *eventService) uniqueEventCode(ctx context.Context) (string, error) {
	const attempts = 6
	for i := 0; i < attempts; i++ {
		code, err := generateEventCode()
		if err != nil {
			return "", err
		}
		exists, err := s.eventRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check event code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return fallbackEventCode(time.Now()), nil
}

// accessAllowed is the pure access rule over a loaded event. The organizer
// always has access; otherwise an accepted guest entry must match the acting
// identity. Typed references outrank the raw contact fallback, which is only
// consulted when the identity carries no account reference at all.
func accessAllowed(event *domain.Event, identity domain.Identity) bool {
	if identity.SenderID != "" && identity.SenderID == event.OwnerID {
		return true
	}
	untyped := identity.SenderID == "" && identity.ReceiverID == ""
	for i := range event.Guests {
		g := &event.Guests[i]
		if !g.Accepted {
			continue
		}
		if identity.SenderID != "" && g.SenderID != nil && *g.SenderID == identity.SenderID {
			return true
		}
		if identity.ReceiverID != "" && g.ReceiverID != nil && *g.ReceiverID == identity.ReceiverID {
			return true
		}
		if untyped && identity.Contact != "" && g.Contact == identity.Contact {
			return true
		}
	}
	return false
}

func (s *eventService) IsAccessAllowed(ctx context.Context, eventID string, identity domain.Identity) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("get event: %w", err)
	}
	return accessAllowed(event, identity), nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string, identity domain.Identity) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.checkedEvent(ctx, event, identity)
}

func (s *eventService) GetEventByCode(ctx context.Context, code string, identity domain.Identity) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by code: %w", err)
	}
	return s.checkedEvent(ctx, event, identity)
}

func (s *eventService) checkedEvent(ctx context.Context, event *domain.Event, identity domain.Identity) (*domain.Event, error) {
	// Archived events stay visible to their organizer only.
	if event.Archived && identity.SenderID != event.OwnerID {
		return nil, domain.ErrNotFound
	}
	if !event.IsPublic && !accessAllowed(event, identity) {
		return nil, domain.ErrForbidden
	}
	// View counting is best-effort and never fails the read.
	_ = s.eventRepo.IncrementViews(ctx, event.ID)
	return event, nil
}

func (s *eventService) ListEventsByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		if event.OwnerID != ownerID {
			return nil, domain.ErrForbidden
		}
		applyEventUpdate(event, upd)
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
		return event, nil
	}
	return nil, domain.ErrConflict
}

func applyEventUpdate(event *domain.Event, upd domain.EventUpdate) {
	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.CoverImage != nil {
		event.CoverImage = *upd.CoverImage
	}
	if upd.InvitationMessage != nil {
		event.InvitationMessage = *upd.InvitationMessage
	}
	if upd.StartAt != nil {
		event.StartAt = upd.StartAt
	}
	if upd.EndAt != nil {
		event.EndAt = upd.EndAt
	}
	if upd.IsPublic != nil {
		event.IsPublic = *upd.IsPublic
	}
	if upd.ChatRoomID != nil {
		event.ChatRoomID = *upd.ChatRoomID
	}
}

func (s *eventService) ArchiveEvent(ctx context.Context, eventID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if event.OwnerID != ownerID {
			return domain.ErrForbidden
		}
		if event.Archived {
			return nil
		}
		event.Archived = true
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	}
	return domain.ErrConflict
}

func (s *eventService) AddGuest(ctx context.Context, eventID, ownerID, contact string, fallback *domain.ProfileSnapshot) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, fmt.Errorf("contact is required: %w", domain.ErrInvalidInput)
	}

	var resolved *domain.ResolvedIdentity
	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		if event.OwnerID != ownerID {
			return nil, domain.ErrForbidden
		}

		// Idempotency is re-verified on every attempt so a concurrent invite
		// for the same contact cannot slip in a duplicate entry.
		if g := event.FindGuest(contact); g != nil {
			cp := *g
			return &cp, nil
		}

		if resolved == nil {
			resolved, err = s.resolver.Resolve(ctx, contact, fallback)
			if err != nil {
				return nil, fmt.Errorf("resolve contact: %w", err)
			}
		}

		guest := domain.Guest{
			ID:        uuid.NewString(),
			Contact:   contact,
			Kind:      resolved.Kind,
			Snapshot:  resolved.Snapshot,
			InvitedBy: ownerID,
			InvitedAt: time.Now(),
		}
		if resolved.Sender != nil {
			id := resolved.Sender.ID
			guest.SenderID = &id
		}
		if resolved.Receiver != nil {
			id := resolved.Receiver.ID
			guest.ReceiverID = &id
		}

		event.Guests = append(event.Guests, guest)
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}

		s.notifyInvitation(ctx, event, resolved)
		return &guest, nil
	}
	return nil, domain.ErrConflict
}

// notifyInvitation emails an invited full account. Best-effort: a send
// failure never fails the invite.
func (s *eventService) notifyInvitation(ctx context.Context, event *domain.Event, resolved *domain.ResolvedIdentity) {
	if s.emailService == nil || resolved.Sender == nil || resolved.Sender.Email == "" {
		return
	}
	ownerName := "Event owner"
	if owner, err := s.senderRepo.GetByID(ctx, event.OwnerID); err == nil && owner != nil {
		if name := strings.TrimSpace(owner.FullName); name != "" {
			ownerName = name
		} else if owner.Email != "" {
			ownerName = owner.Email
		}
	}
	_ = s.emailService.SendInvitation(ctx, &domain.InvitationEmailData{
		Email:      resolved.Sender.Email,
		OwnerName:  ownerName,
		EventTitle: event.Title,
		EventCode:  event.Code,
		Message:    event.InvitationMessage,
	})
}

func (s *eventService) AcceptGuest(ctx context.Context, eventID, contact string) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, fmt.Errorf("contact is required: %w", domain.ErrInvalidInput)
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}

		g := event.FindGuest(contact)
		if g == nil {
			// Acceptance cannot create an invitation.
			return nil, domain.ErrNotFound
		}
		if g.Accepted && g.ReceiverID != nil {
			cp := *g
			return &cp, nil
		}

		receiver, err := s.findOrCreateReceiver(ctx, contact, g.Snapshot)
		if err != nil {
			return nil, err
		}

		if !g.Accepted {
			now := time.Now()
			g.Accepted = true
			g.AcceptedAt = &now
		}
		if g.ReceiverID == nil {
			id := receiver.ID
			g.ReceiverID = &id
		}
		// A guest known as both keeps sender kind: full-account resolution
		// outranks the light-account link gained here.
		if g.SenderID == nil {
			g.Kind = domain.GuestKindReceiver
		}

		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
		cp := *g
		return &cp, nil
	}
	return nil, domain.ErrConflict
}

// findOrCreateReceiver returns the light account for the contact, creating
// one seeded from the guest snapshot when none exists yet.
func (s *eventService) findOrCreateReceiver(ctx context.Context, contact string, snapshot domain.ProfileSnapshot) (*domain.Receiver, error) {
	receiver, err := s.receiverRepo.GetByContact(ctx, contact)
	if err == nil {
		return receiver, nil
	}
	if !errors.Is(err, domain.ErrReceiverNotFound) {
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	now := time.Now()
	receiver = &domain.Receiver{
		WhatsAppNumber:        contact,
		FullName:              snapshot.FullName,
		Username:              snapshot.Username,
		ProfileImage:          snapshot.ProfileImage,
		CreatedFromInvitation: true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.receiverRepo.Create(ctx, receiver); err != nil {
		// A concurrent accept may have created it first.
		if errors.Is(err, domain.ErrDuplicateContact) {
			return s.receiverRepo.GetByContact(ctx, contact)
		}
		return nil, fmt.Errorf("create receiver: %w", err)
	}
	return receiver, nil
}

func (s *eventService) ListGuests(ctx context.Context, eventID, ownerID string, params domain.PaginationParams) ([]domain.Guest, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, 0, domain.ErrForbidden
	}

	total := len(event.Guests)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}
	page := make([]domain.Guest, end-start)
	copy(page, event.Guests[start:end])
	return page, total, nil
}

func (s *eventService) AddGalleryImage(ctx context.Context, eventID string, identity domain.Identity, img domain.GalleryImage) (*domain.GalleryImage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if img.URL == "" {
		return nil, fmt.Errorf("image url is required: %w", domain.ErrInvalidInput)
	}

	switch {
	case identity.SenderID != "":
		img.UploaderKind = domain.GuestKindSender
		img.UploaderID = identity.SenderID
	case identity.ReceiverID != "":
		img.UploaderKind = domain.GuestKindReceiver
		img.UploaderID = identity.ReceiverID
	default:
		// Uploads require a known account; contact-only identities cannot
		// hold an uploader reference.
		return nil, domain.ErrForbidden
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		if !accessAllowed(event, identity) {
			return nil, domain.ErrForbidden
		}

		entry := img
		entry.ID = uuid.NewString()
		entry.LikeCount = 0
		entry.ShareCount = 0
		entry.Deleted = false
		entry.CreatedAt = time.Now()

		event.Gallery = append(event.Gallery, entry)
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
		return &entry, nil
	}
	return nil, domain.ErrConflict
}

func (s *eventService) LikeGalleryImage(ctx context.Context, eventID, imageID string) (*domain.GalleryImage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		img := event.FindGalleryImage(imageID)
		if img == nil || img.Deleted {
			return nil, domain.ErrNotFound
		}
		img.LikeCount++
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("update event: %w", err)
		}
		cp := *img
		return &cp, nil
	}
	return nil, domain.ErrConflict
}

func (s *eventService) DeleteGalleryImage(ctx context.Context, eventID, imageID string, identity domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for attempt := 0; attempt < casRetries; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		img := event.FindGalleryImage(imageID)
		if img == nil || img.Deleted {
			return domain.ErrNotFound
		}

		isOwner := identity.SenderID != "" && identity.SenderID == event.OwnerID
		isUploader := (img.UploaderKind == domain.GuestKindSender && img.UploaderID == identity.SenderID && identity.SenderID != "") ||
			(img.UploaderKind == domain.GuestKindReceiver && img.UploaderID == identity.ReceiverID && identity.ReceiverID != "")
		if !isOwner && !isUploader {
			return domain.ErrForbidden
		}

		img.Deleted = true
		event.UpdatedAt = time.Now()
		if err := s.eventRepo.Update(ctx, event); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	}
	return domain.ErrConflict
}
