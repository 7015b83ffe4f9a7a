package services

import (
	"context"

	"invitease/internal/domain"
)

type identityResolver struct {
	senderRepo   domain.SenderRepository
	receiverRepo domain.ReceiverRepository
}

// NewIdentityResolver creates an IdentityResolver over the two account
// stores. Either repository may be nil; a missing collaborator behaves as
// "no account found" so resolution still works in partial deployments.
func NewIdentityResolver(senderRepo domain.SenderRepository, receiverRepo domain.ReceiverRepository) domain.IdentityResolver {
	return &identityResolver{senderRepo: senderRepo, receiverRepo: receiverRepo}
}

func (r *identityResolver) Resolve(ctx context.Context, contact string, fallback *domain.ProfileSnapshot) (*domain.ResolvedIdentity, error) {
	if contact == "" {
		return nil, domain.ErrInvalidInput
	}

	// Full accounts win over light accounts, so look them up first.
	if r.senderRepo != nil {
		if sender, err := r.senderRepo.GetByContact(ctx, contact); err == nil && sender != nil {
			return &domain.ResolvedIdentity{
				Kind:   domain.GuestKindSender,
				Sender: sender,
				Snapshot: domain.ProfileSnapshot{
					Username:     sender.Username,
					FullName:     sender.FullName,
					ProfileImage: sender.ProfileImage,
				},
			}, nil
		}
	}

	if r.receiverRepo != nil {
		if receiver, err := r.receiverRepo.GetByContact(ctx, contact); err == nil && receiver != nil {
			return &domain.ResolvedIdentity{
				Kind:     domain.GuestKindReceiver,
				Receiver: receiver,
				Snapshot: domain.ProfileSnapshot{
					Username:     receiver.Username,
					FullName:     receiver.FullName,
					ProfileImage: receiver.ProfileImage,
				},
			}, nil
		}
	}

	resolved := &domain.ResolvedIdentity{Kind: domain.GuestKindExternal}
	if fallback != nil {
		resolved.Snapshot = *fallback
	}
	return resolved, nil
}
