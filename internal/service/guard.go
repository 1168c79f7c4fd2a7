package service

import (
	"context"
	"fmt"

	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"
)

// GuardImpl implements ports.Guard. It answers membership questions about
// an already-verified caller identity and never re-checks credentials.
type GuardImpl struct {
	cardRepo ports.CardRepository
	userRepo ports.UserRepository
}

// NewGuard creates a new GuardImpl.
func NewGuard(cardRepo ports.CardRepository, userRepo ports.UserRepository) *GuardImpl {
	return &GuardImpl{
		cardRepo: cardRepo,
		userRepo: userRepo,
	}
}

// OwnsCard reports whether the card with the given number belongs to the
// user with the given email.
func (g *GuardImpl) OwnsCard(ctx context.Context, email, cardNumber string) (bool, error) {
	user, err := g.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return false, nil
	}

	card, err := g.cardRepo.GetByNumber(ctx, cardNumber)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return false, nil
	}

	return card.UserID == user.ID, nil
}

// IsAdmin reports whether the user with the given email carries the ADMIN
// role.
func (g *GuardImpl) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := g.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return false, nil
	}
	return user.IsAdmin(), nil
}
