package service

import (
	"context"
	"fmt"
	"time"

	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// CardServiceImpl implements ports.CardService, the administrative card
// management surface.
type CardServiceImpl struct {
	cardRepo ports.CardRepository
	userRepo ports.UserRepository
	log      zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(cardRepo ports.CardRepository, userRepo ports.UserRepository, log zerolog.Logger) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo: cardRepo,
		userRepo: userRepo,
		log:      log,
	}
}

// List returns a page of all cards.
func (s *CardServiceImpl) List(ctx context.Context, page, size int) ([]domain.Card, error) {
	cards, err := s.cardRepo.List(ctx, page, size)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// Create issues a new card for an existing user.
func (s *CardServiceImpl) Create(ctx context.Context, req ports.CreateCardRequest) (*domain.Card, error) {
	if !req.Status.IsValid() {
		return nil, apperror.InvalidArgument("Unknown card status: " + string(req.Status))
	}
	if req.Balance.IsNegative() {
		return nil, apperror.InvalidArgument("Balance must not be negative")
	}

	owner, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find owner: %w", err))
	}
	if owner == nil {
		return nil, apperror.NotFound("User", fmt.Sprintf("id: %d", req.UserID))
	}

	existing, err := s.cardRepo.GetByNumber(ctx, req.Number)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check card number: %w", err))
	}
	if existing != nil {
		return nil, apperror.Conflict("Card number already taken")
	}

	now := time.Now().UTC()
	card := &domain.Card{
		Number:         req.Number,
		UserID:         req.UserID,
		ExpirationDate: req.ExpirationDate,
		Status:         req.Status,
		Balance:        req.Balance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().
		Int64("card_id", card.ID).
		Str("card", card.MaskedNumber()).
		Int64("user_id", card.UserID).
		Msg("Card created")

	return card, nil
}

// Update applies a partial update to a card. Nil fields are left unchanged.
func (s *CardServiceImpl) Update(ctx context.Context, req ports.UpdateCardRequest) error {
	card, err := s.cardRepo.GetByID(ctx, req.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return apperror.NotFound("Card", fmt.Sprintf("id: %d", req.ID))
	}

	if req.Number != nil && *req.Number != card.Number {
		existing, err := s.cardRepo.GetByNumber(ctx, *req.Number)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("check card number: %w", err))
		}
		if existing != nil {
			return apperror.Conflict("Card number already taken")
		}
		card.Number = *req.Number
	}
	if req.UserID != nil {
		owner, err := s.userRepo.GetByID(ctx, *req.UserID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("find owner: %w", err))
		}
		if owner == nil {
			return apperror.NotFound("User", fmt.Sprintf("id: %d", *req.UserID))
		}
		card.UserID = *req.UserID
	}
	if req.ExpirationDate != nil {
		card.ExpirationDate = *req.ExpirationDate
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return apperror.InvalidArgument("Unknown card status: " + string(*req.Status))
		}
		card.Status = *req.Status
	}
	if req.Balance != nil {
		if req.Balance.IsNegative() {
			return apperror.InvalidArgument("Balance must not be negative")
		}
		card.Balance = *req.Balance
	}

	if err := s.cardRepo.Update(ctx, card); err != nil {
		return apperror.InternalError(fmt.Errorf("update card: %w", err))
	}
	return nil
}

// Delete removes a card.
func (s *CardServiceImpl) Delete(ctx context.Context, id int64) error {
	card, err := s.cardRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return apperror.NotFound("Card", fmt.Sprintf("id: %d", id))
	}

	if err := s.cardRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete card: %w", err))
	}

	s.log.Info().Int64("card_id", id).Msg("Card deleted")
	return nil
}
