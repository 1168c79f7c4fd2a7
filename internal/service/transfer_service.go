package service

import (
	"context"
	"fmt"

	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	cardRepo   ports.CardRepository
	userRepo   ports.UserRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	cardRepo ports.CardRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		cardRepo:   cardRepo,
		userRepo:   userRepo,
		transactor: transactor,
		log:        log,
	}
}

// Transfer moves funds between two cards of the same user with pessimistic
// locking. The two card rows are always locked in lexicographic order of
// their numbers, so two opposite-direction transfers between the same pair
// of cards can never deadlock.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) error {
	if req.FromNumber == req.ToNumber {
		return apperror.InvalidArgument("Card number must be different")
	}
	if !req.Amount.IsPositive() {
		return apperror.InvalidArgument("Transfer amount must be positive")
	}

	caller, err := s.userRepo.GetByEmail(ctx, req.CallerEmail)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find caller: %w", err))
	}
	if caller == nil {
		return apperror.NotFound("User", req.CallerEmail)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both rows in canonical order, then sort out which is which.
	firstNum, secondNum := domain.OrderNumbers(req.FromNumber, req.ToNumber)

	first, err := s.cardRepo.GetByNumberForUpdate(ctx, dbTx, firstNum)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock card: %w", err))
	}
	if first == nil {
		return apperror.NotFound("Card", "Card Number: "+firstNum)
	}

	second, err := s.cardRepo.GetByNumberForUpdate(ctx, dbTx, secondNum)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock card: %w", err))
	}
	if second == nil {
		return apperror.NotFound("Card", "Card Number: "+secondNum)
	}

	from, to := first, second
	if from.Number != req.FromNumber {
		from, to = second, first
	}

	if from.UserID != caller.ID || to.UserID != caller.ID {
		return apperror.Forbidden("Both cards must belong to the caller")
	}
	if !from.IsActive() || !to.IsActive() {
		return apperror.ErrCardNotActive()
	}
	if from.Balance.LessThan(req.Amount) {
		return apperror.ErrInsufficientBalance()
	}

	newFrom := from.Balance.Sub(req.Amount)
	newTo := to.Balance.Add(req.Amount)

	if err := s.cardRepo.UpdateBalance(ctx, dbTx, from.ID, newFrom); err != nil {
		return apperror.InternalError(fmt.Errorf("debit card: %w", err))
	}
	if err := s.cardRepo.UpdateBalance(ctx, dbTx, to.ID, newTo); err != nil {
		return apperror.InternalError(fmt.Errorf("credit card: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("from", from.MaskedNumber()).
		Str("to", to.MaskedNumber()).
		Str("amount", req.Amount.String()).
		Msg("Transfer completed")

	return nil
}
