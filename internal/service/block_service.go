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

// BlockServiceImpl implements ports.BlockService.
type BlockServiceImpl struct {
	blockRepo  ports.BlockRequestRepository
	cardRepo   ports.CardRepository
	userRepo   ports.UserRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewBlockService creates a new BlockServiceImpl.
func NewBlockService(
	blockRepo ports.BlockRequestRepository,
	cardRepo ports.CardRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *BlockServiceImpl {
	return &BlockServiceImpl{
		blockRepo:  blockRepo,
		cardRepo:   cardRepo,
		userRepo:   userRepo,
		transactor: transactor,
		log:        log,
	}
}

// RequestBlock files a pending block request for a card the caller owns.
func (s *BlockServiceImpl) RequestBlock(ctx context.Context, cardID int64, callerEmail string) (int64, error) {
	card, err := s.cardRepo.GetByOwnerAndID(ctx, callerEmail, cardID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return 0, apperror.NotFound("Card", fmt.Sprintf("id: %d", cardID))
	}
	if card.Status == domain.CardStatusBlocked {
		return 0, apperror.Conflict("Card is already blocked")
	}

	req := &domain.BlockRequest{
		UserID:      card.UserID,
		CardID:      card.ID,
		RequestedAt: time.Now().UTC(),
		Processed:   false,
	}
	if err := s.blockRepo.Create(ctx, req); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("create block request: %w", err))
	}

	s.log.Info().
		Int64("request_id", req.ID).
		Str("card", card.MaskedNumber()).
		Msg("Block request filed")

	return req.ID, nil
}

// ApproveBlock blocks the card named by a pending request. The operation is
// idempotent: the request row is locked first, and an already-processed
// request returns success without touching the card. Lock order is always
// request row then card row, so concurrent approvals serialize cleanly.
func (s *BlockServiceImpl) ApproveBlock(ctx context.Context, requestID int64) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	req, err := s.blockRepo.GetByIDForUpdate(ctx, dbTx, requestID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock block request: %w", err))
	}
	if req == nil {
		return apperror.NotFound("Block request", fmt.Sprintf("id: %d", requestID))
	}
	if req.Processed {
		// Already approved; nothing to do.
		return dbTx.Commit(ctx)
	}

	card, err := s.cardRepo.GetByIDForUpdate(ctx, dbTx, req.CardID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock card: %w", err))
	}
	if card == nil {
		return apperror.NotFound("Card", fmt.Sprintf("id: %d", req.CardID))
	}

	if card.Status != domain.CardStatusBlocked {
		if err := s.cardRepo.UpdateStatus(ctx, dbTx, card.ID, domain.CardStatusBlocked); err != nil {
			return apperror.InternalError(fmt.Errorf("block card: %w", err))
		}
	}
	if err := s.blockRepo.MarkProcessed(ctx, dbTx, req.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("mark processed: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("request_id", req.ID).
		Str("card", card.MaskedNumber()).
		Msg("Block request approved")

	return nil
}

// ListPending returns a page of unprocessed block requests.
func (s *BlockServiceImpl) ListPending(ctx context.Context, page, size int) ([]domain.BlockRequest, error) {
	reqs, err := s.blockRepo.ListPending(ctx, page, size)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pending: %w", err))
	}
	return reqs, nil
}
