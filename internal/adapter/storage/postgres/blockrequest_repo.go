package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-card-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const blockRequestColumns = `id, user_id, card_id, requested_at, processed`

// BlockRequestRepo implements ports.BlockRequestRepository.
type BlockRequestRepo struct {
	pool Pool
}

// NewBlockRequestRepo creates a new BlockRequestRepo.
func NewBlockRequestRepo(pool Pool) *BlockRequestRepo {
	return &BlockRequestRepo{pool: pool}
}

func scanBlockRequest(row rowScanner) (*domain.BlockRequest, error) {
	br := &domain.BlockRequest{}
	err := row.Scan(&br.ID, &br.UserID, &br.CardID, &br.RequestedAt, &br.Processed)
	if err != nil {
		return nil, err
	}
	return br, nil
}

// Create inserts a pending block request and fills in the generated ID.
func (r *BlockRequestRepo) Create(ctx context.Context, req *domain.BlockRequest) error {
	query := `INSERT INTO block_requests (user_id, card_id, requested_at, processed)
		VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		req.UserID, req.CardID, req.RequestedAt, req.Processed,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("insert block request: %w", err)
	}
	return nil
}

// GetByID fetches a block request by id (without locking).
func (r *BlockRequestRepo) GetByID(ctx context.Context, id int64) (*domain.BlockRequest, error) {
	query := `SELECT ` + blockRequestColumns + ` FROM block_requests WHERE id = $1`

	br, err := scanBlockRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get block request by id: %w", err)
	}
	return br, nil
}

// GetByIDForUpdate fetches a block request by id with pessimistic locking.
// This MUST be called within a transaction.
func (r *BlockRequestRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.BlockRequest, error) {
	query := `SELECT ` + blockRequestColumns + ` FROM block_requests WHERE id = $1 FOR UPDATE`

	br, err := scanBlockRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get block request for update: %w", err)
	}
	return br, nil
}

// MarkProcessed flips the processed flag within a transaction.
func (r *BlockRequestRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `UPDATE block_requests SET processed = TRUE WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark block request processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("block request not found: %d", id)
	}
	return nil
}

// ListPending returns a page of unprocessed block requests ordered by id.
func (r *BlockRequestRepo) ListPending(ctx context.Context, page, size int) ([]domain.BlockRequest, error) {
	query := `SELECT ` + blockRequestColumns + ` FROM block_requests
		WHERE processed = FALSE ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list pending block requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.BlockRequest
	for rows.Next() {
		br, err := scanBlockRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block request: %w", err)
		}
		reqs = append(reqs, *br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block requests: %w", err)
	}
	return reqs, nil
}
