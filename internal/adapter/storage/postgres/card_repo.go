package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-card-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// cardColumns selects the balance as text so decimal parsing never goes
// through a float.
const cardColumns = `id, card_number, user_id, expiration_date, status, balance::text, created_at, updated_at`

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	c := &domain.Card{}
	var balance string
	err := row.Scan(
		&c.ID, &c.Number, &c.UserID, &c.ExpirationDate,
		&c.Status, &balance, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	return c, nil
}

// Create inserts a new card and fills in the generated ID.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (card_number, user_id, expiration_date, status, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		c.Number, c.UserID, c.ExpirationDate, c.Status,
		c.Balance.String(), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID fetches a card by its surrogate id (without locking).
func (r *CardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	c, err := scanCard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by id: %w", err)
	}
	return c, nil
}

// GetByNumber fetches a card by its card number (non-locking read).
func (r *CardRepo) GetByNumber(ctx context.Context, number string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1`

	c, err := scanCard(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by number: %w", err)
	}
	return c, nil
}

// GetByNumberForUpdate fetches a card by number with pessimistic locking.
// This MUST be called within a transaction.
func (r *CardRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1 FOR UPDATE`

	c, err := scanCard(tx.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card for update by number: %w", err)
	}
	return c, nil
}

// GetByIDForUpdate fetches a card by id with pessimistic locking.
// This MUST be called within a transaction.
func (r *CardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`

	c, err := scanCard(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card for update by id: %w", err)
	}
	return c, nil
}

// UpdateBalance updates a card's balance within a transaction.
func (r *CardRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance decimal.Decimal) error {
	query := `UPDATE cards SET balance = $1::numeric, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance.String(), id)
	if err != nil {
		return fmt.Errorf("update card balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

// UpdateStatus updates a card's status within a transaction.
func (r *CardRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status domain.CardStatus) error {
	query := `UPDATE cards SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update card status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

// Update rewrites all mutable card fields.
func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	query := `UPDATE cards SET card_number = $1, user_id = $2, expiration_date = $3,
		status = $4, balance = $5::numeric, updated_at = NOW() WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query,
		c.Number, c.UserID, c.ExpirationDate, c.Status, c.Balance.String(), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", c.ID)
	}
	return nil
}

// Delete removes a card by id.
func (r *CardRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

// List returns a page of all cards ordered by id.
func (r *CardRepo) List(ctx context.Context, page, size int) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// ListByOwner returns a page of the cards owned by the user with the given
// email.
func (r *CardRepo) ListByOwner(ctx context.Context, email string, page, size int) ([]domain.Card, error) {
	query := `SELECT c.id, c.card_number, c.user_id, c.expiration_date, c.status, c.balance::text, c.created_at, c.updated_at
		FROM cards c JOIN users u ON u.id = c.user_id
		WHERE u.email = $1 ORDER BY c.id LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, email, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list cards by owner: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// GetByOwnerAndID fetches a single card only if it belongs to the user with
// the given email.
func (r *CardRepo) GetByOwnerAndID(ctx context.Context, email string, cardID int64) (*domain.Card, error) {
	query := `SELECT c.id, c.card_number, c.user_id, c.expiration_date, c.status, c.balance::text, c.created_at, c.updated_at
		FROM cards c JOIN users u ON u.id = c.user_id
		WHERE u.email = $1 AND c.id = $2`

	c, err := scanCard(r.pool.QueryRow(ctx, query, email, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by owner and id: %w", err)
	}
	return c, nil
}

func collectCards(rows pgx.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}
