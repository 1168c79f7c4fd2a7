package ports

import (
	"context"

	"bank-card-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CardRepository defines persistence operations for cards.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	GetByNumber(ctx context.Context, number string) (*domain.Card, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status domain.CardStatus) error
	Update(ctx context.Context, card *domain.Card) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, size int) ([]domain.Card, error)
	ListByOwner(ctx context.Context, email string, page, size int) ([]domain.Card, error)
	GetByOwnerAndID(ctx context.Context, email string, cardID int64) (*domain.Card, error)
}

// BlockRequestRepository defines persistence operations for block requests.
type BlockRequestRepository interface {
	Create(ctx context.Context, req *domain.BlockRequest) error
	GetByID(ctx context.Context, id int64) (*domain.BlockRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.BlockRequest, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error
	ListPending(ctx context.Context, page, size int) ([]domain.BlockRequest, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, size int) ([]domain.User, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
