package ports

import (
	"context"
	"time"

	"bank-card-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(email, roles string) (string, time.Time, error)
	GenerateRefresh(email string) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Email string
	Roles string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// Guard answers authorization questions about an already-verified caller
// identity. It performs membership testing only and never re-verifies
// credentials.
type Guard interface {
	OwnsCard(ctx context.Context, email, cardNumber string) (bool, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// --- Service Ports (Business Logic) ---

// TransferService moves funds between two cards of the same user.
type TransferService interface {
	// Transfer is NOT idempotent: retrying a call that may have already
	// committed performs a second, distinct transfer.
	Transfer(ctx context.Context, req TransferRequest) error
}

// TransferRequest holds validated input for a funds transfer.
type TransferRequest struct {
	FromNumber  string
	ToNumber    string
	Amount      decimal.Decimal
	CallerEmail string
}

// BlockService manages the block-request workflow.
type BlockService interface {
	// RequestBlock files a pending block request for a card the caller owns.
	RequestBlock(ctx context.Context, cardID int64, callerEmail string) (int64, error)
	// ApproveBlock is idempotent: repeated or concurrent approvals of the
	// same request block the card exactly once.
	ApproveBlock(ctx context.Context, requestID int64) error
	ListPending(ctx context.Context, page, size int) ([]domain.BlockRequest, error)
}

// CardService is the administrative card management surface.
type CardService interface {
	List(ctx context.Context, page, size int) ([]domain.Card, error)
	Create(ctx context.Context, req CreateCardRequest) (*domain.Card, error)
	Update(ctx context.Context, req UpdateCardRequest) error
	Delete(ctx context.Context, id int64) error
}

// CreateCardRequest holds input for card issuance.
type CreateCardRequest struct {
	Number         string
	UserID         int64
	ExpirationDate time.Time
	Status         domain.CardStatus
	Balance        decimal.Decimal
}

// UpdateCardRequest holds partial input for card updates; nil fields are
// left unchanged.
type UpdateCardRequest struct {
	ID             int64
	Number         *string
	UserID         *int64
	ExpirationDate *time.Time
	Status         *domain.CardStatus
	Balance        *decimal.Decimal
}

// UserService is the administrative user management surface plus the
// per-user card views.
type UserService interface {
	List(ctx context.Context, page, size int) ([]domain.User, error)
	Create(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	Update(ctx context.Context, req UpdateUserRequest) error
	Delete(ctx context.Context, id int64) error
	ReadOwnCards(ctx context.Context, email string, page, size int) ([]domain.Card, error)
	ReadOwnCard(ctx context.Context, email string, cardID int64) (*domain.Card, error)
}

// CreateUserRequest holds input for user creation.
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	Roles    string
}

// UpdateUserRequest holds partial input for user updates.
type UpdateUserRequest struct {
	ID       int64
	Username *string
	Email    *string
	Password *string
	Roles    *string
}

// AuthService defines authentication business logic.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// TokenPair is the issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
