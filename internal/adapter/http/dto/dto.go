package dto

import (
	"time"

	"bank-card-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// --- Auth ---

// SignInRequest is the body of POST /auth/sign-in.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPairResponse carries an issued access/refresh pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// --- Cards (admin surface: full card number visible) ---

// CreateCardRequest is the body of POST /api/v1/cards.
type CreateCardRequest struct {
	Number         string          `json:"number" binding:"required,card_number"`
	UserID         int64           `json:"user_id" binding:"required"`
	ExpirationDate time.Time       `json:"expiration_date" binding:"required"`
	Status         string          `json:"status" binding:"required"`
	Balance        decimal.Decimal `json:"balance"`
}

// UpdateCardRequest is the body of PATCH /api/v1/cards/:id. Absent fields
// are left unchanged.
type UpdateCardRequest struct {
	Number         *string          `json:"number" binding:"omitempty,card_number"`
	UserID         *int64           `json:"user_id"`
	ExpirationDate *time.Time       `json:"expiration_date"`
	Status         *string          `json:"status"`
	Balance        *decimal.Decimal `json:"balance"`
}

// CardResponse is the admin view of a card.
type CardResponse struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	UserID         int64  `json:"user_id"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
	Balance        string `json:"balance"`
}

// MaskedCardResponse is the cardholder view: the number is always masked.
type MaskedCardResponse struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
	Balance        string `json:"balance"`
}

// ToCardResponse maps a domain card to its admin representation.
func ToCardResponse(c *domain.Card) CardResponse {
	return CardResponse{
		ID:             c.ID,
		Number:         c.Number,
		UserID:         c.UserID,
		ExpirationDate: c.ExpirationDate.Format("2006-01-02"),
		Status:         string(c.Status),
		Balance:        c.Balance.String(),
	}
}

// ToMaskedCardResponse maps a domain card to its cardholder representation.
func ToMaskedCardResponse(c *domain.Card) MaskedCardResponse {
	return MaskedCardResponse{
		ID:             c.ID,
		Number:         c.MaskedNumber(),
		ExpirationDate: c.ExpirationDate.Format("2006-01-02"),
		Status:         string(c.Status),
		Balance:        c.Balance.String(),
	}
}

// --- Users (admin surface) ---

// CreateUserRequest is the body of POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Roles    string `json:"roles"`
}

// UpdateUserRequest is the body of PATCH /api/v1/users/:id.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=64"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Roles    *string `json:"roles"`
}

// UserResponse is the admin view of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Roles    string `json:"roles"`
}

// ToUserResponse maps a domain user, never exposing the password hash.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
	}
}

// --- Transfers and blocks ---

// TransferRequest is the body of POST /api/v1/user_cards/transfer.
type TransferRequest struct {
	FromNumber string          `json:"from_number" binding:"required,card_number"`
	ToNumber   string          `json:"to_number" binding:"required,card_number"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// BlockCardRequest is the body of POST /api/v1/user_cards/block.
type BlockCardRequest struct {
	CardID int64 `json:"card_id" binding:"required"`
}

// BlockRequestResponse describes a filed block request.
type BlockRequestResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	CardID      int64  `json:"card_id"`
	RequestedAt string `json:"requested_at"`
	Processed   bool   `json:"processed"`
}

// ApproveBlockRequest is the body of POST /api/v1/user_cards/block-requests.
type ApproveBlockRequest struct {
	RequestID int64 `json:"request_id" binding:"required"`
}

// ToBlockRequestResponse maps a domain block request.
func ToBlockRequestResponse(br *domain.BlockRequest) BlockRequestResponse {
	return BlockRequestResponse{
		ID:          br.ID,
		UserID:      br.UserID,
		CardID:      br.CardID,
		RequestedAt: br.RequestedAt.Format(time.RFC3339),
		Processed:   br.Processed,
	}
}
