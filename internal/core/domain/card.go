package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus represents the lifecycle state of a payment card.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// IsValid reports whether s is one of the known statuses.
func (s CardStatus) IsValid() bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	}
	return false
}

// Card represents a payment card belonging to a user.
// Number is the surface key, formatted "NNNN NNNN NNNN NNNN" and unique
// across all cards.
type Card struct {
	ID             int64           `json:"id"`
	Number         string          `json:"card_number"`
	UserID         int64           `json:"user_id"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Status         CardStatus      `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsActive reports whether the card may participate in a transfer.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}

// MaskedNumber renders the card number with all but the last four digits
// hidden, e.g. "**** **** **** 1234".
func (c *Card) MaskedNumber() string {
	return MaskNumber(c.Number)
}

// MaskNumber masks a full card number, keeping the last group visible.
func MaskNumber(number string) string {
	if len(number) < 4 {
		return number
	}
	return "**** **** **** " + number[len(number)-4:]
}

// OrderNumbers maps an unordered pair of card numbers to a canonical
// (first, second) sequence. Every operation locking more than one card row
// acquires locks in this order, so two concurrent transfers over the same
// pair, even in opposite directions, never circular-wait.
func OrderNumbers(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
