package domain

import "time"

// BlockRequest is a user-initiated request to block one of their cards.
// It is created pending and transitions to processed exactly once, when an
// administrator approves it and the target card becomes BLOCKED.
type BlockRequest struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CardID      int64     `json:"card_id"`
	RequestedAt time.Time `json:"requested_at"`
	Processed   bool      `json:"processed"`
}
