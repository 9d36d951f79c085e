// internal/domain/account.go
package domain

import "time"

// CurrencyName is the display name of the bot's virtual currency.
const CurrencyName = "Rebels"

// Account is a persisted balance record keyed by the platform user ID.
type Account struct {
	UserID      string    `json:"user_id"`      // Opaque ID issued by the chat platform
	DisplayName string    `json:"display_name"` // Last name the platform showed for the user, may be empty
	Balance     int64     `json:"balance"`      // Whole Rebels, may go negative only via operator grants
	CreatedAt   time.Time `json:"created_at"`   // Timestamp of lazy creation
	UpdatedAt   time.Time `json:"updated_at"`   // Timestamp of last balance change
}

// NewAccount creates a zero-balance Account.
func NewAccount(userID string) *Account {
	now := time.Now().UTC()
	return &Account{
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transfer is the outcome of a committed transfer between two accounts.
type Transfer struct {
	SenderID        string `json:"sender_id"`
	ReceiverID      string `json:"receiver_id"`
	Amount          int64  `json:"amount"`
	SenderBalance   int64  `json:"sender_balance"`
	ReceiverBalance int64  `json:"receiver_balance"`
}

// RankedAccount is one leaderboard row. Rank starts at 1.
type RankedAccount struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
	Tier        string `json:"tier"`
}

// Rank numbers accounts in the order given and attaches each one's tier.
func Rank(accounts []Account) []RankedAccount {
	ranked := make([]RankedAccount, 0, len(accounts))
	for i, a := range accounts {
		ranked = append(ranked, RankedAccount{
			Rank:        i + 1,
			UserID:      a.UserID,
			DisplayName: a.DisplayName,
			Balance:     a.Balance,
			Tier:        TierFor(a.Balance).Name,
		})
	}
	return ranked
}
