// internal/domain/reply.go
package domain

// ReplyKind classifies a reply so adapters can render it.
type ReplyKind string

const (
	ReplyBalance           ReplyKind = "balance"
	ReplyTransfer          ReplyKind = "transfer"
	ReplyLeaderboard       ReplyKind = "leaderboard"
	ReplySelfTransfer      ReplyKind = "self_transfer"
	ReplyInsufficientFunds ReplyKind = "insufficient_funds"
	ReplyInvalidAmount     ReplyKind = "invalid_amount"
	ReplyInvalidArguments  ReplyKind = "invalid_arguments"
	ReplyNoData            ReplyKind = "no_data"
	ReplyUnknownCommand    ReplyKind = "unknown_command"
)

// Color values carried over to platforms that support accent colors.
const (
	ColorGold  = 0xffd700
	ColorGreen = 0x00ff00
	ColorBlue  = 0x1e90ff
	ColorRed   = 0xff4040
)

// Field is a labelled value inside a reply. UserID is set when the value
// refers to a user, so adapters can render a mention.
type Field struct {
	Name   string
	Value  string
	UserID string
	Inline bool
}

// Reply is the structured payload the router hands back to an adapter.
type Reply struct {
	Kind        ReplyKind
	Title       string
	Description string
	Fields      []Field
	Entries     []RankedAccount // Leaderboard rows, in rank order
	Color       int
	Footer      string
	// Ephemeral replies should only be visible to the caller where the
	// platform supports it.
	Ephemeral bool
}

// IsError reports whether the reply describes a rejected command.
func (r Reply) IsError() bool {
	switch r.Kind {
	case ReplySelfTransfer, ReplyInsufficientFunds, ReplyInvalidAmount, ReplyInvalidArguments, ReplyUnknownCommand:
		return true
	}
	return false
}
