// Package bot turns decoded chat commands into replies over the account store.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"rebels-bot/internal/domain"
	"rebels-bot/internal/service"
	"rebels-bot/internal/util"
)

// DefaultLeaderboardSize is the number of accounts shown by the leaderboard.
const DefaultLeaderboardSize = 10

const footer = "Rebels System"

// Router dispatches commands to their handlers. It holds no state besides
// the account service, so one Router serves concurrent interactions.
type Router struct {
	accounts        service.AccountService
	logger          *slog.Logger
	leaderboardSize int
}

// NewRouter creates a Router. A non-positive leaderboardSize falls back to DefaultLeaderboardSize.
func NewRouter(accounts service.AccountService, logger *slog.Logger, leaderboardSize int) *Router {
	if leaderboardSize <= 0 {
		leaderboardSize = DefaultLeaderboardSize
	}
	return &Router{
		accounts:        accounts,
		logger:          logger,
		leaderboardSize: leaderboardSize,
	}
}

// Dispatch handles one command. Validation and business-rule failures come
// back as replies; only storage failures are returned as errors.
func (r *Router) Dispatch(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	logger := r.logger.With("interaction_id", cmd.ID, "command", cmd.Name, "caller", cmd.Caller.ID)

	var (
		reply domain.Reply
		err   error
	)
	switch cmd.Name {
	case domain.CommandBalance:
		reply, err = r.balance(ctx, cmd)
	case domain.CommandTransfer:
		reply, err = r.transfer(ctx, cmd)
	case domain.CommandLeaderboard:
		reply, err = r.leaderboard(ctx)
	default:
		reply = errorReply(domain.ReplyUnknownCommand, fmt.Sprintf("Unknown command %q.", cmd.Name))
	}
	if err != nil {
		logger.Error("Command failed", "error", err)
		return domain.Reply{}, err
	}
	logger.Info("Command handled", "reply", reply.Kind)

	r.rememberNames(ctx, logger, cmd.Caller)
	if reply.Kind == domain.ReplyTransfer {
		r.rememberNames(ctx, logger, cmd.Target)
	}
	return reply, nil
}

// rememberNames keeps display names fresh for leaderboards. A failure here
// never changes the reply.
func (r *Router) rememberNames(ctx context.Context, logger *slog.Logger, users ...domain.User) {
	for _, u := range users {
		if err := r.accounts.RememberName(ctx, u.ID, u.DisplayName); err != nil {
			logger.Warn("Failed to remember display name", "user_id", u.ID, "error", err)
		}
	}
}

func (r *Router) balance(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	account, err := r.accounts.GetOrCreate(ctx, cmd.Caller.ID)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("balance: %w", err)
	}
	return domain.Reply{
		Kind:        domain.ReplyBalance,
		Title:       "Rebels Balance",
		Description: fmt.Sprintf("Balance: %s", formatAmount(account.Balance)),
		Fields: []domain.Field{
			{Name: "User ID", Value: account.UserID, UserID: account.UserID},
			{Name: "Rank", Value: domain.TierFor(account.Balance).Name},
		},
		Color:  domain.ColorGold,
		Footer: footer,
	}, nil
}

func (r *Router) transfer(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	if cmd.Target.ID == "" {
		return errorReply(domain.ReplyInvalidArguments, "Tell me who should receive the Rebels."), nil
	}

	result, err := r.accounts.Transfer(ctx, cmd.Caller.ID, cmd.Target.ID, cmd.Amount)
	switch {
	case errors.Is(err, util.ErrSelfTransfer):
		return errorReply(domain.ReplySelfTransfer, "You cannot transfer to yourself!"), nil
	case errors.Is(err, util.ErrInsufficientFunds):
		return errorReply(domain.ReplyInsufficientFunds, "Your balance is not enough!"), nil
	case errors.Is(err, util.ErrInvalidAmount):
		return errorReply(domain.ReplyInvalidAmount, "The amount must be a positive whole number."), nil
	case errors.Is(err, util.ErrInvalidInput):
		return errorReply(domain.ReplyInvalidArguments, "Tell me who should receive the Rebels."), nil
	case err != nil:
		return domain.Reply{}, fmt.Errorf("transfer: %w", err)
	}

	receiverName := cmd.Target.DisplayName
	if receiverName == "" {
		receiverName = cmd.Target.ID
	}
	return domain.Reply{
		Kind:        domain.ReplyTransfer,
		Title:       "Transfer Successful!",
		Description: fmt.Sprintf("%s sent to %s", formatAmount(result.Amount), receiverName),
		Fields: []domain.Field{
			{Name: "Sender", Value: displayName(cmd.Caller), UserID: result.SenderID, Inline: true},
			{Name: "Receiver", Value: displayName(cmd.Target), UserID: result.ReceiverID, Inline: true},
			{Name: "Amount", Value: formatAmount(result.Amount), Inline: true},
		},
		Color:  domain.ColorGreen,
		Footer: footer,
	}, nil
}

func (r *Router) leaderboard(ctx context.Context) (domain.Reply, error) {
	accounts, err := r.accounts.TopByBalance(ctx, r.leaderboardSize)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("leaderboard: %w", err)
	}
	if len(accounts) == 0 {
		return domain.Reply{
			Kind:        domain.ReplyNoData,
			Description: "There is no data on the leaderboard yet.",
			Ephemeral:   true,
		}, nil
	}
	return domain.Reply{
		Kind:    domain.ReplyLeaderboard,
		Title:   "Rebels Leaderboard",
		Entries: domain.Rank(accounts),
		Color:   domain.ColorBlue,
		Footer:  footer,
	}, nil
}

func errorReply(kind domain.ReplyKind, msg string) domain.Reply {
	return domain.Reply{
		Kind:        kind,
		Description: msg,
		Color:       domain.ColorRed,
		Ephemeral:   true,
	}
}

func displayName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// formatAmount renders an amount with its currency, e.g. "40 Rebels".
func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + " " + domain.CurrencyName
}
