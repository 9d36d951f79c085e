// Package main provides operator utilities for the Rebels account store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rebels-bot/internal/config"
	"rebels-bot/internal/domain"
	"rebels-bot/internal/repository/sqlstore"
	"rebels-bot/internal/service"
	"rebels-bot/internal/util"
	"rebels-bot/pkg/db"
)

const usage = `usage: rebelsctl <command> [flags]

commands:
  grant   -user ID -amount N   add N Rebels to a user (N may be negative)
  balance -user ID             show a user's balance
  top     [-limit N]           show the richest users

STORAGE_URI selects the database, as for the bot.`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rebelsctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return err
	}
	util.InitLogger("warn", "text")

	database, err := db.Open(ctx, cfg.DB())
	if err != nil {
		return err
	}
	defer database.Close()

	svc := service.NewAccountService(database, database, sqlstore.NewAccountRepository(),
		db.BeginTx, db.CommitTx, db.RollbackTx, cfg.StoreTimeout)

	return runCommand(ctx, svc, args, out, cfg.LeaderboardSize)
}

func runCommand(ctx context.Context, svc service.AccountService, args []string, out io.Writer, defaultLimit int) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "platform user ID")
	amount := fs.Int64("amount", 0, "signed amount of Rebels")
	limit := fs.Int("limit", defaultLimit, "number of accounts to list")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	switch args[0] {
	case "grant":
		if *user == "" || *amount == 0 {
			return errors.New("grant: -user and a non-zero -amount are required")
		}
		account, err := svc.IncrementBalance(ctx, *user, *amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s now has %d %s (%s)\n", account.UserID, account.Balance, domain.CurrencyName, domain.TierFor(account.Balance).Name)
	case "balance":
		if *user == "" {
			return errors.New("balance: -user is required")
		}
		account, err := svc.GetAccount(ctx, *user)
		if errors.Is(err, util.ErrNotFound) {
			fmt.Fprintf(out, "%s has no account\n", *user)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s has %d %s (%s)\n", account.UserID, account.Balance, domain.CurrencyName, domain.TierFor(account.Balance).Name)
	case "top":
		accounts, err := svc.TopByBalance(ctx, *limit)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Fprintln(out, "no accounts yet")
			return nil
		}
		for _, row := range domain.Rank(accounts) {
			fmt.Fprintf(out, "%2d. %s %d %s\n", row.Rank, row.UserID, row.Balance, row.Tier)
		}
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
	return nil
}
