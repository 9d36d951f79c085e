// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"

	router "rebels-bot/internal/api"
	"rebels-bot/internal/api/handler"
	"rebels-bot/internal/bot"
	"rebels-bot/internal/bot/telegram"
	"rebels-bot/internal/config"
	"rebels-bot/internal/repository"
	"rebels-bot/internal/repository/sqlstore"
	"rebels-bot/internal/service"
	"rebels-bot/internal/util"
	"rebels-bot/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	AccountRepository repository.AccountRepository

	// Services
	AccountService service.AccountService

	// Chat
	CommandRouter *bot.Router
	BotAPI        *tgbotapi.BotAPI
	Adapter       *telegram.Adapter

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize loads configuration and connects every component. A failure to
// reach the datastore or the chat platform is returned as an error.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel, cfg.LogFormat)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Datastore, repositories, services, router, HTTP
	if err := app.InitializeCore(ctx); err != nil {
		return err
	}

	// 4. Connect to the chat platform
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	if id := cfg.ApplicationUserID(); id != 0 && botAPI.Self.ID != id {
		return fmt.Errorf("bot token belongs to user %d, expected APPLICATION_ID %d", botAPI.Self.ID, id)
	}
	app.BotAPI = botAPI
	app.Adapter = telegram.NewAdapter(botAPI, app.CommandRouter, botAPI.Self.UserName, app.Logger)
	app.Logger.Info("Connected to Telegram.", "bot", botAPI.Self.UserName)

	return nil
}

// InitializeCore wires everything that does not need the chat platform.
// app.Config and app.Logger must be set.
func (app *Application) InitializeCore(ctx context.Context) error {
	database, err := db.Open(ctx, app.Config.Store.DB())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	app.AccountRepository = sqlstore.NewAccountRepository()
	app.Logger.Info("Repositories initialized.")

	app.AccountService = service.NewAccountService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.AccountRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.Store.StoreTimeout,
	)
	app.Logger.Info("Services initialized.")

	app.CommandRouter = bot.NewRouter(app.AccountService, app.Logger, app.Config.Store.LeaderboardSize)

	accountHandler := handler.NewAccountHandler(app.AccountService, app.DB, app.Config.Store.LeaderboardSize, app.Logger)
	app.HTTPHandler = router.NewRouter(accountHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// RunBot registers commands in the background and serves updates until ctx
// is cancelled. Registration failures are logged and never stop the bot.
func (app *Application) RunBot(ctx context.Context) error {
	if app.Adapter == nil {
		return fmt.Errorf("chat adapter is not initialized")
	}
	go func() {
		if err := app.Adapter.RegisterCommands(ctx, app.Config.CommandSyncMaxElapsed); err != nil {
			app.Logger.Error("Failed to register commands; existing commands keep working", "error", err)
		}
	}()
	return app.Adapter.Run(ctx)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
