package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-api"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("auth-api"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	db, err := setupPersistence(ctx, lgr, cfg)
	if err != nil {
		log.Fatal(err)
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		log.Fatal(err)
	}

	userProvider := auth.NewUserProvider(userTrackerAdapter{users: repo.Users()})
	userProvider.WithLogger(lgr.GetLogger("auth:prv"))

	authenticator := auth.NewAuthenticator(userProvider, cfg.GetAuth())
	authenticator.WithLogger(lgr.GetLogger("auth:authn"))

	auther, err := auth.NewHTTPAuthenticator(authenticator, repo, cfg.GetAuth())
	if err != nil {
		log.Fatal(err)
	}
	auther.WithLogger(lgr.GetLogger("auth:http"))

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Server.Debug,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	auth.RegisterAuthRoutes(
		srv.Router(),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerTokens(authenticator.TokenService()),
		auth.WithControllerConfig(cfg.GetAuth()),
		auth.WithControllerLogger(lgr.GetLogger("auth:ctrl")),
		auth.WithControllerDebug(cfg.Server.Debug),
	)

	srv.Serve(cfg.Server.GetAddr())

	WaitExitSignal()
}

func setupPersistence(ctx context.Context, lgr *glog.BaseLogger, cfg *BaseConfig) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.GetPersistence().GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel((*auth.PasswordReset)(nil))

	client, err := persistence.New(cfg.GetPersistence(), db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(lgr.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}

type userTrackerAdapter struct {
	users auth.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
