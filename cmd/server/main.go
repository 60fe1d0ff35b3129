package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/activitymap"
	"github.com/codewaveai/go-session/admin"
	"github.com/codewaveai/go-session/config"
	"github.com/codewaveai/go-session/provider/local"
	"github.com/codewaveai/go-session/repository"
	"github.com/codewaveai/go-session/storage"
	"github.com/codewaveai/go-session/web"
)

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	repo     repository.Manager
	provider *local.Provider
	tokens   *local.TokenService
	sessions *session.Manager
	store    *storage.Client
	admin    *admin.Service
	srv      router.Server[*fiber.App]
}

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	app := &App{config: cfg}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithStorage(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithSessions(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := app.srv.Serve(app.config.Server.Address); err != nil {
			log.Fatal(err)
		}
	}()

	WaitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		log.Println("server shutdown:", err)
	}

	app.sessions.Stop()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DB.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := repository.NewManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	if err := repo.CreateSchema(ctx); err != nil {
		return err
	}

	if err := local.CreateSchema(ctx, db); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = repo

	return nil
}

func WithStorage(ctx context.Context, app *App) error {
	cfg := app.config.Storage

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return err
	}

	store, err := storage.NewClient(ctx, client, cfg.Bucket, cfg.PublicURL)
	if err != nil {
		return err
	}

	app.store = store
	return nil
}

func WithSessions(ctx context.Context, app *App) error {
	cfg := app.config

	accounts := local.NewAccountsRepository(app.bunDB)
	resets := local.NewResetRepository(app.bunDB)

	tokens := local.NewTokenService(
		[]byte(cfg.Auth.SigningKey),
		cfg.Auth.TokenExpiration,
		cfg.Auth.Issuer,
		nil,
		nil,
	)

	resetService := local.NewResetService(resets).WithTTL(cfg.Auth.ResetTTL)

	provider := local.NewProvider(accounts, app.repo.Profiles(), tokens).
		WithResetService(resetService)

	audit := activitymap.NewLoggerSink(nil)

	sessions := session.NewManager(provider, app.repo.Profiles(), cfg).
		WithActivitySink(audit)
	if err := sessions.Start(ctx); err != nil {
		return err
	}

	app.tokens = tokens
	app.provider = provider
	app.sessions = sessions
	app.admin = admin.NewService(app.repo, app.store).WithActivitySink(audit)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	engine := django.New(app.config.Server.ViewsDir, ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	guard := web.NewGuard(app.tokens, app.repo.Profiles(),
		web.WithCookieDuration(time.Duration(app.config.Auth.TokenExpiration)*time.Hour),
	)

	web.RegisterAuthRoutes(srv.Router().Group("/"),
		web.WithSessions(app.sessions),
		web.WithProvider(app.provider),
		web.WithGuard(guard),
		web.WithDebug(app.config.Debug),
	)

	web.RegisterAPIRoutes(srv.Router().Group("/"), app.admin, app.repo, guard)

	app.srv = srv
	return nil
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
