// Command server starts the MarvelCDC HTTP API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"marvelcdc/internal/config"
	"marvelcdc/internal/limiter"
	"marvelcdc/internal/mailer"
	"marvelcdc/internal/marvelcdb"
	"marvelcdc/internal/migrate"
	"marvelcdc/internal/repository/postgres"
	"marvelcdc/internal/server/httpapi"
	"marvelcdc/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if cfg.JWTKey == "" {
		logger.Fatal("missing session signing key (JWT_KEY)")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	users := postgres.NewUserRepo(db)
	sessions := postgres.NewSessionRepo(db)
	catalog := postgres.NewCatalogRepo(db)
	collection := postgres.NewCollectionRepo(db)
	decks := postgres.NewDeckRepo(db)

	// Rate limiters: login failures, email senders, token consumers.
	loginLim := limiter.NewPG(pool, 15*time.Minute, 5, 15*time.Minute)
	strictLim := limiter.NewPG(pool, time.Hour, 3, time.Hour)
	relaxedLim := limiter.NewPG(pool, time.Hour, 10, time.Hour)

	mail := newMailer(cfg.Email, logger)

	// Services
	conflictSvc := service.NewConflictService(users, collection, decks, catalog)
	collectionSvc := service.NewCollectionService(collection, catalog, conflictSvc, cfg.MaxPackQuantity)
	deckSvc := service.NewDeckService(decks, catalog, marvelcdb.NewClient(cfg.MarvelCDBBaseURL), conflictSvc)
	authSvc := service.NewAuthService(users, sessions, loginLim, mail, []byte(cfg.JWTKey), cfg.SessionTTL, cfg.BaseURL)
	profileSvc := service.NewProfileService(users, sessions, mail, cfg.BaseURL)

	api := httpapi.NewServer(httpapi.Options{
		Log:           logger,
		Auth:          authSvc,
		Profile:       profileSvc,
		Collection:    collectionSvc,
		Decks:         deckSvc,
		Conflicts:     conflictSvc,
		Catalog:       catalog,
		StrictLim:     strictLim,
		RelaxedLim:    relaxedLim,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Fatal("listen", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

// newMailer selects the mail transport from configuration. The "none"
// method logs instead of sending, for local development.
func newMailer(cfg config.EmailConfig, logger *zap.Logger) mailer.Mailer {
	switch cfg.Method {
	case "smtp":
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromName, cfg.FromEmail)
	case "http":
		return mailer.NewHTTPMailer(cfg.APIURL, cfg.APIKey, cfg.FromName, cfg.FromEmail)
	default:
		return logMailer{log: logger}
	}
}

// logMailer records outbound mail in the server log instead of sending it.
type logMailer struct{ log *zap.Logger }

func (m logMailer) Send(_ context.Context, e mailer.Email) error {
	m.log.Info("email suppressed",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
	)
	return nil
}
