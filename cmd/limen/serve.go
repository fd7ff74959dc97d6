package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/limen-app/limen/internal/adapters/http"
	"github.com/limen-app/limen/internal/adapters/llm"
	"github.com/limen-app/limen/internal/adapters/storage"
	firestorestore "github.com/limen-app/limen/internal/adapters/storage/firestore"
	"github.com/limen-app/limen/internal/adapters/storage/localfile"
	pgstore "github.com/limen-app/limen/internal/adapters/storage/postgres"
	"github.com/limen-app/limen/internal/app/flows"
	"github.com/limen-app/limen/internal/app/reflections"
	"github.com/limen-app/limen/internal/config"
	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

const (
	flowIdleTTL     = 2 * time.Hour
	janitorInterval = 10 * time.Minute
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reflection HTTP API",
	Long: `Run the reflection HTTP API.

Examples:
  # Local development with the mock generator
  limen serve

  # Cloud mode with Firestore and Gemini on Vertex AI
  LIMEN_MODE=cloud LIMEN_STORAGE_REMOTE=firestore LIMEN_GCP_PROJECT=my-project limen serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := observability.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	remote, closeRemote, err := newRemoteStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRemote()

	stores := storage.NewResolver(localfile.NewResolver(cfg.Storage.LocalDir), remote)

	flowSvc := flows.NewService(flows.Options{
		Stores:             stores,
		Generator:          gen,
		Timeout:            cfg.LLM.Timeout,
		GeneratedQuestions: cfg.Flow.GeneratedQuestions,
	})
	go flowSvc.RunJanitor(ctx, janitorInterval, flowIdleTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpadapter.NewServer(flowSvc, reflections.NewService(stores)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("limen listening",
			"port", cfg.HTTP.Port,
			"mode", cfg.Mode,
			"llm_provider", cfg.LLM.Provider,
			"storage_remote", cfg.Storage.Remote,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newGenerator(ctx context.Context, cfg *config.Config) (domain.ReflectionGenerator, error) {
	var gen domain.ReflectionGenerator

	switch cfg.LLM.Provider {
	case "mock":
		observability.Logger().Info("using mock generator")
		gen = llm.NewMockGenerator()
	case "gemini":
		g, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
			APIKey:   cfg.LLM.APIKey,
			Project:  cfg.GCP.Project,
			Location: cfg.GCP.Location,
			Model:    cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing gemini generator: %w", err)
		}
		gen = g
	case "gateway":
		gen = llm.NewGatewayGenerator(cfg.LLM.GatewayURL, cfg.LLM.APIKey, nil)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	return llm.NewRateLimited(gen, cfg.LLM.RatePerMinute), nil
}

// newRemoteStores opens the account store backend. The returned func
// releases it; with no remote backend both results are no-ops.
func newRemoteStores(ctx context.Context, cfg *config.Config) (storage.AccountStores, func(), error) {
	log := observability.Logger()

	switch cfg.Storage.Remote {
	case "postgres":
		pg, err := pgstore.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrating postgres: %w", err)
		}
		log.Info("using postgres account storage")
		return func(a domain.AccountID) domain.ReflectionStore {
			return pg.ForUser(a)
		}, func() { pg.Close() }, nil

	case "firestore":
		fs, err := firestorestore.NewStore(ctx, cfg.GCP.Project)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing firestore: %w", err)
		}
		log.Info("using firestore account storage", "project", cfg.GCP.Project)
		return func(a domain.AccountID) domain.ReflectionStore {
			return fs.ForUser(a)
		}, func() { fs.Close() }, nil

	default:
		log.Info("no account storage configured, device storage only")
		return nil, func() {}, nil
	}
}
