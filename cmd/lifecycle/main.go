package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mzhurov/feature-lifecycle-service/internal/clients"
	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository/postgres"
	"github.com/mzhurov/feature-lifecycle-service/internal/service"
	myhttp "github.com/mzhurov/feature-lifecycle-service/internal/transport/http"

	"github.com/mzhurov/feature-lifecycle-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting feature-lifecycle-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", slog.String("error", err.Error()))
		}
	}()

	proposalRepo := postgres.NewProposalRepository(db.DB(), log)
	validationRepo := postgres.NewValidationRepository(db.DB(), log)
	approvalRepo := postgres.NewApprovalRepository(db.DB(), log)
	deploymentRepo := postgres.NewDeploymentRepository(db.DB(), log)

	lifecycleService := service.NewLifecycleService(
		db.DB(),
		log,
		cfg.Lifecycle,
		proposalRepo,
		proposalRepo,
		validationRepo,
		approvalRepo,
		deploymentRepo,
		clients.NewGeneratorClient(cfg.Generator),
		clients.NewValidatorClient(cfg.Validator),
		clients.NewPublisherClient(cfg.Publisher),
	)

	srv := myhttp.NewServer(log, lifecycleService)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
