package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"taskbill/internal/api/router"
	"taskbill/internal/api/util"
	"taskbill/internal/cache"
	"taskbill/internal/config"
	"taskbill/internal/core/repository"
	"taskbill/internal/core/service"
	"taskbill/internal/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	flagSet := pflag.NewFlagSet("taskbill", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	membershipCache := cache.New(cfg.RedisURL, logger)
	defer membershipCache.Close()

	var emitter notify.Emitter = notify.NewLogDispatcher(logger)
	if cfg.NATSURL != "" {
		dispatcher, err := notify.NewNATSDispatcher(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer dispatcher.Close()
		emitter = notify.Multi{emitter, dispatcher}
		logger.Info("publishing notification intents to NATS", "url", cfg.NATSURL)
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithEmitter(emitter),
		service.WithCache(membershipCache),
	}
	memberships := service.NewMembershipService(store, opts...)
	invitations := service.NewInvitationService(store, opts...)
	users := service.NewUserService(store, opts...)

	if cfg.OwnerEmail != "" {
		owner, err := users.EnsureOwner(ctx, cfg.OwnerEmail, cfg.OwnerPassword, cfg.OwnerName)
		if err != nil {
			return fmt.Errorf("bootstrap owner: %w", err)
		}
		logger.Info("owner account ready", "user", owner.ID, "email", owner.Email)
	}

	handler := router.NewRouter(router.Dependencies{
		Memberships:   memberships,
		Invitations:   invitations,
		Approvals:     service.NewApprovalService(store, invitations, memberships, opts...),
		Organizations: service.NewOrganizationService(store, memberships, opts...),
		Provisioning:  service.NewProvisioningService(store, memberships, opts...),
		Projects:      service.NewProjectService(store, opts...),
		Tasks:         service.NewTaskService(store, opts...),
		Users:         users,
		JWT:           util.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
		AutoProvision: cfg.AutoProvision,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "storage", cfg.Storage)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Store, func(), error) {
	switch cfg.Storage {
	case config.StorageMongo:
		client, db, err := config.ConnectMongoDB(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repository.NewMongoStore(db), closeFn, nil

	case config.StoragePostgres:
		db, err := config.ConnectPostgres(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = db.Close() }
		if err := repository.MigratePostgres(ctx, db); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return repository.NewPostgresStore(db), closeFn, nil
	}

	logger.Warn("using in-memory storage, data is lost on restart")
	return repository.NewInMemoryStore(), func() {}, nil
}
