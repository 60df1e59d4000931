package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dan9191/finance-service/internal/config"
	"github.com/Dan9191/finance-service/internal/digest"
	"github.com/Dan9191/finance-service/internal/events"
	"github.com/Dan9191/finance-service/internal/handler"
	"github.com/Dan9191/finance-service/internal/middleware"
	"github.com/Dan9191/finance-service/internal/repository"
	"github.com/Dan9191/finance-service/internal/repository/memory"
	"github.com/Dan9191/finance-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the digest scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg.LogLevel))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	// Initialize layers
	auth := service.NewAuthService(store, logger, cfg.JWTSecret, cfg.JWTTTL)
	categories := service.NewCategoryService(store, logger)
	transactions := service.NewTransactionService(store, publisher, logger)
	h := handler.NewHandler(auth, categories, transactions, store, logger)

	var scheduler *digest.Scheduler
	if cfg.DigestEnabled() {
		sender := digest.NewSMTPSender(digest.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		}, logger)
		scheduler, err = digest.NewScheduler(cfg.DigestSchedule, digest.NewJob(store, transactions, sender, logger), logger)
		if err != nil {
			return err
		}
	} else {
		logger.Info("SMTP_HOST not set, weekly digest disabled")
	}

	router := handler.NewRouter(h, auth)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           middleware.CORS(cfg.CORSOrigins)(middleware.Logging(logger)(router)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if scheduler != nil {
		g.Go(func() error { return scheduler.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (service.Store, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if err := repository.MigrateUp(cfg.DBConn); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return repository.NewRepository(db), func() { db.Close() }, nil
}

func newPublisher(cfg *config.Config, logger *logrus.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info("AMQP_URL not set, transaction events disabled")
		return events.NopPublisher{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warnf("Failed to initialize AMQP publisher, continuing without events: %v", err)
		return events.NopPublisher{}
	}
	logger.Infof("Publishing transaction events to exchange %q", cfg.AMQPExchange)
	return publisher
}
