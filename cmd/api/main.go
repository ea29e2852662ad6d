// Package main is the entry point for the live transcript API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/voice-transcript/internal/config"
	"github.com/capitalize-ai/voice-transcript/internal/dispatcher"
	"github.com/capitalize-ai/voice-transcript/internal/handler"
	"github.com/capitalize-ai/voice-transcript/internal/ingest"
	"github.com/capitalize-ai/voice-transcript/internal/middleware"
	natsclient "github.com/capitalize-ai/voice-transcript/internal/nats"
	"github.com/capitalize-ai/voice-transcript/internal/repository/sqlstore"
	"github.com/capitalize-ai/voice-transcript/internal/service"
	"github.com/capitalize-ai/voice-transcript/internal/session"
	"github.com/capitalize-ai/voice-transcript/internal/transport"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
	"github.com/capitalize-ai/voice-transcript/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting API server",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("live_mode", cfg.Live.Mode),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, "voice-transcript-api", cfg.Tracing.Endpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATS.URL,
		Name:     "voice-transcript-api",
		CAFile:   cfg.NATS.CAFile,
		CertFile: cfg.NATS.CertFile,
		KeyFile:  cfg.NATS.KeyFile,
		Token:    cfg.NATS.Token,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer func() {
		if err := natsClient.Drain(); err != nil {
			log.Warn("failed to drain NATS connection", zap.Error(err))
			natsClient.Close()
		}
	}()

	streamManager := natsclient.NewStreamManager(natsClient, natsclient.StreamConfig{
		Name:          cfg.Ingest.Stream,
		SubjectPrefix: cfg.Ingest.SubjectPrefix,
		MaxAge:        cfg.Ingest.MaxAge,
	})
	if _, err := streamManager.EnsureStream(ctx); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	repo, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.Store.Driver,
		DSN:          cfg.Store.DSN,
		MaxOpenConns: cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("failed to open message store: %w", err)
	}
	defer repo.Close()

	// Services
	messageSvc := service.NewMessageService(repo, log)
	sessions := session.NewManager(ctx,
		transport.NewSubscriber(natsClient.Conn(), cfg.NATS.RealtimePrefix, log),
		messageSvc,
		session.Config{Dispatcher: dispatcher.Config{
			Mode:         dispatcher.Mode(cfg.Live.Mode),
			CleanupDelay: cfg.Live.CleanupDelay,
			RefreshDelay: cfg.Live.RefreshDelay,
		}},
		log,
	)
	defer sessions.Shutdown()
	conversationSvc := service.NewConversationService(sessions, messageSvc, log)

	refreshSub, err := natsclient.SubscribeRefresh(natsClient, cfg.Ingest.SubjectPrefix, sessions.Refresh)
	if err != nil {
		return err
	}
	defer refreshSub.Unsubscribe()

	// Handlers
	healthHandler := handler.NewHealthHandler(natsClient, repo)
	messageHandler := handler.NewMessageHandler(messageSvc, conversationSvc, log)
	sessionHandler := handler.NewSessionHandler(conversationSvc, log)
	streamHandler := handler.NewStreamHandler(conversationSvc, cfg.Server.Heartbeat, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/messages", messageHandler.List)
			r.Get("/transcript", messageHandler.Transcript)
			r.Get("/live", streamHandler.Live)

			r.Post("/session", sessionHandler.Open)
			r.Delete("/session", sessionHandler.Close)
			r.Post("/text", sessionHandler.SubmitText)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Ingest.Enabled {
		ingestHandler := ingest.NewHandler(repo, natsclient.NewNotifier(natsClient, cfg.Ingest.SubjectPrefix), log)
		consumer := ingest.NewConsumer(natsClient.JetStream(), ingest.ConsumerConfig{
			Stream:     streamManager.Config().Name,
			Subject:    natsclient.MessageSubject(streamManager.Config().SubjectPrefix),
			Durable:    cfg.Ingest.Durable,
			AckWait:    cfg.Ingest.AckWait,
			MaxDeliver: cfg.Ingest.MaxDeliver,
		}, ingestHandler, log)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Live sessions end first so SSE streams return and the server can drain.
		sessions.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
