package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiendaapi/internal/config"
	"tiendaapi/internal/events"
	"tiendaapi/internal/infra"
	"tiendaapi/internal/repository"
	"tiendaapi/internal/router"
	"tiendaapi/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger not configured yet; console output is fine here.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		log.Fatal().Err(err).Msg("failed to load config")
	}
	configurarLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.DatabaseOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	publisher := events.NewPublisher(cfg.Brokers(), cfg.KafkaTopic)

	// Start goroutine worker pool for order notifications (email + PDF).
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	smtpCB := infra.NewCircuitBreaker(infra.SMTPCBConfig())
	mailer := infra.NewMailer(cfg)
	if !mailer.Configurado() {
		log.Warn().Msg("SMTP_HOST vacio: las notificaciones se descartaran")
	}
	workerHandlers := &worker.WorkerHandlers{
		Notificacion: worker.NewNotificacionWorker(
			repository.NewPedidoRepository(db),
			repository.NewTiendaRepository(db),
			mailer, smtpCB, cfg.PDFStoragePath,
		),
	}
	pool := worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize, cfg.NotificacionMaxIntentos)

	r := router.New(ctx, cfg, db, rdb, publisher, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("tiendas API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("kafka publisher close")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}

// configurarLogger: dev is pretty console output, production is JSON.
func configurarLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "tiendas-api").Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
