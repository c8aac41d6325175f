// README: Entry point; loads config, wires stores and services, starts the
// HTTP server and the background reconciliation loop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"aidlink/internal/ai"
	"aidlink/internal/config"
	httpapi "aidlink/internal/http"
	"aidlink/internal/infra"
	"aidlink/internal/maps"
	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/matching"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/reconcile"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().Str("service", "aidlink").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.RedisAddr)

	fanout := notify.NewRedisFanout(redisClient, logger)
	messenger := notify.NewLogMessenger(logger)

	var analyzer ai.Analyzer
	if cfg.GeminiKey != "" {
		gemini, err := ai.NewGeminiAnalyzer(ctx, cfg.GeminiKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini init")
		}
		defer gemini.Close()
		analyzer = gemini
	} else {
		analyzer = ai.MockAnalyzer{}
		logger.Info().Msg("using mock intake analyzer")
	}

	var routes matching.RouteEstimator
	if cfg.MapsKey != "" {
		rs, err := maps.NewRouteService(cfg.MapsKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("maps init")
		}
		routes = rs
	}

	ticketStore := ticket.NewPostgresStore(dbPool)
	ticketSvc := ticket.NewService(ticketStore, analyzer, fanout, messenger, logger)

	providerStore := provider.NewPostgresStore(dbPool, redisClient)
	providerSvc := provider.NewService(providerStore)

	matchingSvc := matching.NewService(providerStore, cfg.Scoring, cfg.Matching, cfg.Combination, routes, logger)

	assignmentStore := assignment.NewPostgresStore(dbPool)
	assignmentSvc := assignment.NewService(assignmentStore, ticketStore, providerStore, fanout, messenger, logger)

	reconciler := reconcile.NewService(ticketStore, matchingSvc, assignmentSvc, fanout, cfg.Reconcile, logger)
	go reconciler.Run(ctx)

	router := httpapi.NewRouter(cfg, httpapi.RouterDeps{
		Tickets:     ticketSvc,
		Providers:   providerSvc,
		Matching:    matchingSvc,
		Assignments: assignmentSvc,
	}, logger)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("server stopped")
}
