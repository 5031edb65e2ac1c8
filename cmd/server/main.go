package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/groupnest/groupnest/internal/api/http"
	appNegotiation "github.com/groupnest/groupnest/internal/application/negotiation"
	"github.com/groupnest/groupnest/internal/config"
	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/internal/infrastructure/hub"
	"github.com/groupnest/groupnest/internal/infrastructure/postgres"
	"github.com/groupnest/groupnest/internal/relay"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	repo := postgres.NewNegotiationRepository(pool)
	eventHub := hub.NewHub()

	// With the relay enabled every publish goes through consensus so all
	// nodes deliver it to their own connected clients; otherwise the local
	// hub is the whole fan-out path.
	var relayNode *relay.Node
	var broadcaster negotiation.Broadcaster = eventHub
	if cfg.RelayEnabled {
		relayNode, err = relay.NewNode(relay.Config{
			NodeID:       cfg.RelayNodeID,
			RaftAddr:     cfg.RelayAddr,
			DataDir:      cfg.RelayDataDir,
			Bootstrap:    cfg.RelayBootstrap,
			ApplyTimeout: cfg.RelayApplyTimeout,
			PeerHTTP:     cfg.RelayPeerHTTP,
		}, eventHub, logger)
		if err != nil {
			log.Fatalf("relay error: %v", err)
		}
		broadcaster = relayNode
	}

	negotiationSvc := appNegotiation.NewService(repo, broadcaster, eventHub, cfg.SharePolicy, logger)

	apiServer := httpapi.NewServer(negotiationSvc, eventHub, relayNode)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Bool("relay", cfg.RelayEnabled).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	eventHub.Stop()
	if relayNode != nil {
		_ = relayNode.Shutdown()
	}
}
