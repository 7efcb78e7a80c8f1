// Command flywheel is the engine's process entrypoint: it wires every
// collaborator in the declared init order (store → signer → venue →
// oracle → subscriber → schedulers, spec §9), starts the two periodic
// schedulers and the reactive subscriber, serves prometheus metrics, and
// tears everything down in reverse order on SIGINT/SIGTERM (§5 "global
// shutdown signal cancels all in-flight tasks, waits up to a grace window
// for cooperative termination, then exits"). Modeled on
// r3e-network-service_layer's infrastructure/middleware/shutdown.go
// graceful-shutdown pattern.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/config"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/executor"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/logging"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/metrics"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/oracle"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/reactive"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/scheduler"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/signer"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/store"
	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/venue"
)

// chainID is the fixed chain identifier passed to every Signer call (§6).
// Venue B / Venue J are both Solana-flavored in the spec's narrative.
const chainID = "solana-mainnet"

const shutdownGrace = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	log := logging.New("main")
	cfg := config.Load()

	if cfg.StoreURL == "" {
		log.Error().Msg("STORE_URL not set")
		return 1
	}

	// Init order per spec §9: store → signer → venue → oracle → subscriber → schedulers.
	st, err := store.Open(cfg.StoreURL)
	if err != nil {
		log.Error().Err(err).Msg("store unreachable at boot")
		return 1
	}
	defer st.Close()

	if cfg.SignerAuthKey == "" {
		log.Warn().Msg("SIGNER_AUTH_KEY not set, signer will report SIGNER_UNAVAILABLE for every call")
	}
	if cfg.ChainRPCURL == "" {
		log.Warn().Msg("CHAIN_RPC_URL not set, signer will broadcast without an explicit RPC endpoint")
	}
	sgn := signer.NewHTTPClient(resolveURL("SIGNER_URL", "https://signer.internal"), cfg.SignerAuthKey, cfg.ChainRPCURL, log)

	if cfg.VenueAPIKey == "" {
		log.Warn().Msg("VENUE_API_KEY not set, venue calls will fail authentication")
	}
	v := venue.NewHTTPClient(resolveURL("VENUE_URL", "https://venue.internal"), cfg.VenueAPIKey)

	orc := oracle.NewHTTPClient(resolveURL("ORACLE_URL", "https://oracle.internal"))

	audit := logging.NewAudit()
	exec := executor.New(st, v, sgn, orc, executor.DefaultDeadlines(), chainID, log, audit)

	sub := reactive.New(st, v, exec, reactive.NewDialer(), cfg.ChainWSURL, cfg.ReactiveTradingEnabled, log)

	flywheel := scheduler.New(st, v, orc, exec, cfg.FlywheelIntervalSeconds, cfg.MaxTradesPerMinute, cfg.MaxConcurrentTokens, log)
	claims := scheduler.NewClaim(st, v, sgn, chainID, cfg.PlatformFeePercent, cfg.ClaimHonorsPause, cfg.ClaimIntervalSeconds, cfg.MaxConcurrentTokens, log, audit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsSrv := &http.Server{Addr: ":9090", Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	if err := flywheel.Start(ctx); err != nil {
		log.Error().Err(err).Msg("flywheel scheduler failed to start")
		return 1
	}
	if err := claims.Start(ctx); err != nil {
		log.Error().Err(err).Msg("claim scheduler failed to start")
		return 1
	}

	subDone := make(chan error, 1)
	go func() { subDone <- sub.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-subDone:
		if err != nil {
			log.Error().Err(err).Msg("reactive subscriber exited with error")
		}
	case err := <-flywheel.Fatal():
		log.Error().Err(err).Msg("flywheel scheduler hit a fatal store error, shutting down")
		exitCode = 1
	case err := <-claims.Fatal():
		log.Error().Err(err).Msg("claim scheduler hit a fatal store error, shutting down")
		exitCode = 1
	}

	// Teardown in reverse declared order (§9).
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	claims.Stop()
	flywheel.Stop()

	select {
	case <-subDone:
	case <-time.After(shutdownGrace):
		log.Warn().Msg("reactive subscriber did not stop within grace window")
	}

	log.Info().Msg("shutdown complete")
	return exitCode
}

// resolveURL reads an optional env var override for a collaborator base
// URL, falling back to a placeholder the operator is expected to
// reconfigure — the core only requires CHAIN_RPC_URL/CHAIN_WS_URL per §6;
// venue/signer/oracle base URLs are operational detail outside the spec's
// recognized env var list.
func resolveURL(envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
