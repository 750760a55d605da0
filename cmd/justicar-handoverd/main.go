// Package main is the justicar-handoverd reference driver: a thin
// bootstrapper that wires the handover core (pkg/handover) to concrete
// adapters (pkg/attestation, pkg/localreport, pkg/registry) and a minimal
// HTTP transport. It is a deployment reference, not part of the protocol's
// tested surface beyond a smoke test.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "justicar-handoverd",
	Short: "justicar key-handover daemon",
	Long: `justicar-handoverd runs one justicar node's side of a key-handover
ceremony: the server role issues challenges and hands over the worker key
once a client's response passes attestation, freshness, and version checks;
the client role accepts a challenge and retrieves the key.`,
	RunE: runRoot,
}

func main() {
	bindCommonFlags(rootCmd)
	cobra.OnInitialize(initConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func configFromViper() nodeConfig {
	return nodeConfig{
		role:            viper.GetString(FlagRole),
		listenAddr:      viper.GetString(FlagListenAddr),
		metricsAddr:     viper.GetString(FlagMetricsAddr),
		devMode:         viper.GetBool(FlagDevMode),
		pccsURL:         viper.GetString(FlagPCCSURL),
		raTimeout:       viper.GetDuration(FlagRATimeout),
		freshnessWindow: viper.GetUint64(FlagFreshnessWindow),
		registryURL:     viper.GetString(FlagRegistryURL),
		blockNumber:     viper.GetUint64(FlagBlockNumber),
		mrenclave:       viper.GetString(FlagMrenclave),
		mrsigner:        viper.GetString(FlagMrsigner),
		machineID:       viper.GetString(FlagMachineID),
		platformSecret:  viper.GetString(FlagPlatformSecret),
		peerAddr:        viper.GetString(FlagPeerAddr),
		keystorePath:    viper.GetString(FlagKeystorePath),
		keystorePass:    viper.GetString(FlagKeystorePass),
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg := configFromViper()

	d, err := newDaemon(cfg, log)
	if err != nil {
		return fmt.Errorf("build daemon: %w", err)
	}

	switch cfg.role {
	case "server":
		return runServerRole(cmd.Context(), d)
	case "client":
		return d.runClient(cmd.Context())
	default:
		return fmt.Errorf("unknown role %q: must be \"server\" or \"client\"", cfg.role)
	}
}

func runServerRole(ctx context.Context, d *daemon) error {
	srv := &http.Server{
		Addr:              d.cfg.listenAddr,
		Handler:           d.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.Info().Str("addr", d.cfg.listenAddr).Msg("handover server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		d.log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
