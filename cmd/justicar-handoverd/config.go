package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag names, grounded on the teacher's cmd/provider-daemon/main.go
// const-block-of-flag-names convention.
const (
	FlagConfig          = "config"
	FlagRole            = "role"
	FlagListenAddr      = "listen"
	FlagMetricsAddr     = "metrics"
	FlagDevMode         = "dev_mode"
	FlagPCCSURL         = "pccs_url"
	FlagRATimeout       = "ra_timeout"
	FlagFreshnessWindow = "freshness_window"
	FlagRegistryURL     = "registry_url"
	FlagBlockNumber     = "block_number"
	FlagMrenclave       = "mrenclave"
	FlagMrsigner        = "mrsigner"
	FlagMachineID       = "machine_id"
	FlagPlatformSecret  = "platform_secret"
	FlagPeerAddr        = "peer_addr"
	FlagKeystorePath    = "keystore_path"
	FlagKeystorePass    = "keystore_passphrase"
)

var cfgFile string

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.justicar")
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("justicar-handoverd")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("JUSTICAR")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func bindCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, FlagConfig, "", "config file (default $HOME/.justicar/justicar-handoverd.yaml)")
	cmd.PersistentFlags().String(FlagRole, "server", "handover role: server or client")
	cmd.PersistentFlags().String(FlagListenAddr, ":8443", "handover transport listen address")
	cmd.PersistentFlags().String(FlagMetricsAddr, ":9090", "not read; Prometheus metrics are served at /metrics on the --listen address")
	cmd.PersistentFlags().Bool(FlagDevMode, false, "run in dev mode (skips remote attestation)")
	cmd.PersistentFlags().String(FlagPCCSURL, "", "PCCS collateral endpoint for remote attestation")
	cmd.PersistentFlags().Duration(FlagRATimeout, 30*time.Second, "remote attestation timeout")
	cmd.PersistentFlags().Uint64(FlagFreshnessWindow, 0, "challenge freshness window in blocks (0 = default)")
	cmd.PersistentFlags().String(FlagRegistryURL, "", "enclave measurement registry base URL")
	cmd.PersistentFlags().Uint64(FlagBlockNumber, 0, "current block number, for registries without a live feed")
	cmd.PersistentFlags().String(FlagMrenclave, "", "this node's MRENCLAVE, hex-encoded")
	cmd.PersistentFlags().String(FlagMrsigner, "", "this node's MRSIGNER, hex-encoded")
	cmd.PersistentFlags().String(FlagMachineID, "", "local-attestation machine identifier")
	cmd.PersistentFlags().String(FlagPlatformSecret, "", "shared local-attestation platform secret, hex-encoded")
	cmd.PersistentFlags().String(FlagPeerAddr, "", "peer node's handover transport address (client role)")
	cmd.PersistentFlags().String(FlagKeystorePath, "", "path to persist the handed-over worker key (client role)")
	cmd.PersistentFlags().String(FlagKeystorePass, "", "passphrase protecting the keystore file (client role)")

	for _, name := range []string{
		FlagRole, FlagListenAddr, FlagMetricsAddr, FlagDevMode, FlagPCCSURL,
		FlagRATimeout, FlagFreshnessWindow, FlagRegistryURL, FlagBlockNumber,
		FlagMrenclave, FlagMrsigner, FlagMachineID, FlagPlatformSecret,
		FlagPeerAddr, FlagKeystorePath, FlagKeystorePass,
	} {
		_ = viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}
}
