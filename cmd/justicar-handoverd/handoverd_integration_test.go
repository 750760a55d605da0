//go:build integration

package main

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/justicar-labs/handover/pkg/keystore"
)

// TestHandoverdIntegration drives a full dev-mode handover over the reference
// HTTP transport: a server daemon hands over a worker key it holds in its
// keystore to a client daemon, which persists it to its own keystore.
func TestHandoverdIntegration(t *testing.T) {
	log := zerolog.Nop()
	dir := t.TempDir()

	serverKeystorePath := filepath.Join(dir, "server.key")
	workerKey := []byte("the-worker-key-being-handed-over")
	require.NoError(t, keystore.NewFileStore(serverKeystorePath, []byte("server-pass")).Store(workerKey))

	serverCfg := nodeConfig{
		role:           "server",
		devMode:        true,
		raTimeout:      2 * time.Second,
		blockNumber:    1000,
		mrenclave:      "aa00000000000000000000000000000000000000000000000000000000000000",
		mrsigner:       "bb00000000000000000000000000000000000000000000000000000000000000",
		machineID:      "node-a",
		platformSecret: "00112233445566778899aabbccddeeff00112233445566778899aabbccddee",
		keystorePath:   serverKeystorePath,
		keystorePass:   "server-pass",
	}
	serverDaemon, err := newDaemon(serverCfg, log)
	require.NoError(t, err)

	srv := httptest.NewServer(serverDaemon.router())
	t.Cleanup(srv.Close)

	clientKeystorePath := filepath.Join(dir, "client.key")
	clientCfg := nodeConfig{
		role:           "client",
		devMode:        true,
		raTimeout:      2 * time.Second,
		mrenclave:      "cc00000000000000000000000000000000000000000000000000000000000000",
		mrsigner:       "dd00000000000000000000000000000000000000000000000000000000000000",
		machineID:      "node-b",
		platformSecret: "00112233445566778899aabbccddeeff00112233445566778899aabbccddee",
		peerAddr:       srv.URL,
		keystorePath:   clientKeystorePath,
		keystorePass:   "client-pass",
	}
	clientDaemon, err := newDaemon(clientCfg, log)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clientDaemon.runClient(ctx))

	got, err := keystore.NewFileStore(clientKeystorePath, []byte("client-pass")).Load()
	require.NoError(t, err)
	require.Equal(t, workerKey, got)
}
