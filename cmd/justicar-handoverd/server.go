package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/justicar-labs/handover/pkg/attestation"
	"github.com/justicar-labs/handover/pkg/handover"
	"github.com/justicar-labs/handover/pkg/keystore"
	"github.com/justicar-labs/handover/pkg/localreport"
	"github.com/justicar-labs/handover/pkg/registry"
)

// nodeConfig is the resolved configuration of one justicar-handoverd process,
// assembled from viper in config.go.
type nodeConfig struct {
	role            string
	listenAddr      string
	metricsAddr     string
	devMode         bool
	pccsURL         string
	raTimeout       time.Duration
	freshnessWindow uint64
	registryURL     string
	blockNumber     uint64
	mrenclave       string
	mrsigner        string
	machineID       string
	platformSecret  string
	peerAddr        string
	keystorePath    string
	keystorePass    string
}

// daemon wires the handover core to the reference HTTP transport of
// SPEC_FULL.md §6 (net/http + gorilla/mux, the teacher's router of choice).
type daemon struct {
	cfg      nodeConfig
	engine   *handover.HandoverEngine
	registry handover.RegistryAdapter
	log      zerolog.Logger
}

func buildAdapters(cfg nodeConfig, log zerolog.Logger) (handover.AttestationAdapter, handover.RegistryAdapter, handover.LocalAttestationBridge, error) {
	var attn handover.AttestationAdapter
	if cfg.devMode {
		attn = attestation.NewSimulatedAdapter(cfg.mrenclave, cfg.mrsigner)
	} else {
		// A production deployment loads this signing key from the TEE's
		// sealed storage; the reference driver has no HSM to reach for, so
		// it mints a fresh one at startup, the way the teacher's own
		// SimulatedVerifier stands in for hardware it doesn't have.
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("generate attestation signing key: %w", err)
		}
		dcap, err := attestation.NewDCAPAdapter(cfg.mrenclave, cfg.mrsigner, priv, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("build DCAP adapter: %w", err)
		}
		attn = dcap
	}

	var reg handover.RegistryAdapter
	if cfg.registryURL != "" {
		reg = registry.NewHTTPClient(registry.Config{BaseURL: cfg.registryURL})
	} else {
		// No external registry configured: fall back to a single-entry
		// static registry seeded from this node's own measurements, useful
		// for dev_mode and the smoke test. A real deployment always points
		// registry_url at the shared measurement service.
		reg = registry.NewStaticRegistry(cfg.blockNumber,
			map[string]uint64{cfg.mrenclave: cfg.blockNumber},
			map[string]uint64{cfg.mrsigner: cfg.blockNumber},
		)
	}

	secret, err := hex.DecodeString(cfg.platformSecret)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode platform_secret: %w", err)
	}
	bridge, err := localreport.NewSimulatedBridge(cfg.machineID, cfg.mrenclave, cfg.mrsigner, secret)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build local attestation bridge: %w", err)
	}

	return attn, reg, bridge, nil
}

func newDaemon(cfg nodeConfig, log zerolog.Logger) (*daemon, error) {
	attn, reg, bridge, err := buildAdapters(cfg, log)
	if err != nil {
		return nil, err
	}
	engCfg := handover.EngineConfig{
		DevMode:         cfg.devMode,
		PCCSURL:         cfg.pccsURL,
		RATimeout:       cfg.raTimeout,
		FreshnessWindow: cfg.freshnessWindow,
	}
	engine := handover.NewHandoverEngine(engCfg, attn, reg, bridge, log)
	return &daemon{cfg: cfg, engine: engine, registry: reg, log: log}, nil
}

func (d *daemon) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/challenge", d.handleChallenge).Methods(http.MethodGet)
	r.HandleFunc("/v1/handover", d.handleHandover).Methods(http.MethodPost)
	r.HandleFunc("/healthz", d.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (d *daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (d *daemon) handleChallenge(w http.ResponseWriter, r *http.Request) {
	block, err := d.currentBlock(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	challenge, err := d.engine.GenerateChallenge(d.cfg.devMode, block)
	if err != nil {
		d.log.Error().Err(err).Msg("generate challenge failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	challengesIssued.Inc()
	writeJSON(w, http.StatusOK, challenge)
}

func (d *daemon) currentBlock(ctx context.Context) (uint64, error) {
	return d.registry.CurrentBlockNumber(ctx)
}

func (d *daemon) handleHandover(w http.ResponseWriter, r *http.Request) {
	var response handover.ChallengeResponse
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &response); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	secret, err := keystore.NewFileStore(d.cfg.keystorePath, []byte(d.cfg.keystorePass)).Load()
	if err != nil {
		d.log.Error().Err(err).Msg("load worker key to hand over")
		http.Error(w, "no worker key available to hand over", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	result, err := d.engine.HandoverStart(r.Context(), secret, response)
	handoverDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		handoversCompleted.WithLabelValues("rejected").Inc()
		d.log.Warn().Err(err).Msg("handover rejected")
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	handoversCompleted.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, result)
}

// runClient performs a single handover as the client role: fetch a challenge
// from the peer, accept it locally, send the response, decrypt the returned
// envelope, and persist the worker key.
func (d *daemon) runClient(ctx context.Context) error {
	httpClient := &http.Client{Timeout: d.cfg.raTimeout + 10*time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.peerAddr+"/v1/challenge", nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch challenge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch challenge: peer returned %d", resp.StatusCode)
	}
	var challenge handover.Challenge
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return fmt.Errorf("decode challenge: %w", err)
	}

	response, err := d.engine.AcceptChallenge(ctx, challenge)
	if err != nil {
		return fmt.Errorf("accept challenge: %w", err)
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.peerAddr+"/v1/handover", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post handover response: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("peer rejected handover: %s", string(body))
	}
	var result handover.HandoverResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode handover result: %w", err)
	}

	clientSK := d.engine.TakeEphemeralSecretKey()
	workerKey, err := handover.DecryptEnvelope(clientSK, result.Envelope)
	if err != nil {
		return fmt.Errorf("decrypt envelope: %w", err)
	}

	store := keystore.NewFileStore(d.cfg.keystorePath, []byte(d.cfg.keystorePass))
	if err := store.Store(workerKey); err != nil {
		return fmt.Errorf("persist worker key: %w", err)
	}

	d.log.Info().Str("keystore_path", d.cfg.keystorePath).Msg("handover complete, worker key persisted")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
