package handover

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// HandoverEngine is the single-owner protocol state machine of spec.md §4.5.
// One instance plays either the server role (GenerateChallenge,
// HandoverStart) or the client role (AcceptChallenge); nothing prevents an
// instance from doing both in sequence, but a real deployment runs one role
// per node. All exported methods hold mu for their entire body, so
// concurrent calls on one Engine serialize rather than race (spec.md §5).
type HandoverEngine struct {
	mu sync.Mutex

	cfg         EngineConfig
	crypto      CryptoPrimitives
	attestation AttestationAdapter
	registry    RegistryAdapter
	localBridge LocalAttestationBridge
	log         zerolog.Logger

	lastChallenge *Challenge
	ephemeralSK   []byte
	ephemeralPK   []byte
}

// NewHandoverEngine wires the three external adapters and a logger around
// the protocol core.
func NewHandoverEngine(cfg EngineConfig, attestation AttestationAdapter, registry RegistryAdapter, localBridge LocalAttestationBridge, log zerolog.Logger) *HandoverEngine {
	return &HandoverEngine{
		cfg:         cfg,
		crypto:      NewCryptoPrimitives(),
		attestation: attestation,
		registry:    registry,
		localBridge: localBridge,
		log:         log.With().Str("component", "handover_engine").Logger(),
	}
}

// clearEphemeral zeroizes and drops any ephemeral key material held by the
// engine. Called on every exit path of HandoverStart, and on entry to and
// every error exit of AcceptChallenge; a successful AcceptChallenge keeps
// its key for TakeEphemeralSecretKey.
func (e *HandoverEngine) clearEphemeral() {
	zeroize(e.ephemeralSK)
	zeroize(e.ephemeralPK)
	e.ephemeralSK = nil
	e.ephemeralPK = nil
}

// TakeEphemeralSecretKey returns and clears the client's retained ephemeral
// ECDH secret key. Call once, after AcceptChallenge, once the transport has
// delivered the server's HandoverResult and DecryptEnvelope is about to run;
// ownership of the returned slice (and the duty to zeroize it) passes to the
// caller.
func (e *HandoverEngine) TakeEphemeralSecretKey() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	sk := e.ephemeralSK
	e.ephemeralSK = nil
	e.ephemeralPK = nil
	return sk
}

func (e *HandoverEngine) withRATimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.RATimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.RATimeout)
}

func asTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrAttestationTimeout
	}
	return ErrCrypto.Wrap(err.Error())
}

// GenerateChallenge is spec.md §4.5.1 (server role). It overwrites any prior
// outstanding challenge: at most one challenge is outstanding per Engine.
func (e *HandoverEngine) GenerateChallenge(devMode bool, blockNumber uint64) (Challenge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var targetInfo []byte
	if !devMode {
		ti, err := e.localBridge.MyTargetInfo()
		if err != nil {
			return Challenge{}, ErrCrypto.Wrap(err.Error())
		}
		targetInfo = ti
	}

	nonceBytes, err := e.crypto.RandomBytes(NonceSize)
	if err != nil {
		return Challenge{}, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)

	c := Challenge{
		TargetInfo:  targetInfo,
		BlockNumber: blockNumber,
		DevMode:     devMode,
		Nonce:       nonce,
	}
	stored := c
	e.lastChallenge = &stored

	e.log.Info().Uint64("block_number", blockNumber).Bool("dev_mode", devMode).Msg("challenge issued")
	return c, nil
}

// AcceptChallenge is spec.md §4.5.2 (client role).
func (e *HandoverEngine) AcceptChallenge(ctx context.Context, challenge Challenge) (ChallengeResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Unlike HandoverStart, the ephemeral secret key generated here MUST
	// survive this call: the client needs it later, once the transport
	// delivers the server's HandoverResult, to derive the shared secret via
	// DecryptEnvelope. TakeEphemeralSecretKey hands it off; callers that
	// never retrieve it (e.g. a response that is ultimately discarded) leak
	// it only until the engine's next AcceptChallenge or HandoverStart call
	// overwrites and zeroizes it.
	e.clearEphemeral()
	sk, pk, err := e.crypto.GenerateECDHKeypair()
	if err != nil {
		return ChallengeResponse{}, err
	}
	e.ephemeralSK, e.ephemeralPK = sk, pk
	accepted := false
	defer func() {
		if !accepted {
			e.clearEphemeral()
		}
	}()

	var localReport []byte
	if !challenge.DevMode {
		report, err := e.localBridge.MakeLocalReport(challenge.TargetInfo, [64]byte{})
		if err != nil {
			return ChallengeResponse{}, ErrLocalAttestationRejected.Wrap(err.Error())
		}
		localReport = report
	}

	var pubkey [ECDHKeySize]byte
	copy(pubkey[:], pk)
	responder := ChallengeResponderInfo{
		Challenge:   challenge,
		LocalReport: localReport,
		EcdhPubkey:  pubkey,
	}

	canon, err := responder.Canonical()
	if err != nil {
		return ChallengeResponse{}, err
	}
	h := sha256.Sum256(canon)

	var attestation []byte
	if !challenge.DevMode {
		raCtx, cancel := e.withRATimeout(ctx)
		defer cancel()
		attestation, err = e.attestation.CreateRemoteAttestation(raCtx, h, e.cfg.PCCSURL)
		if err != nil {
			return ChallengeResponse{}, asTimeout(err)
		}
	}

	e.log.Info().Bool("dev_mode", challenge.DevMode).Msg("challenge accepted")
	accepted = true
	return ChallengeResponse{Responder: responder, Attestation: attestation}, nil
}

// HandoverStart is spec.md §4.5.3 (server role). Checks run strictly in the
// order the spec lists them; any failure aborts and clears last_challenge
// (already cleared by the take-and-clear read at entry) and any ephemeral
// key material generated along the way.
func (e *HandoverEngine) HandoverStart(ctx context.Context, secret []byte, response ChallengeResponse) (HandoverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.clearEphemeral()

	// Step 1: replay protection, take-and-clear.
	last := e.lastChallenge
	e.lastChallenge = nil
	if last == nil {
		return HandoverResult{}, ErrChallengeMismatch.Wrap(ErrNoChallenge.Error())
	}
	if !last.Equal(response.Responder.Challenge) {
		e.log.Warn().Msg("challenge mismatch")
		return HandoverResult{}, ErrChallengeMismatch
	}
	devMode := last.DevMode

	var clientMrenclave, clientMrsigner string
	if !devMode {
		// Step 2: remote attestation (client).
		if response.Attestation == nil {
			return HandoverResult{}, ErrRemoteAttestationRejected
		}
		canon, err := response.Responder.Canonical()
		if err != nil {
			return HandoverResult{}, err
		}
		h := sha256.Sum256(canon)

		raCtx, cancel := e.withRATimeout(ctx)
		ok, err := e.attestation.VerifyRemoteAttestation(raCtx, h, response.Attestation)
		cancel()
		if err != nil {
			return HandoverResult{}, asTimeout(err)
		}
		// The boolean MUST be checked: spec.md §9's consumed-boolean
		// correction. Nothing extracted below is trusted until this passes.
		if !ok {
			e.log.Warn().Msg("remote attestation rejected")
			return HandoverResult{}, ErrRemoteAttestationRejected
		}
		clientMrenclave, clientMrsigner, err = e.attestation.ExtractMeasurements(response.Attestation)
		if err != nil {
			return HandoverResult{}, ErrCrypto.Wrap(err.Error())
		}

		// Step 3: local attestation (client on same machine).
		if _, _, err := e.localBridge.VerifyLocalReport(response.Responder.LocalReport); err != nil {
			e.log.Warn().Msg("local attestation rejected")
			return HandoverResult{}, ErrLocalAttestationRejected.Wrap(err.Error())
		}
	}

	// Step 4: freshness window.
	current, err := e.registry.CurrentBlockNumber(ctx)
	if err != nil {
		return HandoverResult{}, ErrCrypto.Wrap(err.Error())
	}
	window := e.cfg.freshnessWindow()
	if last.BlockNumber > current || current-last.BlockNumber > window {
		e.log.Warn().Uint64("challenge_block", last.BlockNumber).Uint64("current_block", current).Msg("handover expired")
		return HandoverResult{}, ErrHandoverExpired
	}

	if !devMode {
		// Step 5: version gate.
		myTargetInfo, err := e.localBridge.MyTargetInfo()
		if err != nil {
			return HandoverResult{}, ErrCrypto.Wrap(err.Error())
		}
		ownReport, err := e.localBridge.MakeLocalReport(myTargetInfo, [64]byte{})
		if err != nil {
			return HandoverResult{}, ErrCrypto.Wrap(err.Error())
		}
		serverMrenclave, serverMrsigner, err := e.localBridge.VerifyLocalReport(ownReport)
		if err != nil {
			return HandoverResult{}, ErrLocalAttestationRejected.Wrap(err.Error())
		}

		mreMap, err := e.registry.MrenclaveRegistry(ctx)
		if err != nil {
			return HandoverResult{}, ErrCrypto.Wrap(err.Error())
		}
		mrsMap, err := e.registry.MrsignerRegistry(ctx)
		if err != nil {
			return HandoverResult{}, ErrCrypto.Wrap(err.Error())
		}

		serverMreIntro, ok := mreMap[serverMrenclave]
		if !ok {
			return HandoverResult{}, ErrNotAuthorized
		}
		serverMrsIntro, ok := mrsMap[serverMrsigner]
		if !ok {
			return HandoverResult{}, ErrNotAuthorized
		}
		if serverMreIntro != serverMrsIntro {
			return HandoverResult{}, ErrRegistryInconsistent
		}

		clientMreIntro, ok := mreMap[clientMrenclave]
		if !ok {
			return HandoverResult{}, ErrNotAuthorized
		}
		clientMrsIntro, ok := mrsMap[clientMrsigner]
		if !ok {
			return HandoverResult{}, ErrNotAuthorized
		}
		if clientMreIntro != clientMrsIntro {
			return HandoverResult{}, ErrRegistryInconsistent
		}

		if !(clientMreIntro > serverMreIntro) {
			e.log.Warn().Uint64("client_intro", clientMreIntro).Uint64("server_intro", serverMreIntro).Msg("version not newer")
			return HandoverResult{}, ErrVersionNotNewer
		}
	}

	// Step 6: key agreement and encryption.
	serverSK, serverPK, err := e.crypto.GenerateECDHKeypair()
	if err != nil {
		return HandoverResult{}, err
	}
	e.clearEphemeral()
	e.ephemeralSK, e.ephemeralPK = serverSK, serverPK

	clientPK := response.Responder.EcdhPubkey[:]
	shared, err := e.crypto.DeriveSharedKey(serverSK, clientPK, clientPK, serverPK)
	if err != nil {
		return HandoverResult{}, err
	}
	defer zeroize(shared)

	iv, ciphertext, err := e.crypto.Seal(shared, secret, nil)
	if err != nil {
		return HandoverResult{}, err
	}

	// Step 7: envelope and attestation. EcdhPubkey is the SERVER's own
	// ephemeral public key, not the client's — spec.md §9's echoed-pubkey
	// correction, required so the client can derive the shared secret.
	var envPK [ECDHKeySize]byte
	copy(envPK[:], serverPK)
	var envIV [IVSize]byte
	copy(envIV[:], iv)

	envelope := EncryptedSecretEnvelope{
		EcdhPubkey: envPK,
		Ciphertext: ciphertext,
		IV:         envIV,
		DevMode:    devMode,
	}

	canon2, err := envelope.Canonical()
	if err != nil {
		return HandoverResult{}, err
	}
	h2 := sha256.Sum256(canon2)

	var attestation []byte
	if !devMode {
		raCtx, cancel := e.withRATimeout(ctx)
		attestation, err = e.attestation.CreateRemoteAttestation(raCtx, h2, e.cfg.PCCSURL)
		cancel()
		if err != nil {
			return HandoverResult{}, asTimeout(err)
		}
	}

	e.log.Info().Bool("dev_mode", devMode).Msg("handover completed")
	return HandoverResult{Envelope: envelope, Attestation: attestation}, nil
}
