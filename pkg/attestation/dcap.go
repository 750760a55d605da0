package attestation

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DCAPAdapter produces and verifies SGX-DCAP-shaped quotes. Signing is
// simulated with an Ed25519 key rather than a real SGX quoting enclave,
// matching the teacher's own posture toward QE-signature verification
// (flagged there as a TODO, not hidden) — see DESIGN.md.
type DCAPAdapter struct {
	pub       ed25519.PublicKey
	privKey   ed25519.PrivateKey
	mrenclave [32]byte
	mrsigner  [32]byte

	httpClient *http.Client
	log        zerolog.Logger
}

// NewDCAPAdapter builds a DCAPAdapter identifying as the given hex-lowercase
// mrenclave/mrsigner pair, using priv to sign quotes it creates.
func NewDCAPAdapter(mrenclaveHex, mrsignerHex string, priv ed25519.PrivateKey, log zerolog.Logger) (*DCAPAdapter, error) {
	mrenclave, err := decodeMeasurement(mrenclaveHex)
	if err != nil {
		return nil, err
	}
	mrsigner, err := decodeMeasurement(mrsignerHex)
	if err != nil {
		return nil, err
	}
	return &DCAPAdapter{
		privKey:    priv,
		pub:        priv.Public().(ed25519.PublicKey),
		mrenclave:  mrenclave,
		mrsigner:   mrsigner,
		httpClient: &http.Client{},
		log:        log.With().Str("component", "dcap_adapter").Logger(),
	}, nil
}

func decodeMeasurement(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, ErrBadMeasurementEncoding
	}
	copy(out[:], b)
	return out, nil
}

// pccsCollateralRequest is the payload this adapter POSTs to the configured
// PCCS URL before creating a quote, simulating the collateral
// fetch a real DCAP quoting library performs (TCB info, QE identity). The
// request carries a uuid so PCCS-side logs can correlate it with this
// handover attempt.
type pccsCollateralRequest struct {
	RequestID string `json:"request_id"`
	MRENCLAVE string `json:"mrenclave"`
	MRSIGNER  string `json:"mrsigner"`
}

func (a *DCAPAdapter) fetchCollateral(ctx context.Context, pccsURL string) error {
	if pccsURL == "" {
		return nil
	}
	body, err := json.Marshal(pccsCollateralRequest{
		RequestID: uuid.NewString(),
		MRENCLAVE: hex.EncodeToString(a.mrenclave[:]),
		MRSIGNER:  hex.EncodeToString(a.mrsigner[:]),
	})
	if err != nil {
		return ErrPCCSRequest.Wrap(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pccsURL+"/v4/collateral", bytes.NewReader(body))
	if err != nil {
		return ErrPCCSRequest.Wrap(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.log.Warn().Err(err).Msg("PCCS collateral fetch failed, proceeding with locally-held trust anchor")
		return nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return ErrPCCSRequest.Wrapf("PCCS returned %d", resp.StatusCode)
	}
	return nil
}

// CreateRemoteAttestation implements handover.AttestationAdapter.
func (a *DCAPAdapter) CreateRemoteAttestation(ctx context.Context, payloadDigest [32]byte, pccsURL string) ([]byte, error) {
	if err := a.fetchCollateral(ctx, pccsURL); err != nil {
		return nil, err
	}

	var reportData [64]byte
	copy(reportData[:], payloadDigest[:])

	quote := buildQuote(a.mrenclave, a.mrsigner, reportData)
	sig := ed25519.Sign(a.privKey, quote[:signatureOffset])
	full := append(quote[:signatureOffset:signatureOffset], sig...)
	return full, nil
}

// VerifyRemoteAttestation implements handover.AttestationAdapter. Callers
// MUST check the returned bool; see pkg/handover's engine, which does.
func (a *DCAPAdapter) VerifyRemoteAttestation(ctx context.Context, payloadDigest [32]byte, attestation []byte) (bool, error) {
	_, _, reportData, sig, ok := parseQuote(attestation)
	if !ok {
		return false, nil
	}
	if !ed25519.Verify(a.pub, attestation[:signatureOffset], sig) {
		return false, nil
	}
	var expected [64]byte
	copy(expected[:], payloadDigest[:])
	return bytes.Equal(reportData[:], expected[:]), nil
}

// ExtractMeasurements implements handover.AttestationAdapter.
func (a *DCAPAdapter) ExtractMeasurements(attestation []byte) (string, string, error) {
	mrenclave, mrsigner, _, _, ok := parseQuote(attestation)
	if !ok {
		if len(attestation) >= quoteSize {
			return "", "", ErrUnsupportedVersion
		}
		return "", "", fmt.Errorf("%w: quote malformed", ErrQuoteTooShort)
	}
	return hex.EncodeToString(mrenclave[:]), hex.EncodeToString(mrsigner[:]), nil
}
