package handover

import (
	"encoding/hex"
	"encoding/json"

	"github.com/justicar-labs/handover/internal/wire"
)

// Challenge is issued by the server once per handover attempt and echoed
// verbatim by the client in its ChallengeResponse.
type Challenge struct {
	TargetInfo  []byte      `json:"-"`
	BlockNumber uint64      `json:"-"`
	DevMode     bool        `json:"-"`
	Nonce       [NonceSize]byte `json:"-"`
}

// challengeWire is Challenge's on-the-wire shape: byte fields are
// hex-lowercase strings (spec.md §9's measurement/byte-encoding correction
// applied uniformly to every wire byte field, not just measurements), and
// field order is fixed by struct declaration so encoding/json's object
// output is stable across peers.
type challengeWire struct {
	TargetInfo  string `json:"target_info"`
	BlockNumber uint64 `json:"block_number"`
	DevMode     bool   `json:"dev_mode"`
	Nonce       string `json:"nonce"`
}

func (c Challenge) toWire() challengeWire {
	return challengeWire{
		TargetInfo:  hex.EncodeToString(c.TargetInfo),
		BlockNumber: c.BlockNumber,
		DevMode:     c.DevMode,
		Nonce:       hex.EncodeToString(c.Nonce[:]),
	}
}

func (w challengeWire) toChallenge() (Challenge, error) {
	targetInfo, err := hex.DecodeString(w.TargetInfo)
	if err != nil {
		return Challenge{}, ErrSerialization.Wrap(err.Error())
	}
	nonce, err := hex.DecodeString(w.Nonce)
	if err != nil {
		return Challenge{}, ErrSerialization.Wrap(err.Error())
	}
	if len(nonce) != NonceSize {
		return Challenge{}, ErrSerialization.Wrapf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	var c Challenge
	c.TargetInfo = targetInfo
	c.BlockNumber = w.BlockNumber
	c.DevMode = w.DevMode
	copy(c.Nonce[:], nonce)
	return c, nil
}

// MarshalJSON implements json.Marshaler with the hex-encoded wire shape.
func (c Challenge) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toWire())
}

// UnmarshalJSON implements json.Unmarshaler with the hex-encoded wire shape.
func (c *Challenge) UnmarshalJSON(data []byte) error {
	var w challengeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ErrSerialization.Wrap(err.Error())
	}
	decoded, err := w.toChallenge()
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Canonical returns the deterministic serialization that SHA-256 digests in
// this protocol are taken over.
func (c Challenge) Canonical() ([]byte, error) {
	b, err := wire.Canonical(c.toWire())
	if err != nil {
		return nil, ErrSerialization.Wrap(err.Error())
	}
	return b, nil
}

// Equal reports whether two challenges carry identical bytes, used for the
// replay-protection check in handover_start step 1.
func (c Challenge) Equal(other Challenge) bool {
	if c.BlockNumber != other.BlockNumber || c.DevMode != other.DevMode {
		return false
	}
	if c.Nonce != other.Nonce {
		return false
	}
	if len(c.TargetInfo) != len(other.TargetInfo) {
		return false
	}
	for i := range c.TargetInfo {
		if c.TargetInfo[i] != other.TargetInfo[i] {
			return false
		}
	}
	return true
}

// ChallengeResponderInfo is constructed by the client and hashed to form the
// payload bound by the client's remote attestation.
type ChallengeResponderInfo struct {
	Challenge   Challenge
	LocalReport []byte
	EcdhPubkey  [ECDHKeySize]byte
}

type challengeResponderInfoWire struct {
	Challenge   challengeWire `json:"challenge"`
	LocalReport string        `json:"local_report"`
	EcdhPubkey  string        `json:"ecdh_pubkey"`
}

func (r ChallengeResponderInfo) toWire() challengeResponderInfoWire {
	return challengeResponderInfoWire{
		Challenge:   r.Challenge.toWire(),
		LocalReport: hex.EncodeToString(r.LocalReport),
		EcdhPubkey:  hex.EncodeToString(r.EcdhPubkey[:]),
	}
}

func (w challengeResponderInfoWire) toResponderInfo() (ChallengeResponderInfo, error) {
	challenge, err := w.Challenge.toChallenge()
	if err != nil {
		return ChallengeResponderInfo{}, err
	}
	localReport, err := hex.DecodeString(w.LocalReport)
	if err != nil {
		return ChallengeResponderInfo{}, ErrSerialization.Wrap(err.Error())
	}
	pk, err := hex.DecodeString(w.EcdhPubkey)
	if err != nil {
		return ChallengeResponderInfo{}, ErrSerialization.Wrap(err.Error())
	}
	if len(pk) != ECDHKeySize {
		return ChallengeResponderInfo{}, ErrSerialization.Wrapf("ecdh_pubkey must be %d bytes, got %d", ECDHKeySize, len(pk))
	}
	var r ChallengeResponderInfo
	r.Challenge = challenge
	r.LocalReport = localReport
	copy(r.EcdhPubkey[:], pk)
	return r, nil
}

// MarshalJSON implements json.Marshaler with the hex-encoded wire shape.
func (r ChallengeResponderInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalJSON implements json.Unmarshaler with the hex-encoded wire shape.
func (r *ChallengeResponderInfo) UnmarshalJSON(data []byte) error {
	var w challengeResponderInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ErrSerialization.Wrap(err.Error())
	}
	decoded, err := w.toResponderInfo()
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// Canonical returns the deterministic serialization this message's digest is
// taken over (spec.md §4.5.2 step 4, §4.5.3 step 2).
func (r ChallengeResponderInfo) Canonical() ([]byte, error) {
	b, err := wire.Canonical(r.toWire())
	if err != nil {
		return nil, ErrSerialization.Wrap(err.Error())
	}
	return b, nil
}

// ChallengeResponse is returned by the client to the server.
type ChallengeResponse struct {
	Responder   ChallengeResponderInfo
	Attestation []byte // nil iff Responder.Challenge.DevMode
}

type challengeResponseWire struct {
	Responder   challengeResponderInfoWire `json:"responder"`
	Attestation *string                    `json:"attestation"`
}

// MarshalJSON implements json.Marshaler with the hex-encoded wire shape.
func (r ChallengeResponse) MarshalJSON() ([]byte, error) {
	w := challengeResponseWire{Responder: r.Responder.toWire()}
	if r.Attestation != nil {
		s := hex.EncodeToString(r.Attestation)
		w.Attestation = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler with the hex-encoded wire shape.
func (r *ChallengeResponse) UnmarshalJSON(data []byte) error {
	var w challengeResponseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ErrSerialization.Wrap(err.Error())
	}
	responder, err := w.Responder.toResponderInfo()
	if err != nil {
		return err
	}
	var att []byte
	if w.Attestation != nil {
		att, err = hex.DecodeString(*w.Attestation)
		if err != nil {
			return ErrSerialization.Wrap(err.Error())
		}
	}
	r.Responder = responder
	r.Attestation = att
	return nil
}

// EncryptedSecretEnvelope carries the AEAD-encrypted worker key. EcdhPubkey
// is the SERVER's freshly generated ephemeral public key — spec.md §9's
// "echoed pubkey" protocol correction: the source echoes the client's key
// here, which leaves the client with no way to derive the shared secret.
type EncryptedSecretEnvelope struct {
	EcdhPubkey [ECDHKeySize]byte
	Ciphertext []byte
	IV         [IVSize]byte
	DevMode    bool
}

type encryptedSecretEnvelopeWire struct {
	EcdhPubkey string `json:"ecdh_pubkey"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	DevMode    bool   `json:"dev_mode"`
}

func (e EncryptedSecretEnvelope) toWire() encryptedSecretEnvelopeWire {
	return encryptedSecretEnvelopeWire{
		EcdhPubkey: hex.EncodeToString(e.EcdhPubkey[:]),
		Ciphertext: hex.EncodeToString(e.Ciphertext),
		IV:         hex.EncodeToString(e.IV[:]),
		DevMode:    e.DevMode,
	}
}

func (w encryptedSecretEnvelopeWire) toEnvelope() (EncryptedSecretEnvelope, error) {
	pk, err := hex.DecodeString(w.EcdhPubkey)
	if err != nil {
		return EncryptedSecretEnvelope{}, ErrSerialization.Wrap(err.Error())
	}
	if len(pk) != ECDHKeySize {
		return EncryptedSecretEnvelope{}, ErrSerialization.Wrapf("ecdh_pubkey must be %d bytes, got %d", ECDHKeySize, len(pk))
	}
	ciphertext, err := hex.DecodeString(w.Ciphertext)
	if err != nil {
		return EncryptedSecretEnvelope{}, ErrSerialization.Wrap(err.Error())
	}
	iv, err := hex.DecodeString(w.IV)
	if err != nil {
		return EncryptedSecretEnvelope{}, ErrSerialization.Wrap(err.Error())
	}
	if len(iv) != IVSize {
		return EncryptedSecretEnvelope{}, ErrSerialization.Wrapf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	var e EncryptedSecretEnvelope
	copy(e.EcdhPubkey[:], pk)
	e.Ciphertext = ciphertext
	copy(e.IV[:], iv)
	e.DevMode = w.DevMode
	return e, nil
}

// MarshalJSON implements json.Marshaler with the hex-encoded wire shape.
func (e EncryptedSecretEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toWire())
}

// UnmarshalJSON implements json.Unmarshaler with the hex-encoded wire shape.
func (e *EncryptedSecretEnvelope) UnmarshalJSON(data []byte) error {
	var w encryptedSecretEnvelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ErrSerialization.Wrap(err.Error())
	}
	decoded, err := w.toEnvelope()
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// Canonical returns the deterministic serialization this message's digest
// (h2 in spec.md §4.5.3 step 7) is taken over.
func (e EncryptedSecretEnvelope) Canonical() ([]byte, error) {
	b, err := wire.Canonical(e.toWire())
	if err != nil {
		return nil, ErrSerialization.Wrap(err.Error())
	}
	return b, nil
}

// HandoverResult is the server's final response to the client.
type HandoverResult struct {
	Envelope    EncryptedSecretEnvelope
	Attestation []byte // nil iff Envelope.DevMode
}

type handoverResultWire struct {
	Envelope    encryptedSecretEnvelopeWire `json:"envelope"`
	Attestation *string                     `json:"attestation"`
}

// MarshalJSON implements json.Marshaler with the hex-encoded wire shape.
func (h HandoverResult) MarshalJSON() ([]byte, error) {
	w := handoverResultWire{Envelope: h.Envelope.toWire()}
	if h.Attestation != nil {
		s := hex.EncodeToString(h.Attestation)
		w.Attestation = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler with the hex-encoded wire shape.
func (h *HandoverResult) UnmarshalJSON(data []byte) error {
	var w handoverResultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ErrSerialization.Wrap(err.Error())
	}
	envelope, err := w.Envelope.toEnvelope()
	if err != nil {
		return err
	}
	var att []byte
	if w.Attestation != nil {
		att, err = hex.DecodeString(*w.Attestation)
		if err != nil {
			return ErrSerialization.Wrap(err.Error())
		}
	}
	h.Envelope = envelope
	h.Attestation = att
	return nil
}
