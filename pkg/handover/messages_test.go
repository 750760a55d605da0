package handover

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallenge_SerializationRoundtrip(t *testing.T) {
	original := Challenge{
		TargetInfo:  []byte{0xde, 0xad, 0xbe, 0xef},
		BlockNumber: 42,
		DevMode:     false,
		Nonce:       [NonceSize]byte{0x01},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundtripped Challenge
	require.NoError(t, json.Unmarshal(data, &roundtripped))

	assert.True(t, original.Equal(roundtripped))
}

func TestChallengeResponderInfo_SerializationRoundtrip(t *testing.T) {
	original := ChallengeResponderInfo{
		Challenge: Challenge{
			TargetInfo:  []byte("target"),
			BlockNumber: 7,
			DevMode:     true,
			Nonce:       [NonceSize]byte{0xAA, 0xBB},
		},
		LocalReport: []byte("report-bytes"),
		EcdhPubkey:  [ECDHKeySize]byte{0x01, 0x02, 0x03},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundtripped ChallengeResponderInfo
	require.NoError(t, json.Unmarshal(data, &roundtripped))

	assert.Equal(t, original, roundtripped)
}

func TestEncryptedSecretEnvelope_SerializationRoundtrip(t *testing.T) {
	original := EncryptedSecretEnvelope{
		EcdhPubkey: [ECDHKeySize]byte{0x09},
		Ciphertext: []byte("ciphertext-bytes"),
		IV:         [IVSize]byte{0x01, 0x02},
		DevMode:    false,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundtripped EncryptedSecretEnvelope
	require.NoError(t, json.Unmarshal(data, &roundtripped))

	assert.Equal(t, original, roundtripped)
}

// TestDigestDeterminism is spec.md §8 invariant 4: sha256(serialize(responder))
// computed independently by two parties over the same logical value must
// agree byte-for-byte.
func TestDigestDeterminism(t *testing.T) {
	responder := ChallengeResponderInfo{
		Challenge: Challenge{
			TargetInfo:  []byte("ti"),
			BlockNumber: 99,
			DevMode:     false,
			Nonce:       [NonceSize]byte{0x42},
		},
		LocalReport: []byte("report"),
		EcdhPubkey:  [ECDHKeySize]byte{0x07},
	}

	canonA, err := responder.Canonical()
	require.NoError(t, err)
	canonB, err := responder.Canonical()
	require.NoError(t, err)

	assert.Equal(t, canonA, canonB)

	// A structurally-identical copy constructed independently must also
	// serialize identically — this is what lets client and server agree on
	// h without a shared serializer instance.
	copy2 := ChallengeResponderInfo{
		Challenge: Challenge{
			TargetInfo:  append([]byte{}, responder.Challenge.TargetInfo...),
			BlockNumber: responder.Challenge.BlockNumber,
			DevMode:     responder.Challenge.DevMode,
			Nonce:       responder.Challenge.Nonce,
		},
		LocalReport: append([]byte{}, responder.LocalReport...),
		EcdhPubkey:  responder.EcdhPubkey,
	}
	canonC, err := copy2.Canonical()
	require.NoError(t, err)
	assert.Equal(t, canonA, canonC)
}

func TestChallenge_RejectsShortNonce(t *testing.T) {
	data := []byte(`{"target_info":"","block_number":1,"dev_mode":false,"nonce":"aabb"}`)
	var c Challenge
	err := json.Unmarshal(data, &c)
	assert.Error(t, err)
}
