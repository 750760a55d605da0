package attestation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedAdapter_CreateVerifyRoundtrip(t *testing.T) {
	mre := hex.EncodeToString(append(make([]byte, 31), 0x01))
	mrs := hex.EncodeToString(append(make([]byte, 31), 0x02))
	a := NewSimulatedAdapter(mre, mrs)
	ctx := context.Background()
	digest := sha256.Sum256([]byte("payload"))

	att, err := a.CreateRemoteAttestation(ctx, digest, "")
	require.NoError(t, err)

	ok, err := a.VerifyRemoteAttestation(ctx, digest, att)
	require.NoError(t, err)
	assert.True(t, ok)

	gotMre, gotMrs, err := a.ExtractMeasurements(att)
	require.NoError(t, err)
	assert.Equal(t, mre, gotMre)
	assert.Equal(t, mrs, gotMrs)
}

func TestSimulatedAdapter_VerifyRejectsWrongDigest(t *testing.T) {
	mre := hex.EncodeToString(make([]byte, 32))
	mrs := hex.EncodeToString(make([]byte, 32))
	a := NewSimulatedAdapter(mre, mrs)
	ctx := context.Background()

	att, err := a.CreateRemoteAttestation(ctx, sha256.Sum256([]byte("a")), "")
	require.NoError(t, err)

	ok, err := a.VerifyRemoteAttestation(ctx, sha256.Sum256([]byte("b")), att)
	require.NoError(t, err)
	assert.False(t, ok)
}
