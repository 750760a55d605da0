package localreport

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex32(b byte) string {
	buf := make([]byte, 32)
	buf[0] = b
	return hex.EncodeToString(buf)
}

func TestSimulatedBridge_SameMachineVerifies(t *testing.T) {
	secret := []byte("shared-platform-secret-32-bytes")

	server, err := NewSimulatedBridge("server", mustHex32(0x01), mustHex32(0x02), secret)
	require.NoError(t, err)
	client, err := NewSimulatedBridge("client", mustHex32(0x03), mustHex32(0x04), secret)
	require.NoError(t, err)

	serverTI, err := server.MyTargetInfo()
	require.NoError(t, err)

	report, err := client.MakeLocalReport(serverTI, [64]byte{})
	require.NoError(t, err)

	mrenclave, mrsigner, err := server.VerifyLocalReport(report)
	require.NoError(t, err)
	assert.Equal(t, mustHex32(0x03), mrenclave)
	assert.Equal(t, mustHex32(0x04), mrsigner)
}

func TestSimulatedBridge_DifferentMachineRejects(t *testing.T) {
	server, err := NewSimulatedBridge("server", mustHex32(0x01), mustHex32(0x02), []byte("secret-a-32-bytes-padded-to-len"))
	require.NoError(t, err)
	client, err := NewSimulatedBridge("client", mustHex32(0x03), mustHex32(0x04), []byte("secret-b-different-32-bytes-pad"))
	require.NoError(t, err)

	serverTI, err := server.MyTargetInfo()
	require.NoError(t, err)

	report, err := client.MakeLocalReport(serverTI, [64]byte{})
	require.NoError(t, err)

	_, _, err = server.VerifyLocalReport(report)
	assert.ErrorIs(t, err, ErrMACMismatch)
}

func TestSimulatedBridge_RejectsMalformedReport(t *testing.T) {
	server, err := NewSimulatedBridge("server", mustHex32(0x01), mustHex32(0x02), []byte("secret"))
	require.NoError(t, err)

	_, _, err = server.VerifyLocalReport([]byte("too short"))
	assert.ErrorIs(t, err, ErrReportMalformed)
}

func TestSimulatedBridge_SelfReportVerifiesOwnMeasurements(t *testing.T) {
	secret := []byte("shared-secret")
	b, err := NewSimulatedBridge("solo", mustHex32(0xAA), mustHex32(0xBB), secret)
	require.NoError(t, err)

	myTI, err := b.MyTargetInfo()
	require.NoError(t, err)

	report, err := b.MakeLocalReport(myTI, [64]byte{})
	require.NoError(t, err)

	mrenclave, mrsigner, err := b.VerifyLocalReport(report)
	require.NoError(t, err)
	assert.Equal(t, mustHex32(0xAA), mrenclave)
	assert.Equal(t, mustHex32(0xBB), mrsigner)
}
