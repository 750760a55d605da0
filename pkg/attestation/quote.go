package attestation

import (
	"crypto/ed25519"
	"encoding/binary"
)

// Quote layout, directly grounded on the teacher's SGX DCAP quote offsets
// (pkg/enclave_runtime/attestation_verifier.go's sgxMRENCLAVEOffset=112,
// sgxMRSIGNEROffset=176, sgxAttributesOffset=96, sgxReportDataOffset=320,
// sgxMinQuoteSize=432). The trailing signature area is extended from the
// teacher's 48-byte placeholder (its own quote never verifies a real
// signature — see its "QE signature verification is simulated" TODO) to a
// full ed25519.SignatureSize so this adapter can actually sign and verify,
// rather than merely gesturing at where a signature would go.
const (
	versionOffset    = 0
	attKeyTypeOffset = 2
	reportBodyOffset = 48

	attributesOffset = 96
	mrenclaveOffset  = 112
	mrsignerOffset   = 176
	reportDataOffset = 320

	mrenclaveSize  = 32
	mrsignerSize   = 32
	reportDataSize = 64

	quoteVersion  uint16 = 3
	attKeyTypeECDSA uint16 = 2

	signatureOffset = reportDataOffset + reportDataSize
	quoteSize       = signatureOffset + ed25519.SignatureSize
)

// buildQuote assembles an unsigned quote with the given measurements and
// report data, ready for signing over bytes [0:signatureOffset].
func buildQuote(mrenclave, mrsigner [32]byte, reportData [64]byte) []byte {
	q := make([]byte, quoteSize)
	binary.LittleEndian.PutUint16(q[versionOffset:], quoteVersion)
	binary.LittleEndian.PutUint16(q[attKeyTypeOffset:], attKeyTypeECDSA)
	copy(q[mrenclaveOffset:mrenclaveOffset+mrenclaveSize], mrenclave[:])
	copy(q[mrsignerOffset:mrsignerOffset+mrsignerSize], mrsigner[:])
	copy(q[reportDataOffset:reportDataOffset+reportDataSize], reportData[:])
	return q
}

func parseQuote(q []byte) (mrenclave, mrsigner [32]byte, reportData [64]byte, sig []byte, ok bool) {
	if len(q) < quoteSize {
		return mrenclave, mrsigner, reportData, nil, false
	}
	version := binary.LittleEndian.Uint16(q[versionOffset:])
	if version != quoteVersion {
		return mrenclave, mrsigner, reportData, nil, false
	}
	copy(mrenclave[:], q[mrenclaveOffset:mrenclaveOffset+mrenclaveSize])
	copy(mrsigner[:], q[mrsignerOffset:mrsignerOffset+mrsignerSize])
	copy(reportData[:], q[reportDataOffset:reportDataOffset+reportDataSize])
	sig = q[signatureOffset : signatureOffset+ed25519.SignatureSize]
	return mrenclave, mrsigner, reportData, sig, true
}
