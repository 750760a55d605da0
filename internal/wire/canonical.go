// Package wire provides the deterministic encoding that handover messages
// are hashed and signed over. Both peers in a handover MUST use identical
// bytes for the same logical message, since remote-attestation digests are
// taken over the serialized form.
package wire

import (
	"bytes"
	"encoding/json"
)

// Canonical marshals v to JSON with a fixed key order and no insignificant
// whitespace. encoding/json already sorts map keys and emits struct fields
// in declaration order, so key order is fixed by the value's type; on top of
// that, Canonical disables HTML escaping and strips the encoder's trailing
// newline.
func Canonical(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; strip it so the same
	// logical message always produces byte-identical output regardless of
	// whether it went through Encoder or Marshal.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
