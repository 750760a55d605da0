package handover

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	// NonceSize is the length in bytes of a challenge nonce.
	NonceSize = 32
	// ECDHKeySize is the length in bytes of an X25519 public or secret key.
	ECDHKeySize = 32
	// AEADKeySize is the length in bytes of the derived AES-256-GCM key.
	AEADKeySize = 32
	// IVSize is the length in bytes of the AES-GCM nonce (96 bits).
	IVSize = 12

	hkdfInfo = "justicar-handover-v1"
)

// CryptoPrimitives bundles every cryptographic operation the handover
// protocol needs, so HandoverEngine never calls a crypto package directly
// and every primitive choice lives in one place.
type CryptoPrimitives struct{}

// NewCryptoPrimitives returns the default primitive set.
func NewCryptoPrimitives() CryptoPrimitives {
	return CryptoPrimitives{}
}

// RandomBytes returns n cryptographically random bytes.
func (CryptoPrimitives) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	return b, nil
}

// SHA256 returns the SHA-256 digest of data.
func (CryptoPrimitives) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// GenerateECDHKeypair produces a fresh X25519 keypair.
func (c CryptoPrimitives) GenerateECDHKeypair() (sk, pk []byte, err error) {
	sk, err = c.RandomBytes(ECDHKeySize)
	if err != nil {
		return nil, nil, err
	}
	pk, err = curve25519.X25519(sk, curve25519.Basepoint)
	if err != nil {
		zeroize(sk)
		return nil, nil, ErrCrypto.Wrap(err.Error())
	}
	return sk, pk, nil
}

// DeriveSharedKey runs X25519 agreement between sk and peerPK, then feeds the
// raw agreement through HKDF-SHA256 (salted with clientPK||serverPK) to
// produce the AES-256-GCM key. Both peers compute the same salt from the two
// public keys already exchanged on the wire, so this requires no extra round
// trip. See DESIGN.md for why this deviates from using the raw agreement
// directly.
func (c CryptoPrimitives) DeriveSharedKey(sk, peerPK, clientPK, serverPK []byte) ([]byte, error) {
	raw, err := curve25519.X25519(sk, peerPK)
	if err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	defer zeroize(raw)

	salt := make([]byte, 0, len(clientPK)+len(serverPK))
	salt = append(salt, clientPK...)
	salt = append(salt, serverPK...)

	kdf := hkdf.New(sha256.New, raw, salt, []byte(hkdfInfo))
	key := make([]byte, AEADKeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	return key, nil
}

// curve25519Public recomputes the X25519 public key for a secret key. The
// client retains only its ephemeral secret key between AcceptChallenge and
// DecryptEnvelope; this avoids threading the public key through separately.
func curve25519Public(sk []byte) ([]byte, error) {
	pk, err := curve25519.X25519(sk, curve25519.Basepoint)
	if err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	return pk, nil
}

// Seal encrypts plaintext with AES-256-GCM under key, returning a fresh
// 12-byte IV and the ciphertext (which includes the GCM authentication tag).
func (CryptoPrimitives) Seal(key, plaintext, aad []byte) (iv, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, ErrCrypto.Wrap(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, ErrCrypto.Wrap(err.Error())
	}
	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, ErrCrypto.Wrap(err.Error())
	}
	ciphertext = gcm.Seal(nil, iv, plaintext, aad)
	return iv, ciphertext, nil
}

// Open decrypts ciphertext with AES-256-GCM under key and iv.
func (CryptoPrimitives) Open(key, iv, ciphertext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, aad)
	if err != nil {
		return nil, ErrCrypto.Wrap(err.Error())
	}
	return plaintext, nil
}
