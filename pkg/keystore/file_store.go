package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	saltSize = 16
	ivSize   = 12
	keySize  = 32

	keystoreInfo = "justicar-keystore-v1"
)

// fileFormat is the on-disk shape: a random salt, the HKDF-derived key's IV,
// and the AES-256-GCM ciphertext of the worker key.
type fileFormat struct {
	Salt       []byte `json:"salt"`
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
}

// FileStore persists a single worker key to one file, encrypted with a key
// derived from a passphrase. Grounded on the teacher's
// pkg/artifact_store/filesystem_archive_backend.go file-I/O conventions
// (os.MkdirAll(dir, 0700), os.WriteFile(path, data, 0600)).
type FileStore struct {
	path       string
	passphrase []byte
}

// NewFileStore builds a FileStore writing to path, encrypting with
// passphrase.
func NewFileStore(path string, passphrase []byte) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

func deriveKey(passphrase, salt []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, passphrase, salt, []byte(keystoreInfo))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, ErrIO.Wrap(err.Error())
	}
	return key, nil
}

// Store encrypts and writes the worker key, overwriting any prior contents.
func (s *FileStore) Store(workerKey []byte) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return ErrIO.Wrap(err.Error())
	}
	key, err := deriveKey(s.passphrase, salt)
	if err != nil {
		return err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return ErrIO.Wrap(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return ErrIO.Wrap(err.Error())
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return ErrIO.Wrap(err.Error())
	}
	ciphertext := gcm.Seal(nil, iv, workerKey, nil)

	data, err := json.Marshal(fileFormat{Salt: salt, IV: iv, Ciphertext: ciphertext})
	if err != nil {
		return ErrIO.Wrap(err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return ErrIO.Wrap(err.Error())
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return ErrIO.Wrap(err.Error())
	}
	return nil
}

// Load decrypts and returns the stored worker key.
func (s *FileStore) Load() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ErrIO.Wrap(err.Error())
	}

	var ff fileFormat
	if err := json.Unmarshal(raw, &ff); err != nil {
		return nil, ErrCorrupt.Wrap(err.Error())
	}

	key, err := deriveKey(s.passphrase, ff.Salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrCorrupt.Wrap(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrCorrupt.Wrap(err.Error())
	}
	plaintext, err := gcm.Open(nil, ff.IV, ff.Ciphertext, nil)
	if err != nil {
		return nil, ErrCorrupt.Wrap(err.Error())
	}
	return plaintext, nil
}
