package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
)

var ErrNotConfigured = errors.New("data encryption key not configured")

// Box seals small secrets, such as TOTP seeds, with AES-256-GCM. The nonce
// is prepended to the ciphertext.
type Box struct {
	key []byte
}

// NewBox accepts a 32 byte key as hex, base64 or raw text. An empty key
// yields a Box that refuses to seal.
func NewBox(key string) (*Box, error) {
	if key == "" {
		return &Box{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, goerr.New("DATA_ENCRYPTION_KEY must be 32 bytes after decoding", goerr.V("length", len(decoded)))
	}
	return &Box{key: decoded}, nil
}

func (b *Box) Configured() bool {
	return b != nil && len(b.key) == 32
}

func (b *Box) Seal(plain string) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, goerr.Wrap(err, "failed to read nonce")
	}
	return gcm.Seal(nonce, nonce, []byte(plain), nil), nil
}

func (b *Box) Open(sealed []byte) (string, error) {
	gcm, err := b.aead()
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", goerr.New("sealed value too short", goerr.V("length", len(sealed)))
	}
	nonce, data := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open sealed value")
	}
	return string(plain), nil
}

func (b *Box) aead() (cipher.AEAD, error) {
	if !b.Configured() {
		return nil, ErrNotConfigured
	}
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gcm")
	}
	return gcm, nil
}

func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
