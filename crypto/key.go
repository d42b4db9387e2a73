package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// messageKey is an opaque handle over an imported AES-256-GCM key. It
// exposes only seal and open; the raw key bytes are not reachable from
// outside this package once imported.
type messageKey struct {
	aead cipher.AEAD
}

// importKey wraps raw key material in a messageKey. The caller should drop
// its reference to the material afterwards; persistence goes through the
// store, never back out of the handle.
func importKey(material []byte) (*messageKey, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("key material must be %d bytes, got %d", KeySize, len(material))
	}

	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	return &messageKey{aead: aead}, nil
}

// seal encrypts plaintext with the given nonce.
func (k *messageKey) seal(nonce, plaintext []byte) []byte {
	return k.aead.Seal(nil, nonce, plaintext, nil)
}

// open decrypts and authenticates ciphertext with the given nonce.
func (k *messageKey) open(nonce, ciphertext []byte) ([]byte, error) {
	return k.aead.Open(nil, nonce, ciphertext, nil)
}

// nonceSize reports the AEAD nonce length (96 bits for GCM).
func (k *messageKey) nonceSize() int {
	return k.aead.NonceSize()
}
