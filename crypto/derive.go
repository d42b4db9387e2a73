package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length produced by derivation.
const KeySize = 32

// keyDerivationMessageV1 is the canonical plaintext a wallet signs to derive
// its encryption key. It must never change in a shipped version: the same
// wallet must always produce the same key. A future revision adds a new
// constant and a new info tag, and tries historical versions when hydrating
// old data, rather than editing this one.
const keyDerivationMessageV1 = "cipherdesk: derive my end-to-end encryption key.\n\n" +
	"Signing this message generates the key that protects your messages.\n" +
	"It costs nothing and sends no transaction.\n\n" +
	"Version: 1"

// hkdfInfoV1 tags derived keys with the protocol version.
const hkdfInfoV1 = "cipherdesk-e2e-v1"

// ErrInvalidSignature indicates the wallet signature was not valid hex bytes.
var ErrInvalidSignature = errors.New("invalid signature format")

// SigningMessage returns the exact text a wallet is asked to sign for key
// derivation. Callers must show it to the user verbatim before signing.
func SigningMessage() string {
	return keyDerivationMessageV1
}

// DeriveKeyMaterial deterministically derives 32 bytes of key material from
// a hex-encoded wallet signature over SigningMessage(). Identical signature
// in, identical key material out, always.
func DeriveKeyMaterial(signatureHex string) ([]byte, error) {
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return nil, err
	}

	salt := sha256.Sum256([]byte(keyDerivationMessageV1))

	kdf := hkdf.New(sha256.New, sig, salt[:], []byte(hkdfInfoV1))
	material := make([]byte, KeySize)
	if _, err := io.ReadFull(kdf, material); err != nil {
		return nil, fmt.Errorf("failed to derive key material: %w", err)
	}

	return material, nil
}

// decodeSignature parses a hex signature, tolerating an optional 0x prefix.
func decodeSignature(signatureHex string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(signatureHex), "0x")
	if s == "" {
		return nil, fmt.Errorf("%w: empty signature", ErrInvalidSignature)
	}
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return sig, nil
}
