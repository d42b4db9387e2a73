package wallet

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSigner is an ed25519 wallet held on disk, used in development and
// tests so the full connect/sign flow runs without external wallet
// software. The seed file is encrypted with a passphrase-derived key.
type LocalSigner struct {
	key     ed25519.PrivateKey
	address string
}

// NewLocalSigner generates a fresh in-memory signer.
func NewLocalSigner() (*LocalSigner, error) {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer key: %w", err)
	}
	return &LocalSigner{key: key, address: DeriveAddress(pub)}, nil
}

// LoadOrCreateLocalSigner loads the encrypted seed at path, creating and
// persisting a new one when the file does not exist.
func LoadOrCreateLocalSigner(path string, passphrase []byte) (*LocalSigner, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		signer, err := NewLocalSigner()
		if err != nil {
			return nil, err
		}
		if err := signer.save(path, passphrase); err != nil {
			return nil, err
		}
		return signer, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signer file: %w", err)
	}

	seed, err := decryptSeed(passphrase, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock signer: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer file holds a %d-byte seed, want %d", len(seed), ed25519.SeedSize)
	}

	key := ed25519.NewKeyFromSeed(seed)
	return &LocalSigner{
		key:     key,
		address: DeriveAddress(key.Public().(ed25519.PublicKey)),
	}, nil
}

func (s *LocalSigner) save(path string, passphrase []byte) error {
	encrypted, err := encryptSeed(passphrase, s.key.Seed())
	if err != nil {
		return fmt.Errorf("failed to encrypt signer seed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create signer directory: %w", err)
	}
	if err := os.WriteFile(path, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write signer file: %w", err)
	}
	return nil
}

// Address returns the signer's derived address.
func (s *LocalSigner) Address() string {
	return s.address
}

// PublicKeyHex returns the hex-encoded public key for verification requests.
func (s *LocalSigner) PublicKeyHex() string {
	return hex.EncodeToString(s.key.Public().(ed25519.PublicKey))
}

// SignMessage signs the message bytes and returns the hex signature.
func (s *LocalSigner) SignMessage(_ context.Context, message string) (string, error) {
	return hex.EncodeToString(ed25519.Sign(s.key, []byte(message))), nil
}

// ActiveSigner lets a *LocalSigner stand in as its own Provider.
func (s *LocalSigner) ActiveSigner(_ context.Context) (Signer, error) {
	if s == nil {
		return nil, ErrNoAccounts
	}
	return s, nil
}

func encryptSeed(passphrase, seed []byte) ([]byte, error) {
	gcm, err := passphraseAEAD(passphrase)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, seed, nil), nil
}

func decryptSeed(passphrase, data []byte) ([]byte, error) {
	gcm, err := passphraseAEAD(passphrase)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("signer file too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func passphraseAEAD(passphrase []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
