package crypto

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cipherdesk/cipherdesk/shared"
)

var (
	// ErrNotInitialized indicates encrypt/decrypt was called before a key
	// was derived or loaded.
	ErrNotInitialized = errors.New("encryption is not initialized")

	// ErrSignatureRejected indicates the wallet refused or failed to sign
	// the derivation message.
	ErrSignatureRejected = errors.New("wallet signature rejected")

	// ErrKeyImport indicates derived key material could not be imported as
	// an AEAD key.
	ErrKeyImport = errors.New("key import failed")

	// ErrDecryptFailed indicates authentication failed: the payload was
	// tampered with, corrupted, or encrypted under a different key.
	ErrDecryptFailed = errors.New("decryption failed")
)

// WalletSigner is the only thing the encryption core needs from a wallet:
// an address and the ability to sign a message. Private keys never pass
// through this package.
type WalletSigner interface {
	Address() string
	SignMessage(ctx context.Context, message string) (string, error)
}

// EncryptedPayload is the output of a single encryption: base64 cipher text
// and the base64 96-bit IV it was sealed with.
type EncryptedPayload struct {
	CipherText string
	IV         string
}

// Envelope packs the payload into the iv|cipherText wire form.
func (p EncryptedPayload) Envelope() string {
	return shared.EncodeEnvelope(p.IV, p.CipherText)
}

// SecurityService owns the in-memory encryption key and orchestrates
// derivation, persistence, and message encryption. Construct one per app
// lifetime and inject it; there is no package-level instance.
type SecurityService struct {
	mu            sync.RWMutex
	store         *Store
	key           *messageKey
	walletAddress string
}

// NewSecurityService creates a service over the given key store. The store
// must already be open.
func NewSecurityService(store *Store) *SecurityService {
	return &SecurityService{store: store}
}

// SigningMessage returns the canonical derivation message, for display to
// the user before they sign.
func (s *SecurityService) SigningMessage() string {
	return SigningMessage()
}

// State reports whether a key is loaded and which wallet it is bound to.
func (s *SecurityService) State() (ready bool, walletAddress string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil, s.walletAddress
}

// IsReady reports whether an active key handle is loaded in memory.
func (s *SecurityService) IsReady() bool {
	ready, _ := s.State()
	return ready
}

// InitializeFromWallet asks the signer for a signature over the canonical
// message, derives and imports the key, and persists it. Calling this while
// already initialized rotates to the new wallet's key.
func (s *SecurityService) InitializeFromWallet(ctx context.Context, signer WalletSigner) error {
	sig, err := signer.SignMessage(ctx, SigningMessage())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}

	material, err := DeriveKeyMaterial(sig)
	if err != nil {
		return err
	}

	key, err := importKey(material)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	address := strings.ToLower(signer.Address())
	if err := s.store.Save(material, address); err != nil {
		return fmt.Errorf("failed to persist key: %w", err)
	}

	s.mu.Lock()
	s.key = key
	s.walletAddress = address
	s.mu.Unlock()
	return nil
}

// LoadFromStorage hydrates the in-memory key from the store without a new
// signature. Returns false when no usable record exists; a missing key is
// a normal state, not an error.
func (s *SecurityService) LoadFromStorage() bool {
	rec, err := s.store.Load()
	if err != nil || rec == nil {
		return false
	}

	key, err := importKey(rec.KeyMaterial)
	if err != nil {
		return false
	}

	s.mu.Lock()
	s.key = key
	s.walletAddress = rec.WalletAddress
	s.mu.Unlock()
	return true
}

// Encrypt seals plaintext under a fresh random IV. The same plaintext
// encrypted twice yields different cipher text.
func (s *SecurityService) Encrypt(plaintext string) (EncryptedPayload, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()
	if key == nil {
		return EncryptedPayload{}, ErrNotInitialized
	}

	iv := make([]byte, key.nonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return EncryptedPayload{}, fmt.Errorf("failed to generate iv: %w", err)
	}

	cipherText := key.seal(iv, []byte(plaintext))

	return EncryptedPayload{
		CipherText: base64.StdEncoding.EncodeToString(cipherText),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt opens a payload produced by Encrypt. Authentication failure
// returns ErrDecryptFailed; callers that render message lists should map it
// to shared.DecryptPlaceholder rather than aborting the whole list.
func (s *SecurityService) Decrypt(cipherText, iv string) (string, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()
	if key == nil {
		return "", ErrNotInitialized
	}

	rawIV, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding", ErrDecryptFailed)
	}
	rawCipher, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("%w: bad cipher text encoding", ErrDecryptFailed)
	}
	if len(rawIV) != key.nonceSize() {
		return "", fmt.Errorf("%w: bad iv length", ErrDecryptFailed)
	}

	plaintext, err := key.open(rawIV, rawCipher)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// DecryptOrPlaceholder decrypts, substituting the shared placeholder on any
// failure so one bad message never breaks a conversation render.
func (s *SecurityService) DecryptOrPlaceholder(cipherText, iv string) string {
	plaintext, err := s.Decrypt(cipherText, iv)
	if err != nil {
		return shared.DecryptPlaceholder
	}
	return plaintext
}

// ClearStorage wipes the in-memory key and the persisted record. Used on
// wallet disconnect.
func (s *SecurityService) ClearStorage() error {
	s.mu.Lock()
	s.key = nil
	s.walletAddress = ""
	s.mu.Unlock()
	return s.store.Clear()
}
