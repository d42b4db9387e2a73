package crypto

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/cipherdesk/cipherdesk/shared"
)

// fakeSigner signs with a deterministic ed25519 key, like a wallet would.
type fakeSigner struct {
	address string
	key     ed25519.PrivateKey
	err     error
}

func newFakeSigner(t *testing.T, seedByte byte) *fakeSigner {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	key := ed25519.NewKeyFromSeed(seed)
	return &fakeSigner{
		address: "0x" + hex.EncodeToString(key.Public().(ed25519.PublicKey)[:10]),
		key:     key,
	}
}

func (f *fakeSigner) Address() string { return f.address }

func (f *fakeSigner) SignMessage(_ context.Context, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return hex.EncodeToString(ed25519.Sign(f.key, []byte(message))), nil
}

func newReadyService(t *testing.T) *SecurityService {
	t.Helper()
	svc := NewSecurityService(newTestStore(t))
	if err := svc.InitializeFromWallet(context.Background(), newFakeSigner(t, 0x11)); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}
	return svc
}

func TestInitializeFromWallet(t *testing.T) {
	store := newTestStore(t)
	svc := NewSecurityService(store)

	if svc.IsReady() {
		t.Fatal("service should start uninitialized")
	}

	signer := newFakeSigner(t, 0x22)
	if err := svc.InitializeFromWallet(context.Background(), signer); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}

	ready, addr := svc.State()
	if !ready {
		t.Error("service should be ready after initialization")
	}
	if addr != signer.address {
		t.Errorf("wallet address mismatch: got %q, want %q", addr, signer.address)
	}

	// The key was persisted: a fresh service over the same store hydrates
	// without a new signature.
	svc2 := NewSecurityService(store)
	if !svc2.LoadFromStorage() {
		t.Error("LoadFromStorage should succeed after initialization")
	}
}

func TestInitializeFromWalletSignatureRejected(t *testing.T) {
	svc := NewSecurityService(newTestStore(t))
	signer := newFakeSigner(t, 0x33)
	signer.err = errors.New("user denied")

	err := svc.InitializeFromWallet(context.Background(), signer)
	if !errors.Is(err, ErrSignatureRejected) {
		t.Errorf("expected ErrSignatureRejected, got %v", err)
	}
	if svc.IsReady() {
		t.Error("service should not be ready after a rejected signature")
	}
}

func TestLoadFromStorageEmpty(t *testing.T) {
	svc := NewSecurityService(newTestStore(t))
	if svc.LoadFromStorage() {
		t.Error("LoadFromStorage on empty store should return false")
	}
	if svc.IsReady() {
		t.Error("service should remain uninitialized")
	}
}

func TestEncryptRequiresInitialization(t *testing.T) {
	svc := NewSecurityService(newTestStore(t))

	if _, err := svc.Encrypt("hello"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Encrypt: expected ErrNotInitialized, got %v", err)
	}
	if _, err := svc.Decrypt("aGVsbG8=", "aGVsbG8="); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Decrypt: expected ErrNotInitialized, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple", "hello"},
		{"empty string", ""},
		{"embedded delimiter", "before|after"},
		{"embedded nul", "a\x00b"},
		{"unicode", "héllo wörld 你好 🔐"},
		{"long", string(make([]byte, 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := svc.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}

			got, err := svc.Decrypt(payload.CipherText, payload.IV)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("round trip mismatch: got %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptIVFreshness(t *testing.T) {
	svc := newReadyService(t)

	first, err := svc.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	second, err := svc.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if first.IV == second.IV {
		t.Error("IV was reused across encryptions")
	}
	if first.CipherText == second.CipherText {
		t.Error("identical cipher text for two encryptions of the same plaintext")
	}

	iv, err := base64.StdEncoding.DecodeString(first.IV)
	if err != nil {
		t.Fatalf("IV is not valid base64: %v", err)
	}
	if len(iv) != 12 {
		t.Errorf("expected 96-bit IV, got %d bytes", len(iv))
	}
}

func TestDecryptTamperRejection(t *testing.T) {
	svc := newReadyService(t)

	payload, err := svc.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	flipBit := func(b64 string) string {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			t.Fatalf("bad base64 in payload: %v", err)
		}
		raw[0] ^= 0x01
		return base64.StdEncoding.EncodeToString(raw)
	}

	tests := []struct {
		name           string
		cipherText, iv string
	}{
		{"tampered cipher text", flipBit(payload.CipherText), payload.IV},
		{"tampered iv", payload.CipherText, flipBit(payload.IV)},
		{"garbage cipher text encoding", "!!!not-base64!!!", payload.IV},
		{"garbage iv encoding", payload.CipherText, "!!!not-base64!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Decrypt(tt.cipherText, tt.iv)
			if !errors.Is(err, ErrDecryptFailed) {
				t.Errorf("expected ErrDecryptFailed, got %v (plaintext %q)", err, got)
			}

			if s := svc.DecryptOrPlaceholder(tt.cipherText, tt.iv); s != shared.DecryptPlaceholder {
				t.Errorf("expected placeholder, got %q", s)
			}
		})
	}
}

func TestDecryptForeignKey(t *testing.T) {
	svcA := newReadyService(t)

	svcB := NewSecurityService(newTestStore(t))
	if err := svcB.InitializeFromWallet(context.Background(), newFakeSigner(t, 0x44)); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}

	payload, err := svcA.Encrypt("for A's eyes only")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := svcB.Decrypt(payload.CipherText, payload.IV); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("foreign-key decrypt should fail with ErrDecryptFailed, got %v", err)
	}
}

func TestClearStorage(t *testing.T) {
	store := newTestStore(t)
	svc := NewSecurityService(store)
	if err := svc.InitializeFromWallet(context.Background(), newFakeSigner(t, 0x55)); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}

	if err := svc.ClearStorage(); err != nil {
		t.Fatalf("ClearStorage failed: %v", err)
	}

	if svc.IsReady() {
		t.Error("service should be uninitialized after ClearStorage")
	}
	if svc.LoadFromStorage() {
		t.Error("persisted record should be gone after ClearStorage")
	}
}

func TestRotateToDifferentWallet(t *testing.T) {
	svc := NewSecurityService(newTestStore(t))

	first := newFakeSigner(t, 0x66)
	if err := svc.InitializeFromWallet(context.Background(), first); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}
	payload, err := svc.Encrypt("under first key")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	second := newFakeSigner(t, 0x77)
	if err := svc.InitializeFromWallet(context.Background(), second); err != nil {
		t.Fatalf("rotation failed: %v", err)
	}

	_, addr := svc.State()
	if addr != second.address {
		t.Errorf("expected rotated address %q, got %q", second.address, addr)
	}

	// Old payloads no longer authenticate under the rotated key.
	if _, err := svc.Decrypt(payload.CipherText, payload.IV); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed under rotated key, got %v", err)
	}
}

func TestEndToEndSignDeriveEncryptDecrypt(t *testing.T) {
	// Wallet signs the fixed message, key is derived, and a message round
	// trips — the whole happy path in one go.
	svc := NewSecurityService(newTestStore(t))
	if err := svc.InitializeFromWallet(context.Background(), newFakeSigner(t, 0x88)); err != nil {
		t.Fatalf("InitializeFromWallet failed: %v", err)
	}

	payload, err := svc.Encrypt("hello")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	iv, cipherText, err := shared.DecodeEnvelope(payload.Envelope())
	if err != nil {
		t.Fatalf("envelope did not round trip: %v", err)
	}

	got, err := svc.Decrypt(cipherText, iv)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}
