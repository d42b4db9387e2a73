package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestChallengeMessageRoundTrip(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	msg := ChallengeMessage("0xAbCd01", "nonce-123", issued)

	address, nonce, issuedAt, err := ParseChallengeMessage(msg)
	if err != nil {
		t.Fatalf("ParseChallengeMessage failed: %v", err)
	}
	if address != "0xabcd01" {
		t.Errorf("address not lowercase-normalized: %q", address)
	}
	if nonce != "nonce-123" {
		t.Errorf("nonce mismatch: %q", nonce)
	}
	if !issuedAt.Equal(issued.UTC().Truncate(time.Second)) {
		t.Errorf("issuedAt mismatch: got %v, want %v", issuedAt, issued)
	}
}

func TestParseChallengeMessageRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"wrong prefix", "something else\n\nAddress: 0xaa\nNonce: n\nIssued-At: 2026-01-01T00:00:00Z"},
		{"derivation message", "cipherdesk: derive my end-to-end encryption key."},
		{"missing nonce", "cipherdesk: verify wallet ownership\n\nAddress: 0xaa\nIssued-At: 2026-01-01T00:00:00Z"},
		{"bad timestamp", "cipherdesk: verify wallet ownership\n\nAddress: 0xaa\nNonce: n\nIssued-At: yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := ParseChallengeMessage(tt.message); !errors.Is(err, ErrInvalidChallenge) {
				t.Errorf("expected ErrInvalidChallenge, got %v", err)
			}
		})
	}
}

func signedProof(t *testing.T, signer *LocalSigner, mutate func(*VerifyRequest)) VerifyRequest {
	t.Helper()
	msg := ChallengeMessage(signer.Address(), "test-nonce", time.Now())
	sig, err := signer.SignMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("SignMessage failed: %v", err)
	}
	req := VerifyRequest{
		Address:   signer.Address(),
		Message:   msg,
		Signature: sig,
		PublicKey: signer.PublicKeyHex(),
	}
	if mutate != nil {
		mutate(&req)
	}
	return req
}

func TestVerifyOwnership(t *testing.T) {
	signer, err := NewLocalSigner()
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}
	other, err := NewLocalSigner()
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}

	if err := VerifyOwnership(signedProof(t, signer, nil), time.Now()); err != nil {
		t.Errorf("valid proof rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*VerifyRequest)
		now    time.Time
	}{
		{
			name:   "wrong public key",
			mutate: func(r *VerifyRequest) { r.PublicKey = other.PublicKeyHex() },
			now:    time.Now(),
		},
		{
			name:   "tampered message",
			mutate: func(r *VerifyRequest) { r.Message = strings.Replace(r.Message, "Nonce: test-nonce", "Nonce: evil", 1) },
			now:    time.Now(),
		},
		{
			name:   "address not matching key",
			mutate: func(r *VerifyRequest) { r.Address = other.Address() },
			now:    time.Now(),
		},
		{
			name:   "garbage signature",
			mutate: func(r *VerifyRequest) { r.Signature = "zz-not-hex" },
			now:    time.Now(),
		},
		{
			name:   "expired challenge",
			mutate: nil,
			now:    time.Now().Add(ChallengeTTL + time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signedProof(t, signer, tt.mutate)
			if err := VerifyOwnership(req, tt.now); !errors.Is(err, ErrVerificationFailed) {
				t.Errorf("expected ErrVerificationFailed, got %v", err)
			}
		})
	}
}

func TestLocalSignerPersistence(t *testing.T) {
	path := t.TempDir() + "/signer.key"
	pass := []byte("hunter2")

	first, err := LoadOrCreateLocalSigner(path, pass)
	if err != nil {
		t.Fatalf("LoadOrCreateLocalSigner failed: %v", err)
	}

	second, err := LoadOrCreateLocalSigner(path, pass)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if first.Address() != second.Address() {
		t.Error("reloaded signer has a different address")
	}

	if _, err := LoadOrCreateLocalSigner(path, []byte("wrong")); err == nil {
		t.Error("wrong passphrase should fail to unlock the signer")
	}
}
