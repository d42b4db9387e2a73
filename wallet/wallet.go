// Package wallet connects an external wallet identity to the encryption
// core: proving ownership of an address via a signed challenge, recording
// the address against the user's account, and gating key derivation on the
// right wallet being active.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrProviderMissing indicates no wallet provider is available at all.
	ErrProviderMissing = errors.New("no wallet provider available")

	// ErrNoAccounts indicates the provider has no selected account.
	ErrNoAccounts = errors.New("no wallet accounts selected")

	// ErrVerificationFailed indicates the ownership proof was rejected.
	ErrVerificationFailed = errors.New("wallet verification failed")

	// ErrWalletMismatch indicates the active wallet differs from the
	// account-registered one. Deriving a key from the wrong wallet would
	// silently produce undecryptable history, so this is a hard stop.
	ErrWalletMismatch = errors.New("active wallet does not match registered wallet")

	// ErrWalletNotConnected indicates encryption setup was attempted before
	// a wallet was registered against the account.
	ErrWalletNotConnected = errors.New("no wallet connected")

	// ErrBusy indicates the same flow is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrInvalidChallenge indicates a challenge message that does not
	// follow the expected shape.
	ErrInvalidChallenge = errors.New("invalid challenge message")
)

// Provider hands out the currently active wallet. Implementations wrap
// whatever external signer is available (a hardware wallet bridge, a
// browser extension RPC, or the local dev signer).
type Provider interface {
	// ActiveSigner returns the wallet currently selected by the user.
	// Returns an error when no account is selected.
	ActiveSigner(ctx context.Context) (Signer, error)
}

// Signer is re-stated here so callers of this package need not import the
// crypto package for the interface; it is identical to crypto.WalletSigner.
type Signer interface {
	Address() string
	SignMessage(ctx context.Context, message string) (string, error)
}

// PublicKeyer is implemented by signers whose public key can accompany a
// verification request, letting the server check the signature itself.
type PublicKeyer interface {
	PublicKeyHex() string
}

// AccountPrefs is the single wallet-address field inside the user's
// account-preference bag. Implementations must preserve unrelated
// preference fields on write.
type AccountPrefs interface {
	WalletAddress(ctx context.Context) (string, error)
	SetWalletAddress(ctx context.Context, address string) error
	ClearWalletAddress(ctx context.Context) error
}

// VerifyRequest is an ownership proof: a signature over a fresh challenge
// message, plus the public key that produced it.
type VerifyRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// Verifier submits an ownership proof for server-side checking.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) error
}

// challengePrefix heads every ownership-challenge message. The challenge is
// deliberately distinct from the key-derivation message: a captured
// derivation signature must never double as an ownership proof.
const challengePrefix = "cipherdesk: verify wallet ownership"

// ChallengeTTL is how long a signed challenge stays acceptable.
const ChallengeTTL = 5 * time.Minute

// ChallengeMessage builds the timestamped, nonce-carrying text a wallet
// signs to prove ownership of an address.
func ChallengeMessage(address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("%s\n\nAddress: %s\nNonce: %s\nIssued-At: %s",
		challengePrefix,
		strings.ToLower(address),
		nonce,
		issuedAt.UTC().Format(time.RFC3339),
	)
}

// ParseChallengeMessage extracts the fields of a challenge message,
// rejecting anything that does not match the canonical shape.
func ParseChallengeMessage(message string) (address, nonce string, issuedAt time.Time, err error) {
	lines := strings.Split(message, "\n")
	if len(lines) != 5 || lines[0] != challengePrefix || lines[1] != "" {
		return "", "", time.Time{}, ErrInvalidChallenge
	}

	address, ok := strings.CutPrefix(lines[2], "Address: ")
	if !ok || address == "" {
		return "", "", time.Time{}, fmt.Errorf("%w: missing address", ErrInvalidChallenge)
	}
	nonce, ok = strings.CutPrefix(lines[3], "Nonce: ")
	if !ok || nonce == "" {
		return "", "", time.Time{}, fmt.Errorf("%w: missing nonce", ErrInvalidChallenge)
	}
	issuedRaw, ok := strings.CutPrefix(lines[4], "Issued-At: ")
	if !ok {
		return "", "", time.Time{}, fmt.Errorf("%w: missing timestamp", ErrInvalidChallenge)
	}
	issuedAt, err = time.Parse(time.RFC3339, issuedRaw)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidChallenge, err)
	}

	return address, nonce, issuedAt, nil
}

// DeriveAddress computes the address for an ed25519 public key: 0x plus the
// first 20 bytes of the key's SHA-256 hash, hex-encoded.
func DeriveAddress(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[:20])
}

// VerifyOwnership checks a proof end to end: the public key must hash to
// the claimed address, the signature must verify over the message, the
// message must be a well-formed challenge for that address, and the
// challenge must still be fresh.
func VerifyOwnership(req VerifyRequest, now time.Time) error {
	pubRaw, err := hex.DecodeString(strings.TrimPrefix(req.PublicKey, "0x"))
	if err != nil || len(pubRaw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key", ErrVerificationFailed)
	}
	pub := ed25519.PublicKey(pubRaw)

	claimed := strings.ToLower(req.Address)
	if DeriveAddress(pub) != claimed {
		return fmt.Errorf("%w: public key does not match address", ErrVerificationFailed)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding", ErrVerificationFailed)
	}
	if !ed25519.Verify(pub, []byte(req.Message), sig) {
		return fmt.Errorf("%w: signature does not verify", ErrVerificationFailed)
	}

	msgAddress, _, issuedAt, err := ParseChallengeMessage(req.Message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if msgAddress != claimed {
		return fmt.Errorf("%w: challenge is for a different address", ErrVerificationFailed)
	}

	age := now.Sub(issuedAt)
	if age < -time.Minute || age > ChallengeTTL {
		return fmt.Errorf("%w: challenge expired", ErrVerificationFailed)
	}

	return nil
}
