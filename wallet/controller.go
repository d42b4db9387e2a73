package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cipherdesk/cipherdesk/crypto"
)

// Controller is the session-level state machine between the UI, the wallet
// provider, the account-preference store, and the SecurityService. It
// tracks two independent facts: whether a wallet address is registered
// against the account, and whether the encryption key is loaded.
type Controller struct {
	mu       sync.Mutex
	security *crypto.SecurityService
	provider Provider
	prefs    AccountPrefs
	verifier Verifier // nil: fall back to writing prefs directly

	connecting   bool
	initializing bool
	hasWallet    bool
	registered   string // lowercase account-registered address
}

// NewController wires a controller. verifier may be nil when no
// verification endpoint is configured; connect then writes the address
// straight to the preference store, a documented less-secure fallback.
func NewController(security *crypto.SecurityService, provider Provider, prefs AccountPrefs, verifier Verifier) *Controller {
	return &Controller{
		security: security,
		provider: provider,
		prefs:    prefs,
		verifier: verifier,
	}
}

// Refresh re-reads the account-registered wallet address, an external fact
// that may have been set from another device. Called on startup.
func (c *Controller) Refresh(ctx context.Context) error {
	address, err := c.prefs.WalletAddress(ctx)
	if err != nil {
		return fmt.Errorf("failed to read wallet preference: %w", err)
	}

	c.mu.Lock()
	c.registered = strings.ToLower(address)
	c.hasWallet = c.registered != ""
	c.mu.Unlock()
	return nil
}

// HasWalletConnected reports whether a wallet address is registered against
// the account.
func (c *Controller) HasWalletConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasWallet
}

// RegisteredAddress returns the account-registered wallet address, or ""
// when none is connected.
func (c *Controller) RegisteredAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

// IsEncryptionReady reports whether the encryption key is loaded.
func (c *Controller) IsEncryptionReady() bool {
	return c.security.IsReady()
}

// IsConnecting reports whether a connect flow is in flight. Callers must
// disable retry UI while true.
func (c *Controller) IsConnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connecting
}

// IsInitializing reports whether encryption setup is in flight.
func (c *Controller) IsInitializing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializing
}

// ConnectWallet obtains the active wallet, has it sign a fresh timestamped
// challenge, proves ownership (server-side when a verifier is configured),
// and records the address against the account.
func (c *Controller) ConnectWallet(ctx context.Context) error {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	if c.provider == nil {
		return ErrProviderMissing
	}
	signer, err := c.provider.ActiveSigner(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoAccounts, err)
	}

	address := strings.ToLower(signer.Address())
	if address == "" {
		return ErrNoAccounts
	}

	// The challenge is replay-resistant: fresh nonce, short TTL, and
	// deliberately not the key-derivation message.
	message := ChallengeMessage(address, uuid.NewString(), time.Now())
	signature, err := signer.SignMessage(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: signing rejected: %v", ErrVerificationFailed, err)
	}

	if c.verifier != nil {
		req := VerifyRequest{
			Address:   address,
			Message:   message,
			Signature: signature,
		}
		if pk, ok := signer.(PublicKeyer); ok {
			req.PublicKey = pk.PublicKeyHex()
		}
		if err := c.verifier.Verify(ctx, req); err != nil {
			return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}
	}

	if err := c.prefs.SetWalletAddress(ctx, address); err != nil {
		return fmt.Errorf("failed to record wallet address: %w", err)
	}

	c.mu.Lock()
	c.registered = address
	c.hasWallet = true
	c.mu.Unlock()
	return nil
}

// DisconnectWallet clears the registered address and cascades into wiping
// the derived encryption key: a disconnected wallet always invalidates the
// key tied to it.
func (c *Controller) DisconnectWallet(ctx context.Context) error {
	if err := c.prefs.ClearWalletAddress(ctx); err != nil {
		return fmt.Errorf("failed to clear wallet preference: %w", err)
	}

	c.mu.Lock()
	c.registered = ""
	c.hasWallet = false
	c.mu.Unlock()

	if err := c.security.ClearStorage(); err != nil {
		return fmt.Errorf("failed to clear encryption key: %w", err)
	}
	return nil
}

// InitializeEncryption derives and stores the encryption key from the
// active wallet. The active wallet must match the account-registered one;
// deriving from a different wallet is a hard error, never a silent key
// swap.
func (c *Controller) InitializeEncryption(ctx context.Context) error {
	c.mu.Lock()
	if c.initializing {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.hasWallet {
		c.mu.Unlock()
		return ErrWalletNotConnected
	}
	registered := c.registered
	c.initializing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.initializing = false
		c.mu.Unlock()
	}()

	if c.provider == nil {
		return ErrProviderMissing
	}
	signer, err := c.provider.ActiveSigner(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoAccounts, err)
	}

	if !strings.EqualFold(signer.Address(), registered) {
		return fmt.Errorf("%w: active %s, registered %s",
			ErrWalletMismatch, strings.ToLower(signer.Address()), registered)
	}

	return c.security.InitializeFromWallet(ctx, signer)
}
