package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/cipherdesk/cipherdesk/client"
	"github.com/cipherdesk/cipherdesk/config"
	"github.com/cipherdesk/cipherdesk/crypto"
	"github.com/cipherdesk/cipherdesk/wallet"
)

var (
	configDir = flag.String("config-dir", "", "Configuration directory")
	serverURL = flag.String("server", "", "Relay URL (overrides config)")
	username  = flag.String("username", "", "Username (overrides config)")
	offline   = flag.Bool("offline", false, "Start without connecting to the relay")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *username != "" {
		cfg.Username = *username
	}
	if cfg.Username == "" {
		fmt.Fprintln(os.Stderr, "Username required. Use --username or set CIPHERDESK_USERNAME.")
		os.Exit(1)
	}

	store := crypto.NewStore(cfg.KeyStorePath)
	if err := store.Open(); err != nil {
		fmt.Fprintln(os.Stderr, "key store:", err)
		os.Exit(1)
	}
	defer store.Close()

	security := crypto.NewSecurityService(store)
	security.LoadFromStorage()

	signer, err := loadSigner(cfg.SignerPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "signer:", err)
		os.Exit(1)
	}

	prefs := wallet.NewFilePrefs(filepath.Join(cfg.ConfigDir, "prefs.json"))
	verifier := wallet.NewHTTPVerifier(cfg.ServerURL + "/api/wallet/verify")
	controller := wallet.NewController(security, signer, prefs, verifier)
	if err := controller.Refresh(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "wallet state:", err)
	}

	var conn *client.Conn
	if !*offline {
		addr := ""
		if _, registered := security.State(); registered != "" {
			addr = registered
		}
		conn, err = client.Dial(cfg.ServerURL, cfg.Username, addr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect:", err)
			os.Exit(1)
		}
		defer conn.Close()
	}

	m := client.NewModel(*cfg, security, controller, conn)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error running program:", err)
		os.Exit(1)
	}
}

// loadSigner opens the local dev wallet, prompting for its passphrase
// without echo. A missing seed file creates a new wallet.
func loadSigner(path string) (*wallet.LocalSigner, error) {
	fmt.Print("Wallet passphrase: ")
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return wallet.LoadOrCreateLocalSigner(path, passphrase)
}
