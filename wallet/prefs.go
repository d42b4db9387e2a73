package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const prefsWalletField = "walletAddress"

// FilePrefs is a JSON account-preference bag on disk. The file is read and
// rewritten whole on every mutation so fields owned by other features
// (theme, language) survive wallet connects and disconnects.
type FilePrefs struct {
	mu   sync.Mutex
	path string
}

func NewFilePrefs(path string) *FilePrefs {
	return &FilePrefs{path: path}
}

func (p *FilePrefs) WalletAddress(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefs, err := p.read()
	if err != nil {
		return "", err
	}
	addr, _ := prefs[prefsWalletField].(string)
	return addr, nil
}

func (p *FilePrefs) SetWalletAddress(ctx context.Context, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefs, err := p.read()
	if err != nil {
		return err
	}
	prefs[prefsWalletField] = address
	return p.write(prefs)
}

func (p *FilePrefs) ClearWalletAddress(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefs, err := p.read()
	if err != nil {
		return err
	}
	delete(prefs, prefsWalletField)
	return p.write(prefs)
}

func (p *FilePrefs) read() (map[string]interface{}, error) {
	raw, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	prefs := map[string]interface{}{}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	return prefs, nil
}

func (p *FilePrefs) write(prefs map[string]interface{}) error {
	raw, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(p.path, raw, 0600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
