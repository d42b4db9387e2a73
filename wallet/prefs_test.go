package wallet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFilePrefsPreservesUnrelatedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte(`{"theme":"midnight","language":"de"}`), 0600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	prefs := NewFilePrefs(path)

	if err := prefs.SetWalletAddress(ctx, "0xabc"); err != nil {
		t.Fatal(err)
	}
	if addr, err := prefs.WalletAddress(ctx); err != nil || addr != "0xabc" {
		t.Fatalf("WalletAddress = %q, %v", addr, err)
	}

	if err := prefs.ClearWalletAddress(ctx); err != nil {
		t.Fatal(err)
	}
	if addr, _ := prefs.WalletAddress(ctx); addr != "" {
		t.Fatalf("address survived clear: %q", addr)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["theme"] != "midnight" || got["language"] != "de" {
		t.Fatalf("unrelated fields lost: %v", got)
	}
}

func TestFilePrefsMissingFile(t *testing.T) {
	prefs := NewFilePrefs(filepath.Join(t.TempDir(), "absent.json"))
	addr, err := prefs.WalletAddress(context.Background())
	if err != nil || addr != "" {
		t.Fatalf("got %q, %v; want empty, nil", addr, err)
	}
}
