package client

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipherdesk/cipherdesk/config"
	"github.com/cipherdesk/cipherdesk/crypto"
	"github.com/cipherdesk/cipherdesk/desk"
	"github.com/cipherdesk/cipherdesk/shared"
	"github.com/cipherdesk/cipherdesk/wallet"
)

func testConfig() config.Config {
	return config.Config{
		Username:        "alice",
		ServerURL:       "http://localhost:9090",
		PerformanceMode: "dynamic",
	}
}

func newOfflineModel(t *testing.T) Model {
	t.Helper()
	return NewModel(testConfig(), nil, nil, nil)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "alt+right":
		return tea.KeyMsg{Type: tea.KeyRight, Alt: true}
	case "shift+right":
		return tea.KeyMsg{Type: tea.KeyShiftRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm
}

func TestNewModelOpensLobby(t *testing.T) {
	m := newOfflineModel(t)
	if m.registry.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.registry.Count())
	}
	w, ok := m.registry.Get(m.registry.ActiveID())
	if !ok || !w.HasTab("chat:lobby") {
		t.Fatal("expected lobby chat window to be open and focused")
	}
}

func TestHotkeysOpenToolWindows(t *testing.T) {
	m := newOfflineModel(t)
	m = update(t, m, keyPress("ctrl+o"))
	m = update(t, m, keyPress("ctrl+e"))
	m = update(t, m, keyPress("ctrl+f"))
	if m.registry.Count() != 4 {
		t.Fatalf("Count = %d, want 4", m.registry.Count())
	}

	// Reopening is idempotent: focus moves, nothing new opens.
	m = update(t, m, keyPress("ctrl+o"))
	if m.registry.Count() != 4 {
		t.Fatalf("Count after reopen = %d, want 4", m.registry.Count())
	}
	w, _ := m.registry.Get(m.registry.ActiveID())
	if !w.HasTab("note:scratch") {
		t.Fatal("reopen should have focused the note window")
	}
}

func TestCloseAndMinimize(t *testing.T) {
	m := newOfflineModel(t)
	m = update(t, m, keyPress("ctrl+o"))
	m = update(t, m, keyPress("ctrl+w"))
	if m.registry.Count() != 1 {
		t.Fatalf("Count = %d, want 1 after close", m.registry.Count())
	}

	m = update(t, m, keyPress("tab")) // single window, no-op
	m.registry.Focus(m.registry.Windows()[0].ID)
	m = update(t, m, keyPress("ctrl+u"))
	if m.registry.VisibleCount() != 0 {
		t.Fatalf("VisibleCount = %d, want 0 after minimize", m.registry.VisibleCount())
	}
}

func TestMaximizeToggle(t *testing.T) {
	m := newOfflineModel(t)
	id := m.registry.ActiveID()
	m = update(t, m, keyPress("ctrl+x"))
	if w, _ := m.registry.Get(id); !w.Maximized {
		t.Fatal("expected window maximized")
	}
	m = update(t, m, keyPress("ctrl+x"))
	if w, _ := m.registry.Get(id); w.Maximized {
		t.Fatal("expected window restored")
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m := newOfflineModel(t)
	m = update(t, m, keyPress("ctrl+o"))
	first := m.registry.ActiveID()
	m = update(t, m, keyPress("tab"))
	if m.registry.ActiveID() == first {
		t.Fatal("tab should have moved focus")
	}
	m = update(t, m, keyPress("tab"))
	if m.registry.ActiveID() != first {
		t.Fatal("tab should cycle back")
	}
}

func TestMoveAndResizeKeys(t *testing.T) {
	m := newOfflineModel(t)
	id := m.registry.ActiveID()
	before, _ := m.registry.Get(id)

	m = update(t, m, keyPress("alt+right"))
	m = update(t, m, keyPress("shift+right"))

	after, _ := m.registry.Get(id)
	if after.Position.X != before.Position.X+1 {
		t.Errorf("X = %d, want %d", after.Position.X, before.Position.X+1)
	}
	if after.Size.Width != before.Size.Width+2 {
		t.Errorf("Width = %d, want %d", after.Size.Width, before.Size.Width+2)
	}
}

func TestEnterOfflineShowsBanner(t *testing.T) {
	m := newOfflineModel(t)
	m.input.SetValue("hello")
	m = update(t, m, keyPress("enter"))
	if !strings.Contains(m.banner, "Not connected") {
		t.Fatalf("banner = %q, want not-connected notice", m.banner)
	}
}

func TestThemeAndModeCommands(t *testing.T) {
	m := newOfflineModel(t)

	m.input.SetValue(":mode low")
	m = update(t, m, keyPress("enter"))
	if got := m.governor.EffectiveMode(); got != desk.ModeLow {
		t.Fatalf("EffectiveMode = %q, want %q", got, desk.ModeLow)
	}
	if m.input.Value() != "" {
		t.Fatal("command input should be cleared")
	}

	m.input.SetValue(":bogus")
	m = update(t, m, keyPress("enter"))
	if !strings.Contains(m.banner, "Unknown command") {
		t.Fatalf("banner = %q, want unknown-command notice", m.banner)
	}
}

func TestNoteCommandAppendsThroughRegistry(t *testing.T) {
	m := newOfflineModel(t)
	m = update(t, m, keyPress("ctrl+o"))

	m.input.SetValue(":note remember the milk")
	m = update(t, m, keyPress("enter"))

	w, ok := m.registry.Get("note:scratch")
	if !ok {
		t.Fatal("note window missing")
	}
	if !strings.Contains(w.Tabs[0].Content.Props["text"], "remember the milk") {
		t.Fatalf("note not appended: %q", w.Tabs[0].Content.Props["text"])
	}

	m.input.SetValue(":note and the eggs")
	m = update(t, m, keyPress("enter"))
	w, _ = m.registry.Get("note:scratch")
	if !strings.Contains(w.Tabs[0].Content.Props["text"], "remember the milk") ||
		!strings.Contains(w.Tabs[0].Content.Props["text"], "and the eggs") {
		t.Fatalf("appends must accumulate: %q", w.Tabs[0].Content.Props["text"])
	}
}

func TestViewRendersStatusAndWindows(t *testing.T) {
	m := newOfflineModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	if !strings.Contains(view, "Lobby") {
		t.Errorf("view missing window title:\n%s", view)
	}
	if !strings.Contains(view, "offline") {
		t.Errorf("view missing connection status:\n%s", view)
	}
}

func TestDecryptContentPlaceholders(t *testing.T) {
	m := newOfflineModel(t)

	// No security service at all.
	if got := m.decryptContent("aXY=|Y2lwaGVy"); got != shared.DecryptPlaceholder {
		t.Fatalf("got %q, want placeholder", got)
	}

	store := crypto.NewStore(filepath.Join(t.TempDir(), "keys.db"))
	if err := store.Open(); err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	security := crypto.NewSecurityService(store)
	signer, err := wallet.NewLocalSigner()
	if err != nil {
		t.Fatal(err)
	}
	if err := security.InitializeFromWallet(context.Background(), signer); err != nil {
		t.Fatal(err)
	}
	m.security = security

	// Malformed envelope.
	if got := m.decryptContent("no-delimiter"); got != shared.DecryptPlaceholder {
		t.Fatalf("got %q, want placeholder for malformed envelope", got)
	}

	// Round trip through a real envelope.
	payload, err := security.Encrypt("hi there")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.decryptContent(payload.Envelope()); got != "hi there" {
		t.Fatalf("got %q, want %q", got, "hi there")
	}
}

func TestRenderTabContentUnknownType(t *testing.T) {
	m := newOfflineModel(t)
	tab := desk.Tab{ID: "x", Title: "X", Content: desk.TabContent{Type: "hologram"}}
	if got := m.renderTabContent(tab, 60); !strings.Contains(got, "cannot be displayed") {
		t.Fatalf("got %q, want placeholder", got)
	}
}

func TestRenderEmojis(t *testing.T) {
	if got := renderEmojis("hi :)"); got != "hi 😊" {
		t.Fatalf("got %q", got)
	}
}
