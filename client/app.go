package client

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipherdesk/cipherdesk/config"
	"github.com/cipherdesk/cipherdesk/crypto"
	"github.com/cipherdesk/cipherdesk/desk"
	"github.com/cipherdesk/cipherdesk/shared"
	"github.com/cipherdesk/cipherdesk/wallet"
)

// cellWidth approximates the device-pixel width of one terminal cell, used
// to express the terminal size in the governor's viewport units.
const cellWidth = 8

const frameInterval = 40 * time.Millisecond

type frameMsg time.Time

type walletResultMsg struct{ err error }

// Model is the desk TUI: a virtual desktop of chat and tool windows over a
// single relay connection, with wallet-derived end-to-end encryption.
type Model struct {
	cfg        config.Config
	styles     themeStyles
	registry   *desk.Registry
	governor   *desk.Governor
	controller *wallet.Controller
	security   *crypto.SecurityService
	conn       *Conn

	input         textinput.Model
	conversations map[string][]shared.Message // tab id -> decoded history
	users         []string
	banner        string
	width, height int
	connected     bool
}

// clipboardLauncher satisfies the pop-out contract in a terminal: there is
// no second OS window to open, so the entry URL is copied to the clipboard
// for the user to open in a browser.
type clipboardLauncher struct {
	base string
}

func (l clipboardLauncher) Launch(windowID string, state desk.PopOutState, pos desk.Position, size desk.Size) error {
	return clipboard.WriteAll(desk.PopOutURL(l.base+"/popout", state))
}

// NewModel assembles the desk over an established connection. conn may be
// nil for offline use (notes and code windows still work).
func NewModel(cfg config.Config, security *crypto.SecurityService, controller *wallet.Controller, conn *Conn) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Focus()

	registry := desk.NewRegistry()
	registry.SetPopOutLauncher(clipboardLauncher{base: cfg.ServerURL})

	mode := desk.Mode(cfg.PerformanceMode)
	governor := desk.NewGovernor(registry, mode)

	m := Model{
		cfg:           cfg,
		styles:        getThemeStyles(""),
		registry:      registry,
		governor:      governor,
		controller:    controller,
		security:      security,
		conn:          conn,
		input:         ti,
		conversations: make(map[string][]shared.Message),
		connected:     conn != nil,
	}

	m.registry.Open(desk.Tab{
		ID:      "chat:lobby",
		Title:   "Lobby",
		Content: desk.TabContent{Type: desk.ContentChat, Props: map[string]string{"conversation": "lobby"}},
	}, nil)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, frameTick()}
	if m.conn != nil {
		cmds = append(cmds, waitForServer(m.conn))
	}
	return tea.Batch(cmds...)
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForServer(conn *Conn) tea.Cmd {
	return func() tea.Msg {
		return conn.Receive()
	}
}

func connectWallet(controller *wallet.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := controller.ConnectWallet(ctx); err != nil {
			return walletResultMsg{err}
		}
		return walletResultMsg{controller.InitializeEncryption(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.governor.FrameTick(time.Time(msg))
		return m, frameTick()

	case serverMsg:
		sm := shared.Message(msg)
		tabID := "chat:lobby"
		m.conversations[tabID] = append(m.conversations[tabID], sm)
		return m, waitForServer(m.conn)

	case userListMsg:
		m.users = msg.Users
		return m, waitForServer(m.conn)

	case connErrMsg:
		m.connected = false
		m.banner = "Connection lost: " + msg.err.Error()
		return m, nil

	case walletResultMsg:
		if msg.err != nil {
			m.banner = "Wallet: " + msg.err.Error()
		} else {
			m.banner = "Encryption ready for " + m.controller.RegisteredAddress()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.governor.SetViewport(desk.Viewport{
			Width:  msg.Width * cellWidth,
			Mobile: msg.Width < 40,
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		return m.handleEnter()
	case "tab":
		m.focusNext()
		return m, nil
	case "ctrl+n":
		m.openChat("lobby", "Lobby")
		return m, nil
	case "ctrl+o":
		m.registry.Open(desk.Tab{
			ID:      "note:scratch",
			Title:   "Scratchpad",
			Content: desk.TabContent{Type: desk.ContentNote, Props: map[string]string{"text": "# Scratchpad\n\nUse `:note <text>` to append."}},
		}, nil)
		return m, nil
	case "ctrl+e":
		m.registry.Open(desk.Tab{
			ID:      "code:snippet",
			Title:   "Snippet",
			Content: desk.TabContent{Type: desk.ContentCode, Props: map[string]string{"language": "go", "source": "package main\n"}},
		}, nil)
		return m, nil
	case "ctrl+f":
		m.registry.Open(desk.Tab{
			ID:      "perf",
			Title:   "Performance",
			Content: desk.TabContent{Type: desk.ContentPerfMonitor},
		}, nil)
		return m, nil
	case "ctrl+w":
		m.registry.Close(m.registry.ActiveID())
		return m, nil
	case "ctrl+x":
		if w, ok := m.registry.Get(m.registry.ActiveID()); ok {
			if w.Maximized {
				m.registry.Restore(w.ID)
			} else {
				m.registry.Maximize(w.ID)
			}
		}
		return m, nil
	case "ctrl+u":
		m.registry.Minimize(m.registry.ActiveID())
		return m, nil
	case "ctrl+g":
		m.mergeActiveIntoNext()
		return m, nil
	case "ctrl+t":
		if err := m.registry.PopOut(m.registry.ActiveID()); err != nil {
			m.banner = "Pop out failed: " + err.Error()
		} else {
			m.banner = "Pop-out URL copied to clipboard"
		}
		return m, nil
	case "ctrl+l":
		m.governor.ClearClutter()
		return m, nil
	case "alt+left", "alt+right", "alt+up", "alt+down":
		m.moveActive(msg.String())
		return m, nil
	case "shift+left", "shift+right", "shift+up", "shift+down":
		m.resizeActive(msg.String())
		return m, nil
	case "ctrl+k":
		if m.controller == nil {
			m.banner = "No wallet configured"
			return m, nil
		}
		m.banner = "Connecting wallet..."
		return m, connectWallet(m.controller)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, ":") {
		m.runCommand(text)
		m.input.SetValue("")
		return m, nil
	}

	active, ok := m.registry.Get(m.registry.ActiveID())
	if !ok || !active.HasContentType(desk.ContentChat) {
		m.banner = "Focus a chat window to send"
		return m, nil
	}
	if m.conn == nil || !m.connected {
		m.banner = "Not connected"
		return m, nil
	}

	msg := shared.Message{Content: text, Type: shared.TextMessage}
	if m.security != nil && m.security.IsReady() {
		payload, err := m.security.Encrypt(text)
		if err != nil {
			m.banner = "Encrypt failed: " + err.Error()
			return m, nil
		}
		msg.Content = payload.Envelope()
		msg.Encrypted = true
	}

	if err := m.conn.Send(msg); err != nil {
		m.banner = "Send failed: " + err.Error()
		return m, nil
	}
	m.banner = ""
	m.input.SetValue("")
	return m, nil
}

// runCommand handles ":"-prefixed input, mirroring chat-client convention.
func (m *Model) runCommand(text string) {
	parts := strings.SplitN(strings.TrimPrefix(text, ":"), " ", 2)
	arg := ""
	if len(parts) == 2 {
		arg = parts[1]
	}
	switch parts[0] {
	case "theme":
		m.styles = getThemeStyles(arg)
		m.banner = "Theme changed"
	case "note":
		m.appendNote(arg)
	case "mode":
		m.governor.SetMode(desk.Mode(arg))
		m.banner = "Performance mode: " + arg
	case "copy":
		m.copyToClipboard(arg)
	case "disconnect":
		if m.controller != nil {
			if err := m.controller.DisconnectWallet(context.Background()); err != nil {
				m.banner = "Disconnect failed: " + err.Error()
			} else {
				m.banner = "Wallet disconnected, local key wiped"
			}
		}
	default:
		m.banner = "Unknown command: " + parts[0]
	}
}

func (m *Model) appendNote(text string) {
	for _, w := range m.registry.Windows() {
		if w.HasTab("note:scratch") {
			m.registry.UpdateTabProps(w.ID, "note:scratch", func(props map[string]string) {
				props["text"] += "\n\n" + text
			})
			return
		}
	}
	m.banner = "No note window open (ctrl+o)"
}

// moveActive nudges the focused window one cell. Each keystroke is one
// committed move; there is no transient drag state over a keyboard.
func (m *Model) moveActive(key string) {
	w, ok := m.registry.Get(m.registry.ActiveID())
	if !ok {
		return
	}
	pos := w.Position
	switch key {
	case "alt+left":
		pos.X--
	case "alt+right":
		pos.X++
	case "alt+up":
		pos.Y--
	case "alt+down":
		pos.Y++
	}
	m.registry.Move(w.ID, pos)
}

func (m *Model) resizeActive(key string) {
	w, ok := m.registry.Get(m.registry.ActiveID())
	if !ok {
		return
	}
	size := w.Size
	switch key {
	case "shift+left":
		size.Width -= 2
	case "shift+right":
		size.Width += 2
	case "shift+up":
		size.Height--
	case "shift+down":
		size.Height++
	}
	m.registry.Resize(w.ID, size)
}

// copyToClipboard serves ":copy address" and ":copy message".
func (m *Model) copyToClipboard(what string) {
	switch what {
	case "address":
		if m.controller == nil || m.controller.RegisteredAddress() == "" {
			m.banner = "No wallet connected"
			return
		}
		if err := clipboard.WriteAll(m.controller.RegisteredAddress()); err != nil {
			m.banner = "Clipboard: " + err.Error()
			return
		}
		m.banner = "Address copied"
	case "message":
		if m.security == nil {
			m.banner = "No encryption service"
			return
		}
		if err := clipboard.WriteAll(m.security.SigningMessage()); err != nil {
			m.banner = "Clipboard: " + err.Error()
			return
		}
		m.banner = "Signing message copied"
	default:
		m.banner = "Usage: :copy address|message"
	}
}

func (m *Model) openChat(conversation, title string) {
	m.registry.Open(desk.Tab{
		ID:      "chat:" + conversation,
		Title:   title,
		Content: desk.TabContent{Type: desk.ContentChat, Props: map[string]string{"conversation": conversation}},
	}, nil)
}

// focusNext cycles focus through visible windows in z-order.
func (m *Model) focusNext() {
	var visible []desk.Window
	for _, w := range m.registry.Windows() {
		if w.Visible() {
			visible = append(visible, w)
		}
	}
	if len(visible) < 2 {
		return
	}
	active := m.registry.ActiveID()
	for i, w := range visible {
		if w.ID == active {
			m.registry.Focus(visible[(i+1)%len(visible)].ID)
			return
		}
	}
	m.registry.Focus(visible[0].ID)
}

// mergeActiveIntoNext merges the focused window into the next visible one.
func (m *Model) mergeActiveIntoNext() {
	active := m.registry.ActiveID()
	for _, w := range m.registry.Windows() {
		if w.ID != active && w.Visible() {
			m.registry.Merge(active, w.ID)
			return
		}
	}
	m.banner = "Nothing to merge with"
}
