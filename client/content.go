package client

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/charmbracelet/glamour"

	"github.com/cipherdesk/cipherdesk/crypto"
	"github.com/cipherdesk/cipherdesk/desk"
	"github.com/cipherdesk/cipherdesk/shared"
)

// renderTabContent resolves a tab's tagged content to its terminal
// rendering. An unrecognized type renders a placeholder so stale pop-out
// links and version skew degrade gracefully.
func (m *Model) renderTabContent(tab desk.Tab, width int) string {
	switch tab.Content.Type {
	case desk.ContentChat:
		return m.renderChat(tab, width)
	case desk.ContentNote:
		return renderNote(tab.Content.Props["text"], width)
	case desk.ContentCode:
		return renderCode(tab.Content.Props["language"], tab.Content.Props["source"])
	case desk.ContentPerfMonitor:
		return m.renderPerfMonitor()
	default:
		return m.styles.Time.Render("This content cannot be displayed.")
	}
}

func (m *Model) renderChat(tab desk.Tab, width int) string {
	msgs := m.conversations[tab.ID]
	const max = 100
	if len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}

	var b strings.Builder
	for _, msg := range msgs {
		content := msg.Content
		if msg.Encrypted {
			content = m.decryptContent(content)
		}
		content = renderEmojis(content)
		if strings.Contains(content, "@"+m.cfg.Username) {
			content = m.styles.Mention.Render(content)
		} else {
			content = m.styles.Msg.Render(content)
		}
		fmt.Fprintf(&b, "%s %s: %s\n",
			m.styles.Time.Render("["+msg.CreatedAt.Format("15:04")+"]"),
			m.styles.User.Render(msg.Sender),
			content,
		)
	}
	if b.Len() == 0 {
		return m.styles.Time.Render("No messages yet.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// decryptContent opens an iv|cipherText envelope. Failures surface as the
// placeholder string, never as an error in the chat stream.
func (m *Model) decryptContent(envelope string) string {
	if m.security == nil || !m.security.IsReady() {
		return shared.DecryptPlaceholder
	}
	iv, cipherText, err := shared.DecodeEnvelope(envelope)
	if err != nil {
		return shared.DecryptPlaceholder
	}
	return m.security.DecryptOrPlaceholder(cipherText, iv)
}

func renderNote(text string, width int) string {
	if width < 10 {
		width = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func renderCode(language, source string) string {
	if language == "" {
		language = "text"
	}
	var sb strings.Builder
	if err := quick.Highlight(&sb, source, language, "terminal256", "monokai"); err != nil {
		return source
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) renderPerfMonitor() string {
	cfg := m.governor.Config()
	var b strings.Builder
	fmt.Fprintf(&b, "FPS:        %.0f\n", m.governor.FPS())
	fmt.Fprintf(&b, "Mode:       %s\n", m.governor.EffectiveMode())
	fmt.Fprintf(&b, "Budget:     %d windows\n", m.governor.Budget())
	fmt.Fprintf(&b, "Open:       %d (%d visible)\n", m.registry.Count(), m.registry.VisibleCount())
	fmt.Fprintf(&b, "Blur:       %v\n", cfg.BlurEffects)
	fmt.Fprintf(&b, "Animations: %v (tier %d)", cfg.Animations, cfg.AnimationTier)
	return b.String()
}

func renderEmojis(s string) string {
	emojis := map[string]string{
		":)": "😊",
		":(": "🙁",
		":D": "😃",
		"<3": "❤️",
		":P": "😛",
	}
	for k, v := range emojis {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

// encryptionStatus is the status-bar fragment describing the E2E session.
func encryptionStatus(security *crypto.SecurityService) string {
	if security == nil {
		return "plaintext"
	}
	if ready, addr := security.State(); ready {
		short := addr
		if len(short) > 10 {
			short = short[:6] + "…" + short[len(short)-4:]
		}
		return "E2E " + short
	}
	return "E2E not initialized"
}
