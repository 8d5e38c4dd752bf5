package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"duologue/internal/dialogue"
	"duologue/internal/llm"
	"duologue/internal/textutil"
)

func (m model) View() string {
	out := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderContent(), m.renderFooter())
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabDuet, "Duet"},
		{tabAsk, "Ask"},
		{tabSettings, "Settings"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	meta := fmt.Sprintf("  %s · %s", m.settings.provider, m.settings.model)
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(max(20, m.width-4)).Render(joined)
}

func (m *model) contentWidth() int {
	return max(40, m.width-4)
}

func (m *model) renderContent() string {
	width := m.contentWidth()
	switch m.activeTab {
	case tabDuet:
		form := m.theme.panel.Width(width).Render(m.theme.panelTitle.Render("Two-Agent Conversation") + "\n" + m.renderDuetForm())
		out := m.theme.panel.Width(width).Render(m.output.View())
		return lipgloss.JoinVertical(lipgloss.Left, form, out)
	case tabAsk:
		form := m.theme.panel.Width(width).Render(m.theme.panelTitle.Render("Talking Agent") + "\n" + m.renderAskForm())
		out := m.theme.panel.Width(width).Render(m.output.View())
		return lipgloss.JoinVertical(lipgloss.Left, form, out)
	case tabSettings:
		return m.theme.panel.Width(width).Render(m.renderSettings())
	default:
		return m.theme.panel.Width(width).Render(m.output.View())
	}
}

func (m *model) fieldLabel(field duetField, text string) string {
	style := m.theme.label
	prefix := "  "
	if m.focus == field {
		style = m.theme.labelFocus
		prefix = "▶ "
	}
	return prefix + style.Render(fmt.Sprintf("%-16s", text))
}

func (m *model) renderDuetForm() string {
	keyLabel := "API Key"
	if !llm.RequiresKey(m.settings.provider) {
		keyLabel = "API Key (opt.)"
	}
	turns := fmt.Sprintf("◀ %2d ▶", m.turns)
	if m.focus == fieldTurns {
		turns = m.theme.settingPick.Render(turns)
	}
	start := m.theme.button.Render("Start Conversation")
	if m.focus == fieldStart {
		start = m.theme.buttonFocus.Render("Start Conversation")
	}
	if m.inflight {
		start = m.spinner.View() + " " + m.theme.helpText.Render("conversation in progress...")
	}
	rows := []string{
		m.fieldLabel(fieldKey, keyLabel) + " " + m.apiKey.View(),
		m.fieldLabel(fieldInitiator, "Initiator") + " " + m.initiator.View(),
		m.fieldLabel(fieldResponder, "Responder") + " " + m.responder.View(),
		m.fieldLabel(fieldSeed, "Seed Message"),
		m.seed.View(),
		m.fieldLabel(fieldTurns, "Max Turns") + " " + turns + m.theme.helpText.Render(fmt.Sprintf("  (1-%d)", m.cfg.MaxTurnsCeiling)),
		"  " + start,
	}
	return strings.Join(rows, "\n")
}

func (m *model) renderAskForm() string {
	submit := m.theme.button.Render("Submit")
	if m.askFocus == askSubmit {
		submit = m.theme.buttonFocus.Render("Submit")
	}
	if m.inflight {
		submit = m.spinner.View() + " " + m.theme.helpText.Render("waiting for response...")
	}
	return strings.Join([]string{
		m.theme.helpText.Render("System prompt: " + dialogue.DefaultSystemPrompt),
		m.prompt.View(),
		"  " + submit,
	}, "\n")
}

func (m *model) renderFooter() string {
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	switch {
	case strings.HasPrefix(lower, "error"), strings.Contains(lower, "failed"):
		statusStyle = m.theme.errorStatus
	case strings.HasPrefix(lower, "warning"), strings.HasPrefix(lower, "please"), lower == strings.ToLower(dialogue.StatusNoHistory):
		statusStyle = m.theme.warnStatus
	}
	line := statusStyle.Render(textutil.CompactSingleLine(m.statusLine, 180))
	if m.inflight {
		line = m.spinner.View() + " " + line
	}
	hints := m.theme.helpText.Render("Keys: Tab next field · Ctrl+S start · Ctrl+T switch view · PgUp/PgDn scroll · Esc quit")
	return m.theme.footer.Width(m.contentWidth()).Render(line + "\n" + hints)
}

func (m *model) renderQuitModal() string {
	canvasWidth := max(40, m.width-4)
	canvasHeight := max(12, m.height-4)
	modalWidth := textutil.Clamp(int(float64(canvasWidth)*0.56), 32, 72)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}
	body := strings.Join([]string{
		m.theme.errorStatus.Render("LEAVE THE STUDIO?"),
		m.theme.helpText.Render("Conversations are not saved."),
		"",
		m.theme.settingPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#120924")),
	)
}

// resize fits the output viewport under the form of the active tab.
func (m *model) resize() {
	width := m.contentWidth() - 4
	m.seed.SetWidth(max(20, width-2))
	m.prompt.SetWidth(max(20, width-2))
	m.apiKey.Width = max(16, width-22)
	m.initiator.Width = max(16, width-22)
	m.responder.Width = max(16, width-22)

	formHeight := 0
	switch m.activeTab {
	case tabDuet:
		formHeight = 12 + m.seed.Height()
	case tabAsk:
		formHeight = 6 + m.prompt.Height()
	}
	m.output.Width = max(20, width)
	m.output.Height = max(4, m.height-formHeight-10)
}

func (m *model) renderPanes() {
	m.resize()
	width := max(20, m.output.Width)
	switch m.activeTab {
	case tabDuet:
		m.output.SetContent(m.renderTranscript(width))
	case tabAsk:
		m.output.SetContent(m.renderAnswer(width))
	case tabHelp:
		m.output.SetContent(m.renderHelp())
	}
}

func (m *model) renderTranscript(width int) string {
	if m.state == dialogue.StatusNotStarted {
		return m.theme.helpText.Render("No conversation yet. Fill in the form and press Start Conversation.")
	}
	if m.state == dialogue.StatusInProgress {
		return m.theme.helpText.Render("Waiting for the agents...")
	}
	var b strings.Builder
	if m.result != nil {
		for _, line := range dialogue.RenderTranscript(m.result.Transcript, m.styles) {
			b.WriteString(m.theme.speaker(line.Color).Render(fmt.Sprintf("Turn %d · %s", line.Turn, line.Speaker)))
			b.WriteString("\n")
			b.WriteString(textutil.WrapText(line.Content, width))
			b.WriteString("\n\n")
		}
	}
	status := dialogue.StatusLine(m.result, m.runErr)
	style := m.theme.status
	switch m.state {
	case dialogue.StatusFailed:
		style = m.theme.errorStatus
	case dialogue.StatusCompletedLimit:
		style = m.theme.warnStatus
	}
	b.WriteString(style.Render(textutil.WrapText(status, width)))
	if m.state.Terminal() {
		b.WriteString("\n" + m.theme.helpText.Render("Press Start Conversation to begin a new exchange."))
	}
	return b.String()
}

func (m *model) renderAnswer(width int) string {
	if !m.asked {
		return m.theme.helpText.Render("Type a prompt and press Submit.")
	}
	text := dialogue.AskStatus(m.answer, m.askErr)
	if m.askErr != nil {
		return m.theme.errorStatus.Render(textutil.WrapText(text, width))
	}
	return textutil.WrapText(text, width)
}

func (m *model) renderSettings() string {
	rows := []struct {
		label string
		value string
		help  string
	}{
		{"Provider", m.settings.provider, strings.Join(llm.Providers(), "/")},
		{"Model", m.settings.model, "suggested models for the provider"},
		{"Max Tokens", strconv.Itoa(m.settings.maxTokens), "per reply"},
		{"Timeout", fmt.Sprintf("%ds", m.settings.timeoutSeconds), "per completion request"},
	}
	var b strings.Builder
	b.WriteString(m.theme.helpText.Render("Use ↑/↓ to select and ←/→ (or -/+) to change values."))
	b.WriteString("\n\n")
	for i, row := range rows {
		labelStyle := m.theme.settingKey
		valueStyle := m.theme.settingValue
		prefix := "  "
		if i == m.settingsIndex {
			labelStyle = m.theme.settingPick
			valueStyle = m.theme.settingPick
			prefix = "▶ "
		}
		b.WriteString(prefix + labelStyle.Render(fmt.Sprintf("%-12s", row.label)) + " " + valueStyle.Render(row.value) + "\n")
		b.WriteString("   " + m.theme.helpText.Render(row.help) + "\n")
	}
	keyState := "missing for " + m.settings.provider
	if strings.TrimSpace(m.apiKey.Value()) != "" {
		keyState = "set for " + m.settings.provider
	} else if !llm.RequiresKey(m.settings.provider) {
		keyState = "not needed"
	}
	b.WriteString("\nAPI key: " + keyState + " · roster: " + strings.Join(m.roster.Names(), ", "))
	return strings.TrimSpace(b.String())
}

func (m *model) renderHelp() string {
	lines := []string{
		"Core Keys",
		"- Tab / Shift+Tab: move between form fields",
		"- Ctrl+T: switch views (Duet, Ask, Settings, Help)",
		"- Ctrl+S or Enter on the button: start the conversation / submit the prompt",
		"- Left/Right on Max Turns: choose 1 to " + strconv.Itoa(m.cfg.MaxTurnsCeiling),
		"- PgUp/PgDn: scroll the output",
		"- Esc: quit prompt · Ctrl+C: quit",
		"",
		"Duet",
		"- The initiator opens with the seed message and the agents alternate",
		"- A turn is one message from each agent",
		"- The exchange stops when an agent says one of its termination phrases",
		"- Names not in the roster become ad hoc personas that sign off with \"Goodbye\"",
		"",
		"Roster",
	}
	for _, spec := range m.roster.Agents() {
		lines = append(lines, fmt.Sprintf("- %s: ends with %q", spec.Name, strings.Join(spec.TerminationPhrases, `", "`)))
	}
	if len(m.logs) > 0 {
		lines = append(lines, "", "Recent Activity")
		for _, entry := range m.logs[max(0, len(m.logs)-8):] {
			lines = append(lines, "- "+entry)
		}
	}
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}
