// Package tui is the interactive duologue surface: a duet form that starts a
// scripted two-agent conversation, a single-shot ask form, and settings.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"duologue/internal/config"
	"duologue/internal/dialogue"
	"duologue/internal/llm"
	"duologue/internal/logging"
	"duologue/internal/persona"
	"duologue/internal/textutil"
)

type tabID int

const (
	tabDuet tabID = iota
	tabAsk
	tabSettings
	tabHelp
	tabCount
)

type duetField int

const (
	fieldKey duetField = iota
	fieldInitiator
	fieldResponder
	fieldSeed
	fieldTurns
	fieldStart
	duetFieldCount
)

type askField int

const (
	askPrompt askField = iota
	askSubmit
	askFieldCount
)

// Deps is everything the TUI needs from the outside.
type Deps struct {
	Config config.Config
	Roster *persona.Roster
	Log    logrus.FieldLogger
	// NewCompleter builds the completion client per action. Nil means llm.New.
	NewCompleter func(llm.Config) (llm.Completer, error)
}

type runtimeSettings struct {
	provider       string
	model          string
	maxTokens      int
	timeoutSeconds int
}

type model struct {
	cfg          config.Config
	roster       *persona.Roster
	log          logrus.FieldLogger
	newCompleter func(llm.Config) (llm.Completer, error)
	settings     runtimeSettings
	// keys remembers the API key field per provider across settings changes.
	keys map[string]string

	activeTab     tabID
	focus         duetField
	askFocus      askField
	settingsIndex int
	turns         int
	inflight      bool
	quitConfirm   bool
	statusLine    string
	logs          []string

	state  dialogue.Status
	result *dialogue.ChatResult
	runErr error
	styles dialogue.StyleTable

	answer string
	askErr error
	asked  bool

	width  int
	height int

	apiKey    textinput.Model
	initiator textinput.Model
	responder textinput.Model
	seed      textarea.Model
	prompt    textarea.Model
	output    viewport.Model
	spinner   spinner.Model

	theme uiTheme
}

type duetDoneMsg struct {
	result *dialogue.ChatResult
	styles dialogue.StyleTable
	err    error
}

type askDoneMsg struct {
	reply string
	err   error
}

// Run starts the program and blocks until the user quits.
func Run(deps Deps) error {
	if deps.Config.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if deps.Config.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(deps), opts...)
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	cfg := deps.Config
	roster := deps.Roster
	if roster == nil {
		roster = persona.Builtin()
	}
	var log logrus.FieldLogger = logging.Discard()
	if deps.Log != nil {
		log = deps.Log
	}
	newCompleter := deps.NewCompleter
	if newCompleter == nil {
		newCompleter = llm.New
	}
	ceiling := cfg.MaxTurnsCeiling
	if ceiling <= 0 {
		ceiling = dialogue.DefaultMaxTurnsCeiling
		cfg.MaxTurnsCeiling = ceiling
	}
	provider := llm.NormalizeProvider(cfg.Provider)

	apiKey := textinput.New()
	apiKey.Prompt = ""
	apiKey.Placeholder = "sk-..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.CharLimit = 512
	apiKey.SetValue(cfg.APIKey)

	pair := roster.DefaultPair()
	initiator := textinput.New()
	initiator.Prompt = ""
	initiator.Placeholder = "initiator name"
	initiator.CharLimit = 64
	initiator.SetValue(pair.Initiator)

	responder := textinput.New()
	responder.Prompt = ""
	responder.Placeholder = "responder name"
	responder.CharLimit = 64
	responder.SetValue(pair.Responder)

	seed := textarea.New()
	seed.Placeholder = "Let's talk about AI."
	seed.ShowLineNumbers = false
	seed.CharLimit = 4000
	seed.SetHeight(3)

	prompt := textarea.New()
	prompt.Placeholder = "Ask anything..."
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 8000
	prompt.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	output := viewport.New(0, 0)
	output.MouseWheelEnabled = true
	output.MouseWheelDelta = 4

	m := model{
		cfg:          cfg,
		roster:       roster,
		log:          log,
		newCompleter: newCompleter,
		settings: runtimeSettings{
			provider:       provider,
			model:          nullCoalesce(cfg.Model, llm.DefaultModel(provider)),
			maxTokens:      cfg.MaxTokens,
			timeoutSeconds: cfg.TimeoutSeconds,
		},
		keys:       map[string]string{provider: cfg.APIKey},
		activeTab:  tabDuet,
		turns:      textutil.Clamp(cfg.MaxTurns, 1, ceiling),
		statusLine: "ready",
		logs:       []string{},
		state:      dialogue.StatusNotStarted,
		apiKey:     apiKey,
		initiator:  initiator,
		responder:  responder,
		seed:       seed,
		prompt:     prompt,
		output:     output,
		spinner:    sp,
		theme:      newTheme(),
	}
	m.focus = fieldSeed
	if strings.TrimSpace(cfg.APIKey) == "" && llm.RequiresKey(provider) {
		m.focus = fieldKey
	}
	m.applyFocus()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case duetDoneMsg:
		m.inflight = false
		m.result = msg.result
		m.runErr = msg.err
		if msg.styles != nil {
			m.styles = msg.styles
		}
		m.state = dialogue.StatusOf(msg.result, msg.err)
		m.statusLine = dialogue.StatusLine(msg.result, msg.err)
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.appendLog(fmt.Sprintf("duet %s finished: %d turns, %s", shortID(msg.result.RunID), len(msg.result.Transcript), m.state))
		}
		m.renderPanes()
		m.output.GotoBottom()
	case askDoneMsg:
		m.inflight = false
		m.asked = true
		m.answer = msg.reply
		m.askErr = msg.err
		if msg.err != nil {
			m.statusLine = textutil.CompactSingleLine(dialogue.AskStatus("", msg.err), 160)
			m.logError(msg.err)
		} else {
			m.statusLine = "response received"
		}
		m.renderPanes()
		m.output.GotoTop()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm {
			break
		}
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, tea.Quit
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
			}
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.beginQuitConfirm()
			return m, nil
		case "ctrl+t":
			m.switchTab((m.activeTab + 1) % tabCount)
			return m, nil
		case "pgup", "ctrl+b":
			m.output.LineUp(8)
			return m, nil
		case "pgdown", "ctrl+f":
			m.output.LineDown(8)
			return m, nil
		}

		switch m.activeTab {
		case tabDuet:
			cmds = append(cmds, m.updateDuet(msg))
		case tabAsk:
			cmds = append(cmds, m.updateAsk(msg))
		case tabSettings:
			switch msg.String() {
			case "up", "k":
				m.settingsIndex = max(0, m.settingsIndex-1)
			case "down", "j":
				m.settingsIndex = min(m.maxSettingsIndex(), m.settingsIndex+1)
			case "left", "h", "-":
				m.adjustSetting(-1)
			case "right", "l", "+":
				m.adjustSetting(1)
			case "tab":
				m.switchTab(tabHelp)
			case "shift+tab":
				m.switchTab(tabAsk)
			}
		case tabHelp:
			switch msg.String() {
			case "tab":
				m.switchTab(tabDuet)
			case "shift+tab":
				m.switchTab(tabSettings)
			case "up", "k":
				m.output.LineUp(2)
			case "down", "j":
				m.output.LineDown(2)
			}
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *model) updateDuet(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		return m.setFocus((m.focus + 1) % duetFieldCount)
	case "shift+tab":
		return m.setFocus((m.focus + duetFieldCount - 1) % duetFieldCount)
	case "ctrl+s":
		return m.startDuet()
	case "enter":
		switch m.focus {
		case fieldStart:
			return m.startDuet()
		case fieldKey, fieldInitiator, fieldResponder, fieldTurns:
			return m.setFocus(m.focus + 1)
		}
	}
	if m.focus == fieldTurns {
		switch msg.String() {
		case "left", "h", "-":
			m.adjustTurns(-1)
		case "right", "l", "+":
			m.adjustTurns(1)
		}
		return nil
	}
	if m.inflight {
		return nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldKey:
		m.apiKey, cmd = m.apiKey.Update(msg)
	case fieldInitiator:
		m.initiator, cmd = m.initiator.Update(msg)
	case fieldResponder:
		m.responder, cmd = m.responder.Update(msg)
	case fieldSeed:
		m.seed, cmd = m.seed.Update(msg)
	}
	return cmd
}

func (m *model) updateAsk(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "shift+tab":
		m.askFocus = (m.askFocus + 1) % askFieldCount
		return m.applyFocus()
	case "ctrl+s":
		return m.startAsk()
	case "enter":
		if m.askFocus == askSubmit {
			return m.startAsk()
		}
	}
	if m.askFocus != askPrompt || m.inflight {
		return nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *model) setFocus(field duetField) tea.Cmd {
	m.focus = field
	return m.applyFocus()
}

// applyFocus moves the cursor to the focused input of the active tab.
func (m *model) applyFocus() tea.Cmd {
	m.apiKey.Blur()
	m.initiator.Blur()
	m.responder.Blur()
	m.seed.Blur()
	m.prompt.Blur()
	switch m.activeTab {
	case tabDuet:
		switch m.focus {
		case fieldKey:
			return m.apiKey.Focus()
		case fieldInitiator:
			return m.initiator.Focus()
		case fieldResponder:
			return m.responder.Focus()
		case fieldSeed:
			return m.seed.Focus()
		}
	case tabAsk:
		if m.askFocus == askPrompt {
			return m.prompt.Focus()
		}
	}
	return nil
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	m.applyFocus()
	m.renderPanes()
}

func (m *model) adjustTurns(delta int) {
	m.turns = textutil.Clamp(m.turns+delta, 1, m.cfg.MaxTurnsCeiling)
}

func (m *model) submission() dialogue.Submission {
	return dialogue.Submission{
		Provider:  m.settings.provider,
		APIKey:    strings.TrimSpace(m.apiKey.Value()),
		Initiator: strings.TrimSpace(m.initiator.Value()),
		Responder: strings.TrimSpace(m.responder.Value()),
		Seed:      m.seed.Value(),
		Turns:     m.turns,
		Ceiling:   m.cfg.MaxTurnsCeiling,
	}
}

// startDuet validates the form and, when it passes, hands the exchange to a
// command so the render loop keeps running. A second start while one is in
// flight is ignored.
func (m *model) startDuet() tea.Cmd {
	if m.inflight {
		return nil
	}
	sub := m.submission()
	if err := dialogue.CheckSubmission(sub); err != nil {
		m.statusLine = dialogue.StatusLine(nil, err)
		m.appendLog(m.statusLine)
		return nil
	}
	m.inflight = true
	m.state = dialogue.StatusInProgress
	m.result = nil
	m.runErr = nil
	m.statusLine = fmt.Sprintf("%s and %s are talking...", sub.Initiator, sub.Responder)
	m.renderPanes()
	return m.duetCmd(sub)
}

func (m *model) startAsk() tea.Cmd {
	if m.inflight {
		return nil
	}
	key := strings.TrimSpace(m.apiKey.Value())
	text := strings.TrimSpace(m.prompt.Value())
	if err := dialogue.CheckAsk(m.settings.provider, key, text); err != nil {
		m.asked = true
		m.answer = ""
		m.askErr = err
		m.statusLine = dialogue.AskStatus("", err)
		m.renderPanes()
		return nil
	}
	m.inflight = true
	m.statusLine = "waiting for response..."
	return m.askCmd(key, text)
}

func (m *model) llmConfig(apiKey string) llm.Config {
	baseURL := ""
	if llm.NormalizeProvider(m.cfg.Provider) == m.settings.provider {
		baseURL = m.cfg.BaseURL
	}
	return llm.Config{
		Provider:  m.settings.provider,
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     m.settings.model,
		MaxTokens: m.settings.maxTokens,
		Timeout:   time.Duration(m.settings.timeoutSeconds) * time.Second,
	}
}

func (m model) duetCmd(sub dialogue.Submission) tea.Cmd {
	lc := m.llmConfig(sub.APIKey)
	roster := m.roster
	newCompleter := m.newCompleter
	log := m.log
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = duetDoneMsg{err: fmt.Errorf("%w: %v", dialogue.ErrUnexpectedFailure, r)}
			}
		}()
		initiator, err := roster.Resolve(sub.Initiator)
		if err != nil {
			return duetDoneMsg{err: fmt.Errorf("%w: %w", dialogue.ErrInvalidAgent, err)}
		}
		responder, err := roster.Resolve(sub.Responder)
		if err != nil {
			return duetDoneMsg{err: fmt.Errorf("%w: %w", dialogue.ErrInvalidAgent, err)}
		}
		styles := dialogue.NewStyleTable(nil, initiator, responder)
		completer, err := newCompleter(lc)
		if err != nil {
			return duetDoneMsg{styles: styles, err: fmt.Errorf("%w: %w", dialogue.ErrRemoteCallFailure, err)}
		}
		driver := dialogue.NewDriver(completer, dialogue.Options{
			Model:     lc.Model,
			MaxTokens: lc.MaxTokens,
			Log:       log,
		})
		result, err := driver.RunDialogue(context.Background(), initiator, responder, sub.Seed, sub.Turns)
		return duetDoneMsg{result: result, styles: styles, err: err}
	}
}

func (m model) askCmd(apiKey, text string) tea.Cmd {
	lc := m.llmConfig(apiKey)
	newCompleter := m.newCompleter
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = askDoneMsg{err: fmt.Errorf("%w: %v", dialogue.ErrUnexpectedFailure, r)}
			}
		}()
		completer, err := newCompleter(lc)
		if err != nil {
			return askDoneMsg{err: fmt.Errorf("%w: %w", dialogue.ErrRemoteCallFailure, err)}
		}
		reply, err := dialogue.Ask(context.Background(), completer, dialogue.AskOptions{
			Model:     lc.Model,
			MaxTokens: lc.MaxTokens,
		}, text)
		return askDoneMsg{reply: reply, err: err}
	}
}

func (m *model) maxSettingsIndex() int {
	return 3
}

func (m *model) adjustSetting(delta int) {
	if delta == 0 {
		return
	}
	switch m.settingsIndex {
	case 0:
		m.keys[m.settings.provider] = strings.TrimSpace(m.apiKey.Value())
		m.settings.provider = cycleString(llm.Providers(), m.settings.provider, delta)
		m.settings.model = llm.DefaultModel(m.settings.provider)
		key, ok := m.keys[m.settings.provider]
		if !ok {
			key = config.ProviderKey(m.settings.provider)
			m.keys[m.settings.provider] = key
		}
		m.apiKey.SetValue(key)
	case 1:
		options := llm.SuggestedModels(m.settings.provider)
		if !containsString(options, m.settings.model) {
			options = append([]string{m.settings.model}, options...)
		}
		m.settings.model = cycleString(options, m.settings.model, delta)
	case 2:
		m.settings.maxTokens = textutil.Clamp(m.settings.maxTokens+delta*50, config.MinMaxTokens, config.MaxMaxTokens)
	case 3:
		m.settings.timeoutSeconds = textutil.Clamp(m.settings.timeoutSeconds+delta*5, 5, 600)
	}
	m.renderPanes()
	m.statusLine = "settings updated"
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit duologue?"
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), textutil.CompactSingleLine(trimmed, 220)))
	if len(m.logs) > 50 {
		m.logs = m.logs[len(m.logs)-50:]
	}
}

func (m *model) logError(err error) {
	if err == nil {
		return
	}
	m.appendLog("error: " + err.Error())
	m.log.WithError(err).Warn("action failed")
}

func containsString(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
