package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"duologue/internal/config"
	"duologue/internal/dialogue"
	"duologue/internal/llm"
)

type failingCompleter struct{ err error }

func (f failingCompleter) Complete(context.Context, llm.Request) (string, error) {
	return "", f.err
}

func newTestModel(t *testing.T, factory func(llm.Config) (llm.Completer, error)) model {
	t.Helper()
	cfg := config.Default()
	cfg.Provider = llm.ProviderMock
	cfg.AltScreen = false
	m := newModel(Deps{Config: cfg, NewCompleter: factory})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model)
}

func press(t *testing.T, m model, msg tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(model)
	if !ok {
		t.Fatalf("expected model, got %T", next)
	}
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEmptySeedIsRejectedWithoutCallingTheProvider(t *testing.T) {
	calls := 0
	m := newTestModel(t, func(cfg llm.Config) (llm.Completer, error) {
		calls++
		return llm.NewMock(cfg.Model), nil
	})
	if m.focus != fieldSeed {
		t.Fatalf("expected seed focus for a keyless provider, got %d", m.focus)
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.inflight {
		t.Fatalf("expected no run in flight")
	}
	if cmd != nil {
		if _, ok := cmd().(duetDoneMsg); ok {
			t.Fatalf("expected no duet command for an empty seed")
		}
	}
	if calls != 0 {
		t.Fatalf("expected zero completer builds, got %d", calls)
	}
	if !strings.HasPrefix(m.statusLine, "Warning:") {
		t.Fatalf("expected warning status, got %q", m.statusLine)
	}
	if m.state != dialogue.StatusNotStarted {
		t.Fatalf("expected state to stay not started, got %s", m.state)
	}
}

func TestDuetRunsWithMockAndEndsNaturally(t *testing.T) {
	m := newTestModel(t, func(cfg llm.Config) (llm.Completer, error) {
		return llm.NewMock(cfg.Model), nil
	})
	m.seed.SetValue("Let's talk about AI.")
	m.turns = 5

	cmd := m.startDuet()
	if cmd == nil {
		t.Fatalf("expected a duet command")
	}
	if !m.inflight || m.state != dialogue.StatusInProgress {
		t.Fatalf("expected in-progress state, got inflight=%v state=%s", m.inflight, m.state)
	}
	if again := m.startDuet(); again != nil {
		t.Fatalf("expected a second start to be ignored while in flight")
	}

	done, ok := cmd().(duetDoneMsg)
	if !ok {
		t.Fatalf("expected duetDoneMsg")
	}
	if done.err != nil {
		t.Fatalf("expected no error, got %v", done.err)
	}
	next, _ := m.Update(done)
	m = next.(model)
	if m.inflight {
		t.Fatalf("expected run to be finished")
	}
	if m.state != dialogue.StatusCompletedNatural {
		t.Fatalf("expected natural completion, got %s", m.state)
	}
	if m.statusLine != dialogue.StatusEndedNaturally {
		t.Fatalf("unexpected status %q", m.statusLine)
	}
	if got := len(m.result.Transcript); got != 5 {
		t.Fatalf("expected 5 messages, got %d", got)
	}
	if m.styles.ColorFor("smartless") != "#ff71ce" {
		t.Fatalf("expected roster color for smartless, got %q", m.styles.ColorFor("smartless"))
	}
	if view := m.View(); !strings.Contains(view, "SMARTLESS") {
		t.Fatalf("expected transcript in view")
	}
}

func TestDuetReachingTurnLimitIsOngoing(t *testing.T) {
	m := newTestModel(t, func(cfg llm.Config) (llm.Completer, error) {
		return llm.NewMock(cfg.Model), nil
	})
	m.seed.SetValue("Let's talk about AI.")
	m.turns = 1

	cmd := m.startDuet()
	next, _ := m.Update(cmd())
	m = next.(model)
	if m.state != dialogue.StatusCompletedLimit {
		t.Fatalf("expected limit completion, got %s", m.state)
	}
	if m.statusLine != dialogue.StatusOngoing {
		t.Fatalf("unexpected status %q", m.statusLine)
	}
	if got := len(m.result.Transcript); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestDuetFailureShowsErrorAndKeepsRunning(t *testing.T) {
	m := newTestModel(t, func(llm.Config) (llm.Completer, error) {
		return failingCompleter{err: &llm.RemoteError{Provider: "mock", Class: "rate_limit", StatusCode: 429, Message: "slow down"}}, nil
	})
	m.seed.SetValue("hello")

	cmd := m.startDuet()
	done := cmd().(duetDoneMsg)
	if !errors.Is(done.err, dialogue.ErrRemoteCallFailure) {
		t.Fatalf("expected remote call failure, got %v", done.err)
	}
	next, follow := m.Update(done)
	m = next.(model)
	if m.state != dialogue.StatusFailed {
		t.Fatalf("expected failed state, got %s", m.state)
	}
	if !strings.HasPrefix(m.statusLine, "Error:") {
		t.Fatalf("expected error status, got %q", m.statusLine)
	}
	if follow != nil {
		if _, quit := follow().(tea.QuitMsg); quit {
			t.Fatalf("expected program to keep running after a failure")
		}
	}
	if len(m.logs) == 0 {
		t.Fatalf("expected failure to be logged")
	}

	// the form stays usable for another attempt
	m.apiKey.SetValue("")
	if again := m.startDuet(); again == nil {
		t.Fatalf("expected a retry to start")
	}
}

func TestCompleterBuildErrorIsRemoteFailure(t *testing.T) {
	m := newTestModel(t, func(llm.Config) (llm.Completer, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	m.seed.SetValue("hello")
	done := m.startDuet()().(duetDoneMsg)
	if !errors.Is(done.err, dialogue.ErrRemoteCallFailure) {
		t.Fatalf("expected remote call failure, got %v", done.err)
	}
}

func TestTabCyclesDuetFields(t *testing.T) {
	m := newTestModel(t, nil)
	want := []duetField{fieldTurns, fieldStart, fieldKey, fieldInitiator, fieldResponder, fieldSeed}
	for _, field := range want {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != field {
			t.Fatalf("expected focus %d, got %d", field, m.focus)
		}
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != fieldResponder {
		t.Fatalf("expected shift+tab to go back to responder, got %d", m.focus)
	}
}

func TestTurnsStayWithinCeiling(t *testing.T) {
	m := newTestModel(t, nil)
	m.setFocus(fieldTurns)
	for i := 0; i < 20; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.turns != dialogue.DefaultMaxTurnsCeiling {
		t.Fatalf("expected turns capped at %d, got %d", dialogue.DefaultMaxTurnsCeiling, m.turns)
	}
	for i := 0; i < 20; i++ {
		m, _ = press(t, m, runes("-"))
	}
	if m.turns != 1 {
		t.Fatalf("expected turns floored at 1, got %d", m.turns)
	}
}

func TestTypingGoesToFocusedInput(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("hi"))
	if got := m.seed.Value(); got != "hi" {
		t.Fatalf("expected seed to receive keys, got %q", got)
	}
	if m.initiator.Value() != "smartless" {
		t.Fatalf("expected initiator untouched, got %q", m.initiator.Value())
	}
}

func TestCtrlTSwitchesTabs(t *testing.T) {
	m := newTestModel(t, nil)
	order := []tabID{tabAsk, tabSettings, tabHelp, tabDuet}
	for _, tab := range order {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
		if m.activeTab != tab {
			t.Fatalf("expected tab %d, got %d", tab, m.activeTab)
		}
	}
}

func TestQuitConfirmFlow(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.quitConfirm {
		t.Fatalf("expected quit confirm after esc")
	}
	if !strings.Contains(m.View(), "LEAVE THE STUDIO?") {
		t.Fatalf("expected quit modal in view")
	}
	m, _ = press(t, m, runes("n"))
	if m.quitConfirm {
		t.Fatalf("expected quit confirm to close on n")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := press(t, m, runes("y"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestAskMissingPromptShowsMessage(t *testing.T) {
	m := newTestModel(t, nil)
	m.switchTab(tabAsk)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.statusLine != dialogue.MissingAskInput {
		t.Fatalf("expected missing input message, got %q", m.statusLine)
	}
	if m.inflight {
		t.Fatalf("expected no request in flight")
	}
}

func TestAskWithMockReturnsReply(t *testing.T) {
	m := newTestModel(t, func(cfg llm.Config) (llm.Completer, error) {
		return llm.NewMock(cfg.Model), nil
	})
	m.switchTab(tabAsk)
	m.prompt.SetValue("What is a neuron?")
	cmd := m.startAsk()
	if cmd == nil {
		t.Fatalf("expected ask command")
	}
	next, _ := m.Update(cmd())
	m = next.(model)
	if m.askErr != nil {
		t.Fatalf("expected no error, got %v", m.askErr)
	}
	if !strings.Contains(m.answer, "What is a neuron?") {
		t.Fatalf("expected mock echo, got %q", m.answer)
	}
}

func TestProviderSettingResetsModel(t *testing.T) {
	m := newTestModel(t, nil)
	m.switchTab(tabSettings)
	m.settings.model = "custom-model"
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.settings.provider != llm.ProviderOpenAI {
		t.Fatalf("expected provider to wrap to openai, got %q", m.settings.provider)
	}
	if m.settings.model != llm.DefaultModel(llm.ProviderOpenAI) {
		t.Fatalf("expected default model, got %q", m.settings.model)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	before := m.settings.maxTokens
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.settings.maxTokens != before+50 {
		t.Fatalf("expected max tokens to grow by 50, got %d", m.settings.maxTokens)
	}
}

func TestCycleString(t *testing.T) {
	if got := cycleString([]string{"a", "b", "c"}, "a", -1); got != "c" {
		t.Fatalf("unexpected cycle: %q", got)
	}
	if got := cycleString([]string{"a", "b", "c"}, "c", 1); got != "a" {
		t.Fatalf("unexpected cycle: %q", got)
	}
}

func TestMaxTokensSettingUsesConfigBounds(t *testing.T) {
	m := newTestModel(t, nil)
	m.switchTab(tabSettings)
	m.settingsIndex = 2
	m.settings.maxTokens = config.MaxMaxTokens
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.settings.maxTokens != config.MaxMaxTokens {
		t.Fatalf("expected max tokens to stay at %d, got %d", config.MaxMaxTokens, m.settings.maxTokens)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.settings.maxTokens != config.MaxMaxTokens-50 {
		t.Fatalf("expected max tokens %d, got %d", config.MaxMaxTokens-50, m.settings.maxTokens)
	}
	m.settings.maxTokens = config.MinMaxTokens + 10
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.settings.maxTokens != config.MinMaxTokens {
		t.Fatalf("expected max tokens floored at %d, got %d", config.MinMaxTokens, m.settings.maxTokens)
	}
}

func TestProviderSwitchKeepsKeysPerProvider(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("GEMINI_API_KEY", "gemini-env-key")

	cfg := config.Default()
	cfg.Provider = llm.ProviderOpenAI
	cfg.APIKey = "sk-openai"
	m := newModel(Deps{Config: cfg})
	m.switchTab(tabSettings)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.settings.provider != llm.ProviderOllama {
		t.Fatalf("expected ollama, got %q", m.settings.provider)
	}
	if got := m.apiKey.Value(); got != "" {
		t.Fatalf("expected the openai key to stay behind, got %q", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.apiKey.Value(); got != "gemini-env-key" {
		t.Fatalf("expected the gemini key from the environment, got %q", got)
	}
	if !strings.Contains(m.renderSettings(), "set for gemini") {
		t.Fatalf("expected settings to name the key's provider")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.apiKey.Value(); got != "" {
		t.Fatalf("expected no anthropic key, got %q", got)
	}
	if !strings.Contains(m.renderSettings(), "missing for anthropic") {
		t.Fatalf("expected settings to flag the missing anthropic key")
	}

	for i := 0; i < 3; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.settings.provider != llm.ProviderOpenAI {
		t.Fatalf("expected openai, got %q", m.settings.provider)
	}
	if got := m.apiKey.Value(); got != "sk-openai" {
		t.Fatalf("expected the openai key back, got %q", got)
	}
}

func TestFinishedDuetOffersNewExchange(t *testing.T) {
	m := newTestModel(t, func(cfg llm.Config) (llm.Completer, error) {
		return llm.NewMock(cfg.Model), nil
	})
	hint := "Press Start Conversation to begin a new exchange."
	if strings.Contains(m.renderTranscript(100), hint) {
		t.Fatalf("expected no hint before a run")
	}
	m.seed.SetValue("hello")
	next, _ := m.Update(m.startDuet()())
	m = next.(model)
	if !strings.Contains(m.renderTranscript(100), hint) {
		t.Fatalf("expected hint after the run finished")
	}
}
