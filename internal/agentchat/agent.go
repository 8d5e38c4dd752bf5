// Package agentchat is a small two-party conversational agent layer: agents
// carry a system message and an LLM, and InitiateChat lets them take turns
// until one of them signals termination or the turn budget runs out.
package agentchat

import (
	"errors"
	"fmt"
	"strings"

	"duologue/internal/llm"
)

// HumanInputMode controls whether an agent asks a human before replying.
type HumanInputMode string

const (
	HumanInputNever     HumanInputMode = "NEVER"
	HumanInputTerminate HumanInputMode = "TERMINATE"
	HumanInputAlways    HumanInputMode = "ALWAYS"
)

// ErrMisconfigured wraps every agent construction failure.
var ErrMisconfigured = errors.New("agent misconfigured")

// AgentConfig is the input of NewAgent.
type AgentConfig struct {
	Name           string
	SystemMessage  string
	LLM            llm.Completer
	Model          string
	MaxTokens      int
	HumanInputMode HumanInputMode
	// IsTermination is evaluated on every message the agent sends or
	// receives. Nil means the agent never asks to stop.
	IsTermination func(content string) bool
}

// Agent is a configured participant. It is safe to reuse across chats.
type Agent struct {
	name          string
	systemMessage string
	llm           llm.Completer
	model         string
	maxTokens     int
	isTermination func(string) bool
}

// NewAgent validates cfg and builds an Agent.
func NewAgent(cfg AgentConfig) (*Agent, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrMisconfigured)
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("%w: agent %s has no llm", ErrMisconfigured, name)
	}
	mode := cfg.HumanInputMode
	if mode == "" {
		mode = HumanInputNever
	}
	if mode != HumanInputNever {
		return nil, fmt.Errorf("%w: agent %s: human input mode %s is not supported", ErrMisconfigured, name, mode)
	}
	return &Agent{
		name:          name,
		systemMessage: strings.TrimSpace(cfg.SystemMessage),
		llm:           cfg.LLM,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		isTermination: cfg.IsTermination,
	}, nil
}

// Name is the agent's conversational identity.
func (a *Agent) Name() string { return a.name }

// SystemMessage is the persona directive sent ahead of every request.
func (a *Agent) SystemMessage() string { return a.systemMessage }

func (a *Agent) wantsToStop(content string) bool {
	return a.isTermination != nil && a.isTermination(content)
}

// PhraseTermination builds an IsTermination predicate that fires when any of
// phrases occurs in the message. Matching is case-sensitive.
func PhraseTermination(phrases []string) func(string) bool {
	phrases = append([]string(nil), phrases...)
	return func(content string) bool {
		for _, phrase := range phrases {
			if phrase != "" && strings.Contains(content, phrase) {
				return true
			}
		}
		return false
	}
}
