// Package persona holds the agent descriptors that configure one side of a
// scripted exchange: a name, the persona instructions sent as the system
// message, and the literal phrases that signal the agent wants to stop.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// AgentSpec describes one participant of a duet.
type AgentSpec struct {
	Name               string   `yaml:"name" json:"name" jsonschema:"required,description=Display label and conversational identity"`
	Persona            string   `yaml:"persona" json:"persona" jsonschema:"description=System-level behavioral directive"`
	TerminationPhrases []string `yaml:"termination_phrases" json:"termination_phrases" jsonschema:"required,minItems=1,description=Case-sensitive substrings that end the conversation"`
	Color              string   `yaml:"color,omitempty" json:"color,omitempty" jsonschema:"description=Optional lipgloss color (hex or ANSI index)"`
}

// DefaultTerminationPhrase is used for agents built from a bare name.
const DefaultTerminationPhrase = "Goodbye"

var (
	ErrEmptyName       = errors.New("agent name is empty")
	ErrNoPhrases       = errors.New("agent has no termination phrases")
	ErrDuplicateName   = errors.New("duplicate agent name")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrEmptyPhraseText = errors.New("termination phrase is empty")
)

// Validate checks the structural invariants of a spec.
func (s AgentSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.TerminationPhrases) == 0 {
		return fmt.Errorf("%s: %w", s.Name, ErrNoPhrases)
	}
	for i, phrase := range s.TerminationPhrases {
		if phrase == "" {
			return fmt.Errorf("%s: phrase %d: %w", s.Name, i+1, ErrEmptyPhraseText)
		}
	}
	return nil
}

// MatchTermination reports the first termination phrase, in declaration
// order, that occurs in content. Matching is case-sensitive.
func (s AgentSpec) MatchTermination(content string) (string, bool) {
	for _, phrase := range s.TerminationPhrases {
		if phrase != "" && strings.Contains(content, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// Clone returns a copy that shares no slices with s.
func (s AgentSpec) Clone() AgentSpec {
	out := s
	out.TerminationPhrases = append([]string(nil), s.TerminationPhrases...)
	return out
}

// AdHoc builds a spec for a name that is not in the roster.
func AdHoc(name string) AgentSpec {
	name = strings.TrimSpace(name)
	return AgentSpec{
		Name: name,
		Persona: fmt.Sprintf(
			"You are %s. Stay in character, keep each reply under 120 words, and when you feel the conversation has reached a natural end say %q.",
			name, DefaultTerminationPhrase,
		),
		TerminationPhrases: []string{DefaultTerminationPhrase},
	}
}
