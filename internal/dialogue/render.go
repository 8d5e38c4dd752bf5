package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"duologue/internal/llm"
	"duologue/internal/persona"
)

// Status lines shown under a transcript.
const (
	StatusEndedNaturally = "Conversation ended as per termination logic."
	StatusOngoing        = "Conversation is ongoing."
	StatusNoHistory      = "No chat history returned."
)

// DefaultPalette assigns colors to participants in order.
var DefaultPalette = []string{"#ff71ce", "#01cdfe", "#05ffa1", "#ffd166", "#b967ff"}

// StyleTable maps a speaker name to its presentation color.
type StyleTable map[string]string

// NewStyleTable sizes the table to the participants. Each agent takes the next
// palette color unless its spec sets one.
func NewStyleTable(palette []string, specs ...persona.AgentSpec) StyleTable {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	table := make(StyleTable, len(specs))
	for i, spec := range specs {
		color := strings.TrimSpace(spec.Color)
		if color == "" {
			color = palette[i%len(palette)]
		}
		table[spec.Name] = color
	}
	return table
}

// ColorFor returns the speaker's color, or "" when the speaker is unknown.
func (t StyleTable) ColorFor(speaker string) string {
	return t[speaker]
}

// Line is one rendered transcript row.
type Line struct {
	Turn    int    `json:"turn"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
}

func (l Line) String() string {
	return fmt.Sprintf("Turn %d - %s: %s", l.Turn, l.Speaker, l.Content)
}

// RenderTranscript turns a transcript into display rows numbered from 1 with
// upper-cased speaker names. It has no side effects.
func RenderTranscript(transcript []TurnMessage, styles StyleTable) []Line {
	lines := make([]Line, 0, len(transcript))
	for i, msg := range transcript {
		lines = append(lines, Line{
			Turn:    i + 1,
			Speaker: strings.ToUpper(msg.Speaker),
			Content: msg.Content,
			Color:   styles.ColorFor(msg.Speaker),
		})
	}
	return lines
}

// StatusLine is the message shown under the output region.
func StatusLine(result *ChatResult, err error) string {
	switch {
	case errors.Is(err, ErrEmptyTranscript):
		return StatusNoHistory
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrInvalidTurns):
		return "Warning: " + err.Error()
	case err != nil:
		return "Error: " + err.Error() + retryHint(err)
	case result == nil:
		return ""
	case result.EndedNaturally:
		return StatusEndedNaturally
	default:
		return StatusOngoing
	}
}

// retryHint is appended to failures that may pass when resubmitted unchanged.
func retryHint(err error) string {
	var remote *llm.RemoteError
	if errors.As(err, &remote) && remote.Retryable() {
		return " (temporary, try again)"
	}
	return ""
}

// Submission is the content of the duet form at the moment Start is pressed.
type Submission struct {
	Provider  string
	APIKey    string
	Initiator string
	Responder string
	Seed      string
	Turns     int
	Ceiling   int
}

// CheckSubmission rejects a form that must not reach RunDialogue. A zero
// Ceiling means DefaultMaxTurnsCeiling.
func CheckSubmission(s Submission) error {
	if llm.RequiresKey(s.Provider) && strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("%w: please provide an API key", ErrMissingInput)
	}
	if strings.TrimSpace(s.Initiator) == "" || strings.TrimSpace(s.Responder) == "" {
		return fmt.Errorf("%w: please provide both agent names", ErrMissingInput)
	}
	if strings.TrimSpace(s.Initiator) == strings.TrimSpace(s.Responder) {
		return fmt.Errorf("%w: the two agents need different names", ErrMissingInput)
	}
	if strings.TrimSpace(s.Seed) == "" {
		return fmt.Errorf("%w: please provide a seed message", ErrMissingInput)
	}
	ceiling := s.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultMaxTurnsCeiling
	}
	if s.Turns < 1 || s.Turns > ceiling {
		return fmt.Errorf("%w: turns must be between 1 and %d, got %d", ErrInvalidTurns, ceiling, s.Turns)
	}
	return nil
}
