package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"duologue/internal/textutil"
)

// mockCloseAfter is the number of replies an agent gives before the mock
// starts quoting its closing phrase.
const mockCloseAfter = 3

var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// Mock is an offline Completer with deterministic replies. It never fails.
type Mock struct {
	model string
}

// NewMock returns a Mock that reports model in its replies.
func NewMock(model string) *Mock {
	if strings.TrimSpace(model) == "" {
		model = "mock"
	}
	return &Mock{model: model}
}

// Complete echoes the latest user message. Once the caller has answered
// mockCloseAfter times it appends the last quoted phrase found in the system
// prompt, which is how persona prompts spell out their sign-off.
func (m *Mock) Complete(_ context.Context, req Request) (string, error) {
	system, turns := splitSystem(req.Messages)

	lastUser := ""
	answered := 0
	for _, msg := range turns {
		switch msg.Role {
		case RoleAssistant:
			answered++
		case RoleUser:
			lastUser = msg.Content
		}
	}

	reply := fmt.Sprintf("[%s] You said: %q. Tell me more.", m.model, textutil.CompactSingleLine(lastUser, 80))
	if answered+1 >= mockCloseAfter {
		if matches := quotedPhrase.FindAllStringSubmatch(system, -1); len(matches) > 0 {
			reply = fmt.Sprintf("[%s] That was a great chat. %s", m.model, matches[len(matches)-1][1])
		}
	}
	return reply, nil
}
