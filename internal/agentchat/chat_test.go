package agentchat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duologue/internal/llm"
)

// scripted replies with queued strings and records every request.
type scripted struct {
	replies  []string
	err      error
	failAt   int
	requests []llm.Request
}

func (s *scripted) Complete(_ context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil && len(s.requests) >= s.failAt {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return fmt.Sprintf("reply %d", len(s.requests)), nil
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next, nil
}

func newPair(t *testing.T, c llm.Completer, initPhrases, respPhrases []string) (*Agent, *Agent) {
	t.Helper()
	a, err := NewAgent(AgentConfig{
		Name:          "smartless",
		SystemMessage: "host",
		LLM:           c,
		IsTermination: PhraseTermination(initPhrases),
	})
	require.NoError(t, err)
	b, err := NewAgent(AgentConfig{
		Name:          "Huberman-Lab",
		SystemMessage: "scientist",
		LLM:           c,
		IsTermination: PhraseTermination(respPhrases),
	})
	require.NoError(t, err)
	return a, b
}

func TestNewAgentValidation(t *testing.T) {
	c := &scripted{}
	_, err := NewAgent(AgentConfig{Name: " ", LLM: c})
	assert.ErrorIs(t, err, ErrMisconfigured)

	_, err = NewAgent(AgentConfig{Name: "a"})
	assert.ErrorIs(t, err, ErrMisconfigured)

	_, err = NewAgent(AgentConfig{Name: "a", LLM: c, HumanInputMode: HumanInputAlways})
	assert.ErrorIs(t, err, ErrMisconfigured)

	a, err := NewAgent(AgentConfig{Name: " a ", LLM: c, SystemMessage: " sys "})
	require.NoError(t, err)
	assert.Equal(t, "a", a.Name())
	assert.Equal(t, "sys", a.SystemMessage())
}

func TestInitiateChatRunsToTurnLimit(t *testing.T) {
	c := &scripted{}
	a, b := newPair(t, c, []string{"Goodbye"}, []string{"I look forward"})

	var e Engine
	out, err := e.InitiateChat(context.Background(), a, b, "Let's talk about AI.", 3)
	require.NoError(t, err)
	assert.Equal(t, StopMaxTurns, out.StopReason)
	assert.Equal(t, 3, out.Rounds)
	require.Len(t, out.History, 6)
	assert.Equal(t, Message{Name: "smartless", Content: "Let's talk about AI."}, out.History[0])
	for i, msg := range out.History {
		want := "smartless"
		if i%2 == 1 {
			want = "Huberman-Lab"
		}
		assert.Equal(t, want, msg.Name, "turn %d", i+1)
	}
	// the seed is not generated, so 5 completions for 6 messages
	assert.Len(t, c.requests, 5)
}

func TestInitiateChatPerspective(t *testing.T) {
	c := &scripted{replies: []string{"hello host", "hi again"}}
	a, b := newPair(t, c, nil, nil)

	var e Engine
	_, err := e.InitiateChat(context.Background(), a, b, "seed", 2)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(c.requests), 2)

	first := c.requests[0].Messages
	require.Len(t, first, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "scientist"}, first[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "seed"}, first[1])

	second := c.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "host"}, second[0])
	assert.Equal(t, llm.RoleAssistant, second[1].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hello host"}, second[2])
}

func TestInitiateChatStopsOnTermination(t *testing.T) {
	c := &scripted{replies: []string{"Fascinating.", "Thanks for coming...Goodbye"}}
	a, b := newPair(t, c, []string{"Goodbye"}, []string{"I look forward"})

	var e Engine
	out, err := e.InitiateChat(context.Background(), a, b, "Let's talk about AI.", 10)
	require.NoError(t, err)
	assert.Equal(t, StopTermination, out.StopReason)
	require.Len(t, out.History, 3)
	assert.Equal(t, "smartless", out.History[2].Name)
	assert.Equal(t, 2, out.Rounds)
}

func TestInitiateChatReceiverPredicate(t *testing.T) {
	// the responder says the initiator's phrase; the initiator's predicate fires on receipt
	c := &scripted{replies: []string{"Goodbye for now"}}
	a, b := newPair(t, c, []string{"Goodbye"}, []string{"I look forward"})

	var e Engine
	out, err := e.InitiateChat(context.Background(), a, b, "hi", 5)
	require.NoError(t, err)
	assert.Equal(t, StopTermination, out.StopReason)
	assert.Len(t, out.History, 2)
}

func TestInitiateChatSeedCanTerminate(t *testing.T) {
	c := &scripted{}
	a, b := newPair(t, c, []string{"Goodbye"}, nil)

	var e Engine
	out, err := e.InitiateChat(context.Background(), a, b, "Goodbye", 5)
	require.NoError(t, err)
	assert.Len(t, out.History, 1)
	assert.Empty(t, c.requests)
}

func TestInitiateChatPropagatesErrors(t *testing.T) {
	rateLimited := &llm.RemoteError{Provider: "openai", Class: llm.ClassRateLimit, StatusCode: 429, Message: "Rate limit reached"}
	c := &scripted{err: rateLimited, failAt: 2}
	a, b := newPair(t, c, nil, nil)

	var e Engine
	out, err := e.InitiateChat(context.Background(), a, b, "hi", 3)
	require.Error(t, err)
	assert.Nil(t, out)

	var remote *llm.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, llm.ClassRateLimit, remote.Class)
	assert.Contains(t, err.Error(), "agent smartless")
}

func TestInitiateChatCanceledContext(t *testing.T) {
	c := &scripted{}
	a, b := newPair(t, c, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var e Engine
	_, err := e.InitiateChat(ctx, a, b, "hi", 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.requests)
}

func TestInitiateChatMisconfigured(t *testing.T) {
	c := &scripted{}
	a, b := newPair(t, c, nil, nil)
	var e Engine

	_, err := e.InitiateChat(context.Background(), a, nil, "hi", 2)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = e.InitiateChat(context.Background(), a, a, "hi", 2)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = e.InitiateChat(context.Background(), a, b, "hi", 0)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = e.InitiateChat(context.Background(), a, b, "  ", 2)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestPhraseTermination(t *testing.T) {
	pred := PhraseTermination([]string{"Goodbye", ""})
	assert.True(t, pred("ok...Goodbye"))
	assert.False(t, pred("goodbye"))
	assert.False(t, pred("anything"))
}
