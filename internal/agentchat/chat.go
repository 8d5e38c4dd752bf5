package agentchat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"duologue/internal/llm"
)

// Message is one entry of the chat history.
type Message struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// StopReason tells why InitiateChat returned.
type StopReason string

const (
	StopTermination StopReason = "termination"
	StopMaxTurns    StopReason = "max_turns"
)

// Outcome is the result of a finished chat.
type Outcome struct {
	History    []Message
	StopReason StopReason
	Rounds     int
}

// Engine runs chats. The zero value logs nothing.
type Engine struct {
	Log logrus.FieldLogger
}

func (e *Engine) logger() logrus.FieldLogger {
	if e == nil || e.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return e.Log
}

// InitiateChat sends message from initiator to recipient and lets them
// alternate. A round is one message per agent, so the history holds at most
// 2*maxTurns entries. After each delivered message the termination predicates
// of both sender and receiver are checked; either one ends the chat.
// Completion errors abort the chat and are returned as is, wrapped with the
// agent name. There is no retry.
func (e *Engine) InitiateChat(ctx context.Context, initiator, recipient *Agent, message string, maxTurns int) (*Outcome, error) {
	if initiator == nil || recipient == nil {
		return nil, fmt.Errorf("%w: both agents are required", ErrMisconfigured)
	}
	if initiator.name == recipient.name {
		return nil, fmt.Errorf("%w: agents share the name %q", ErrMisconfigured, initiator.name)
	}
	if maxTurns < 1 {
		return nil, fmt.Errorf("%w: max turns must be positive, got %d", ErrMisconfigured, maxTurns)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: initial message is empty", ErrMisconfigured)
	}

	log := e.logger().WithFields(logrus.Fields{
		"initiator": initiator.name,
		"recipient": recipient.name,
		"max_turns": maxTurns,
	})
	out := &Outcome{StopReason: StopMaxTurns}

	deliver := func(sender, receiver *Agent, content string) bool {
		out.History = append(out.History, Message{Name: sender.name, Content: content})
		log.WithFields(logrus.Fields{
			"turn":    len(out.History),
			"speaker": sender.name,
			"chars":   len(content),
		}).Debug("message delivered")
		return sender.wantsToStop(content) || receiver.wantsToStop(content)
	}

	content := message
	for round := 1; round <= maxTurns; round++ {
		out.Rounds = round
		if round > 1 {
			reply, err := initiator.reply(ctx, out.History)
			if err != nil {
				return nil, err
			}
			content = reply
		}
		if deliver(initiator, recipient, content) {
			out.StopReason = StopTermination
			break
		}

		reply, err := recipient.reply(ctx, out.History)
		if err != nil {
			return nil, err
		}
		if deliver(recipient, initiator, reply) {
			out.StopReason = StopTermination
			break
		}
	}

	log.WithFields(logrus.Fields{
		"messages":    len(out.History),
		"stop_reason": out.StopReason,
	}).Info("chat finished")
	return out, nil
}

// reply asks the agent's LLM for its next message. The agent sees its own
// messages as assistant turns and the peer's as user turns.
func (a *Agent) reply(ctx context.Context, history []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}
	messages := make([]llm.Message, 0, len(history)+1)
	if a.systemMessage != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemMessage})
	}
	for _, h := range history {
		role := llm.RoleUser
		if h.Name == a.name {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: h.Content})
	}
	content, err := a.llm.Complete(ctx, llm.Request{
		Model:     a.model,
		Messages:  messages,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}
	return content, nil
}
