// Package dialogue drives a bounded two-agent exchange through the agent chat
// layer and interprets the transcript it returns.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"duologue/internal/agentchat"
	"duologue/internal/llm"
	"duologue/internal/logging"
	"duologue/internal/persona"
)

// DefaultMaxTurnsCeiling is the largest turn count the interactive surface accepts.
const DefaultMaxTurnsCeiling = 10

// ChatCapability starts a chat between two agents and returns its history.
// *agentchat.Engine implements it.
type ChatCapability interface {
	InitiateChat(ctx context.Context, initiator, recipient *agentchat.Agent, message string, maxTurns int) (*agentchat.Outcome, error)
}

// TurnMessage is one entry of the transcript.
type TurnMessage struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// ChatResult is the interpreted outcome of one exchange.
type ChatResult struct {
	RunID          string        `json:"run_id"`
	Initiator      string        `json:"initiator"`
	Responder      string        `json:"responder"`
	MaxTurns       int           `json:"max_turns"`
	Transcript     []TurnMessage `json:"transcript"`
	EndedNaturally bool          `json:"ended_naturally"`
	MatchedPhrase  string        `json:"matched_phrase,omitempty"`
	StopReason     string        `json:"stop_reason"`
	Rounds         int           `json:"rounds"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Options configures a Driver.
type Options struct {
	Model     string
	MaxTokens int
	Log       logrus.FieldLogger
	// Chat overrides the agent chat layer. Nil uses agentchat.Engine.
	Chat ChatCapability
}

// Driver runs exchanges. One Driver may serve many sequential runs.
type Driver struct {
	chat      ChatCapability
	completer llm.Completer
	model     string
	maxTokens int
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewDriver builds a Driver whose agents talk through completer.
func NewDriver(completer llm.Completer, opts Options) *Driver {
	var log logrus.FieldLogger = logging.Discard()
	if opts.Log != nil {
		log = opts.Log
	}
	chat := opts.Chat
	if chat == nil {
		chat = &agentchat.Engine{Log: log}
	}
	return &Driver{
		chat:      chat,
		completer: completer,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		log:       log,
		now:       time.Now,
	}
}

// RunDialogue lets initiator open with seed and the two agents alternate for
// at most maxTurns rounds. The result is classified as a natural ending only
// when the last message carries one of its own speaker's termination phrases;
// earlier messages are not scanned.
func (d *Driver) RunDialogue(ctx context.Context, initiator, responder persona.AgentSpec, seed string, maxTurns int) (*ChatResult, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, fmt.Errorf("%w: seed message is empty", ErrMissingInput)
	}
	if maxTurns < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTurns, maxTurns)
	}
	initiator, responder = initiator.Clone(), responder.Clone()
	initiator.Name = strings.TrimSpace(initiator.Name)
	responder.Name = strings.TrimSpace(responder.Name)
	for _, spec := range []persona.AgentSpec{initiator, responder} {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAgent, err)
		}
	}
	if initiator.Name == responder.Name {
		return nil, fmt.Errorf("%w: initiator and responder are both %q", ErrInvalidAgent, initiator.Name)
	}
	if d.completer == nil {
		return nil, fmt.Errorf("%w: no completion client configured", ErrInvalidAgent)
	}

	first, err := d.agent(initiator)
	if err != nil {
		return nil, err
	}
	second, err := d.agent(responder)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{
		RunID:     uuid.NewString(),
		Initiator: initiator.Name,
		Responder: responder.Name,
		MaxTurns:  maxTurns,
		StartedAt: d.now(),
	}
	log := d.log.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"initiator": initiator.Name,
		"responder": responder.Name,
		"max_turns": maxTurns,
	})
	log.Info("dialogue started")

	outcome, err := d.initiate(ctx, first, second, seed, maxTurns)
	result.Duration = d.now().Sub(result.StartedAt)
	if err != nil {
		log.WithError(err).Warn("dialogue failed")
		return nil, classify(err)
	}
	if outcome == nil || len(outcome.History) == 0 {
		log.Warn("dialogue returned no history")
		return nil, ErrEmptyTranscript
	}

	result.StopReason = string(outcome.StopReason)
	result.Rounds = outcome.Rounds
	history := outcome.History
	if limit := 2 * maxTurns; len(history) > limit {
		log.WithField("received", len(history)).Warn("history longer than turn budget, truncating")
		history = history[:limit]
	}
	result.Transcript = make([]TurnMessage, 0, len(history))
	for i, msg := range history {
		if msg.Name != initiator.Name && msg.Name != responder.Name {
			return nil, fmt.Errorf("%w: turn %d spoken by unknown agent %q", ErrUnexpectedFailure, i+1, msg.Name)
		}
		result.Transcript = append(result.Transcript, TurnMessage{Speaker: msg.Name, Content: msg.Content})
	}

	last := result.Transcript[len(result.Transcript)-1]
	speaker := responder
	if last.Speaker == initiator.Name {
		speaker = initiator
	}
	result.MatchedPhrase, result.EndedNaturally = speaker.MatchTermination(last.Content)

	log.WithFields(logrus.Fields{
		"turns":           len(result.Transcript),
		"ended_naturally": result.EndedNaturally,
		"stop_reason":     result.StopReason,
		"rounds":          result.Rounds,
		"duration_ms":     result.Duration.Milliseconds(),
	}).Info("dialogue finished")
	return result, nil
}

func (d *Driver) agent(spec persona.AgentSpec) (*agentchat.Agent, error) {
	agent, err := agentchat.NewAgent(agentchat.AgentConfig{
		Name:           spec.Name,
		SystemMessage:  spec.Persona,
		LLM:            d.completer,
		Model:          d.model,
		MaxTokens:      d.maxTokens,
		HumanInputMode: agentchat.HumanInputNever,
		IsTermination:  agentchat.PhraseTermination(spec.TerminationPhrases),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAgent, err)
	}
	return agent, nil
}

func (d *Driver) initiate(ctx context.Context, first, second *agentchat.Agent, seed string, maxTurns int) (out *agentchat.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: chat panicked: %v", ErrUnexpectedFailure, r)
		}
	}()
	return d.chat.InitiateChat(ctx, first, second, seed, maxTurns)
}

// classify maps a chat layer error onto the dialogue error kinds. The
// capability is opaque, so anything it raises that is not a configuration
// problem counts as a remote failure.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnexpectedFailure):
		return err
	case errors.Is(err, agentchat.ErrMisconfigured):
		return fmt.Errorf("%w: %w", ErrInvalidAgent, err)
	default:
		return fmt.Errorf("%w: %w", ErrRemoteCallFailure, err)
	}
}
