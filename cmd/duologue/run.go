package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"duologue/internal/dialogue"
	"duologue/internal/llm"
	"duologue/internal/persona"
)

var (
	runInitiator string
	runResponder string
	runSeed      string
	runTurns     int
	runJSON      bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one conversation and print the transcript",
		Long: `Runs a single exchange between two agents. The initiator opens with the
seed message, the agents alternate, and the run stops when the last speaker
uses one of its termination phrases or after --turns rounds.

Names missing from the roster become ad hoc agents that sign off with "Goodbye".`,
		Example: `  duologue run --seed "Let's talk about AI." --turns 3
  duologue run --provider mock --initiator smartless --responder Huberman-Lab --seed hi --json`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	cmd.Flags().StringVar(&runInitiator, "initiator", "", "Agent that opens the conversation (default from the roster)")
	cmd.Flags().StringVar(&runResponder, "responder", "", "Agent that answers (default from the roster)")
	cmd.Flags().StringVarP(&runSeed, "seed", "s", "", "Opening message sent by the initiator")
	cmd.Flags().IntVarP(&runTurns, "turns", "n", 0, "Maximum rounds, one message per agent each (default from config)")
	cmd.Flags().BoolVar(&runJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	pair := s.roster.DefaultPair()
	sub := dialogue.Submission{
		Provider:  s.cfg.Provider,
		APIKey:    s.cfg.APIKey,
		Initiator: firstNonEmpty(runInitiator, pair.Initiator),
		Responder: firstNonEmpty(runResponder, pair.Responder),
		Seed:      runSeed,
		Turns:     s.cfg.MaxTurns,
		Ceiling:   s.cfg.MaxTurnsCeiling,
	}
	if cmd.Flags().Changed("turns") {
		sub.Turns = runTurns
	}
	if err := dialogue.CheckSubmission(sub); err != nil {
		return err
	}

	initiator, err := s.roster.Resolve(sub.Initiator)
	if err != nil {
		return fmt.Errorf("%w: %w", dialogue.ErrInvalidAgent, err)
	}
	responder, err := s.roster.Resolve(sub.Responder)
	if err != nil {
		return fmt.Errorf("%w: %w", dialogue.ErrInvalidAgent, err)
	}

	completer, err := llm.New(s.cfg.LLM())
	if err != nil {
		return fmt.Errorf("creating completion client: %w", err)
	}
	driver := dialogue.NewDriver(completer, dialogue.Options{
		Model:     s.cfg.ResolvedModel(),
		MaxTokens: s.cfg.MaxTokens,
		Log:       s.log,
	})
	result, err := driver.RunDialogue(cmd.Context(), initiator, responder, sub.Seed, sub.Turns)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		payload := struct {
			*dialogue.ChatResult
			Status string `json:"status"`
		}{result, dialogue.StatusOf(result, nil).String()}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	printTranscript(out, result, []persona.AgentSpec{initiator, responder}, useColor(out, s.cfg.NoColor))
	return nil
}

func printTranscript(out io.Writer, result *dialogue.ChatResult, specs []persona.AgentSpec, colored bool) {
	paint := func(c *color.Color) *color.Color {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}

	styles := dialogue.NewStyleTable(nil, specs...)
	for _, line := range dialogue.RenderTranscript(result.Transcript, styles) {
		speaker := paint(speakerColor(line.Color))
		fmt.Fprintf(out, "Turn %d - %s: %s\n", line.Turn, speaker.Sprint(line.Speaker), line.Content)
	}
	fmt.Fprintln(out)

	status := paint(color.New(color.FgYellow))
	if result.EndedNaturally {
		status = paint(color.New(color.FgGreen))
	}
	fmt.Fprintln(out, status.Sprint(dialogue.StatusLine(result, nil)))
}

// speakerColor turns a style table entry, "#rrggbb" or an ANSI 256 index,
// into a bold foreground color.
func speakerColor(value string) *color.Color {
	value = strings.TrimSpace(value)
	if hex, ok := strings.CutPrefix(value, "#"); ok && len(hex) == 6 {
		if rgb, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return color.New(38, 2,
				color.Attribute(rgb>>16&0xff), color.Attribute(rgb>>8&0xff), color.Attribute(rgb&0xff),
				color.Bold)
		}
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 && n < 256 {
		return color.New(38, 5, color.Attribute(n), color.Bold)
	}
	return color.New(color.Bold)
}

func useColor(out io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
