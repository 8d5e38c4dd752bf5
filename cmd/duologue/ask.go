package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"duologue/internal/dialogue"
	"duologue/internal/llm"
)

var askSystemPrompt string

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a single prompt to the completion API",
		Long: `Sends one prompt behind a plain assistant system prompt and prints the reply.
No agents or personas are involved.`,
		Example: `  duologue ask "Summarize the plot of Hamlet in two sentences."`,
		RunE:    runAsk,
	}
	cmd.Flags().StringVar(&askSystemPrompt, "system", dialogue.DefaultSystemPrompt, "System prompt sent before the question")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if err := dialogue.CheckAsk(s.cfg.Provider, s.cfg.APIKey, prompt); err != nil {
		return err
	}
	completer, err := llm.New(s.cfg.LLM())
	if err != nil {
		return fmt.Errorf("creating completion client: %w", err)
	}
	reply, err := dialogue.Ask(cmd.Context(), completer, dialogue.AskOptions{
		Model:        s.cfg.ResolvedModel(),
		MaxTokens:    s.cfg.MaxTokens,
		SystemPrompt: askSystemPrompt,
	}, prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
