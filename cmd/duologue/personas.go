package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"duologue/internal/persona"
	"duologue/internal/textutil"
)

var personasJSON bool

func newPersonasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the agent roster",
		Args:  cobra.NoArgs,
		RunE:  runPersonasList,
	}
	cmd.Flags().BoolVar(&personasJSON, "json", false, "Print the roster as JSON")
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the roster file",
		Args:  cobra.NoArgs,
		RunE:  runPersonasSchema,
	})
	return cmd
}

func runPersonasList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if personasJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Agents []persona.AgentSpec `json:"agents"`
			Pair   persona.Pair        `json:"default_pair"`
		}{s.roster.Agents(), s.roster.DefaultPair()})
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tTERMINATION PHRASES\tCOLOR\tPERSONA")
	fmt.Fprintln(w, "----\t-------------------\t-----\t-------")
	for _, spec := range s.roster.Agents() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			spec.Name,
			strings.Join(spec.TerminationPhrases, ", "),
			firstNonEmpty(spec.Color, "-"),
			textutil.CompactSingleLine(spec.Persona, 60),
		)
	}
	w.Flush()

	pair := s.roster.DefaultPair()
	fmt.Fprintf(out, "\nDefault pair: %s -> %s\n", pair.Initiator, pair.Responder)
	return nil
}

func runPersonasSchema(cmd *cobra.Command, args []string) error {
	schema, err := persona.Schema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(schema))
	return nil
}
