package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"duologue/internal/config"
	"duologue/internal/logging"
	"duologue/internal/persona"
	"duologue/internal/tui"
)

var globalFlags config.Flags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "duologue",
		Short: "Scripted two-agent conversations over an LLM",
		Long: `duologue lets two persona-driven agents talk to each other through a
completion API until one of them signs off or the turn budget runs out.

Without a subcommand the interactive terminal UI starts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	globalFlags.Bind(root)

	root.AddCommand(newTUICmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newPersonasCmd())
	return root
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the renderer, so logs only go to --log-file.
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	s.log.WithFields(logrus.Fields{
		"provider": s.cfg.Provider,
		"model":    s.cfg.ResolvedModel(),
	}).Info("starting tui")
	return tui.Run(tui.Deps{
		Config: s.cfg,
		Roster: s.roster,
		Log:    s.log,
	})
}

// session is the resolved state every command starts from.
type session struct {
	cfg      config.Config
	roster   *persona.Roster
	log      *logrus.Logger
	closeLog func() error
}

func newSession(cmd *cobra.Command, logOut io.Writer) (*session, error) {
	cfg, err := globalFlags.Resolve(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: logOut,
	})
	if err != nil {
		return nil, err
	}
	roster := persona.Builtin()
	if cfg.PersonasFile != "" {
		roster, err = persona.LoadRoster(cfg.PersonasFile)
		if err != nil {
			closeLog()
			return nil, fmt.Errorf("loading personas: %w", err)
		}
	}
	log.WithFields(logrus.Fields{
		"agents":   len(roster.Agents()),
		"personas": cfg.PersonasFile,
	}).Debug("roster loaded")
	return &session{cfg: cfg, roster: roster, log: log, closeLog: closeLog}, nil
}

func (s *session) Close() {
	if err := s.closeLog(); err != nil {
		s.log.WithError(err).Warn("closing log file")
	}
}
