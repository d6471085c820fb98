package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand once the root command
// has loaded the configuration.
type app struct {
	configPath string
	logLevel   string
	config     *Config
	logger     *slog.Logger
	out        io.Writer
	errOut     io.Writer
}

// newRootCmd builds the command tree. Generated text and reports go to out,
// logs go to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "wordchain",
		Short: "Build word Markov chains from text and generate new text",
		Long: `wordchain records which word follows every run of N words in a corpus
and generates new text by repeatedly sampling a next word for the current run.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "./wordchain.json", "Path to the JSON config file (created with defaults if missing)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")

	cmd.AddCommand(
		newGenerateCmd(a),
		newAnalyzeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// init loads the configuration and sets up logging.
func (a *app) init() error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = config

	level := config.Chain.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = newLogger(a.errOut, level)
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "wordchain %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
