package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hanyumate/hanyumate/internal/app"
	"github.com/hanyumate/hanyumate/internal/platform/config"
)

type rootOptions struct {
	vocabPath string
	logLevel  string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "hanyumate",
		Short:        "HSK vocabulary drills and quizzes",
		SilenceUsage: true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&opts.vocabPath, "vocab", "", "vocabulary source: YAML directory or .xlsx workbook (default: HANYU_VOCAB_PATH or builtin)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(newDrillCmd(opts), newExportCmd(opts), newLevelsCmd(opts))
	return cmd
}

// loadConfig reads the environment, applies flag overrides and installs a
// text logger on stderr so log lines stay out of the drill transcript.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.vocabPath != "" {
		cfg.Vocab.Path = o.vocabPath
	}
	cfg.Log.Level = o.logLevel
	cfg.Log.Format = "text"
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(app.NewLogger(cfg.Log, cmd.ErrOrStderr()))
	return cfg, nil
}
