package main

import (
	"errors"
	"fmt"
	"os"

	"pai-openai/internal/adapter"
	"pai-openai/internal/config"
	"pai-openai/internal/logging"
	"pai-openai/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// exitError carries a process exit code to main. A nil err means the
// failure was already reported through the logger.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(exitCode(newRootCmd().Execute()))
}

func exitCode(err error) int {
	if err == nil {
		return adapter.ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(os.Stderr, exit.err)
		}
		return exit.code
	}
	fmt.Fprintln(os.Stderr, err)
	return adapter.ExitFailure
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pai-openai [prompt | --file prompt.txt]",
		Short: "pai-openai - send a prompt with file context to the OpenAI Responses API",
		Example: `  pai-openai 'Summarize repo risks' --context 'src/**/*.ts' --context README.md
  git diff | pai-openai --stdin 'Write tests for changed files'
  pai-openai -f prompts/refactor.md --tool-spec tools/whoami.json --post scripts/create-pr.sh`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a := &app{
				cfg:           cfg,
				logger:        logger,
				stdin:         os.Stdin,
				stdinTerminal: term.IsTerminal(int(os.Stdin.Fd())),
				stdout:        os.Stdout,
				mock:          os.Getenv("PAI_MOCK_LLM") == "1",
			}
			code, err := a.run(cmd.Context(), args)
			if err != nil {
				logger.Error("pai-openai failed", zap.Error(err))
				return &exitError{code: adapter.ExitFailure}
			}
			if code != adapter.ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}
