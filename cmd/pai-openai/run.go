package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"pai-openai/internal/adapter"
	"pai-openai/internal/config"
	"pai-openai/internal/contextfiles"
	"pai-openai/internal/hooks"
	"pai-openai/internal/llm"
	"pai-openai/internal/render"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoPrompt = errors.New("no prompt provided; pass an argument, -f file, or supply --stdin")

// app is one CLI invocation.
type app struct {
	cfg           config.Config
	logger        *zap.Logger
	stdin         io.Reader
	stdinTerminal bool
	stdout        io.Writer
	mock          bool
}

func (a *app) run(ctx context.Context, args []string) (int, error) {
	if a.cfg.APIKey == "" {
		return adapter.ExitFailure, adapter.ErrMissingCredential
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))

	prompt, stdinText, err := a.resolvePrompt(args)
	if err != nil {
		return adapter.ExitFailure, err
	}

	built, err := contextfiles.Build(contextfiles.Options{
		Globs:             a.cfg.ContextGlobs,
		StdinText:         stdinText,
		MaxTotalBytes:     a.cfg.MaxContextBytes,
		MaxFileBytes:      a.cfg.MaxFileBytes,
		IncludeExtensions: a.cfg.IncludeExtensions,
		Logger:            logger,
	})
	if err != nil {
		return adapter.ExitFailure, err
	}
	contextText := ""
	if len(built.Entries) > 0 {
		contextText = built.Text
		logger.Info("attached context",
			zap.Int("sources", len(built.Entries)),
			zap.Int("bytes", built.TotalBytes))
	}

	runner := hooks.NewRunner(logger)
	if a.cfg.PreHook != "" {
		err := runner.Run(ctx, a.cfg.PreHook, map[string]string{
			"PROMPT":        prompt,
			"MODEL":         a.cfg.Model,
			"RUN_ID":        runID,
			"CONTEXT_PATHS": strings.Join(built.Paths(), ","),
		})
		if err != nil {
			return adapter.ExitFailure, err
		}
	}

	renderer := render.NewStdoutRenderer(a.stdout)
	opts := adapter.Options{
		APIKey:   a.cfg.APIKey,
		BaseURL:  a.cfg.BaseURL,
		Renderer: renderer,
		Logger:   logger,
	}
	if a.mock {
		opts.NewClient = func(llm.ClientOptions) llm.Client { return llm.NewMockClient() }
	}
	result, err := adapter.New(opts).Call(ctx, adapter.Args{
		Prompt:       prompt,
		Context:      contextText,
		Model:        a.cfg.Model,
		JSONMode:     a.cfg.JSONMode,
		Stream:       a.cfg.Stream,
		Timeout:      a.cfg.Timeout,
		ToolSpecPath: a.cfg.ToolSpec,
		ToolExec:     a.cfg.ToolExec,
	})
	if closeErr := renderer.Close(); closeErr != nil {
		logger.Warn("failed to write output", zap.Error(closeErr))
	}
	if err != nil {
		return result.ExitCode, err
	}

	if a.cfg.OutFile != "" && result.Text != "" {
		if err := os.WriteFile(a.cfg.OutFile, []byte(result.Text), 0o644); err != nil {
			return adapter.ExitFailure, fmt.Errorf("write output file: %w", err)
		}
		logger.Info("wrote output", zap.String("path", a.cfg.OutFile))
	}

	if a.cfg.PostHook != "" {
		if err := runner.Run(ctx, a.cfg.PostHook, postHookEnv(a.cfg, prompt, runID, result)); err != nil {
			return adapter.ExitFailure, err
		}
	}

	if result.NeedsTool && result.Tool != nil {
		payload, err := json.MarshalIndent(result.Tool, "", "  ")
		if err != nil {
			return adapter.ExitFailure, err
		}
		fmt.Fprintf(a.stdout, "\n%s\n", payload)
	}

	return result.ExitCode, nil
}

// resolvePrompt picks the prompt from the arguments, then the prompt file,
// then stdin. Stdin is returned as context only when the prompt came from
// somewhere else.
func (a *app) resolvePrompt(args []string) (prompt, stdinContext string, err error) {
	argPrompt := strings.Join(args, " ")

	filePrompt := ""
	if a.cfg.PromptFile != "" {
		data, err := os.ReadFile(a.cfg.PromptFile)
		if err != nil {
			return "", "", fmt.Errorf("read prompt file: %w", err)
		}
		filePrompt = strings.TrimRight(string(data), " \t\r\n")
	}

	stdinText := ""
	if a.cfg.Stdin && !a.stdinTerminal && a.stdin != nil {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		stdinText = strings.TrimRight(string(data), "\r\n")
	}

	switch {
	case argPrompt != "":
		return argPrompt, stdinText, nil
	case filePrompt != "":
		return filePrompt, stdinText, nil
	case stdinText != "":
		return stdinText, "", nil
	}
	return "", "", errNoPrompt
}

func postHookEnv(cfg config.Config, prompt, runID string, result adapter.CallResult) map[string]string {
	env := map[string]string{
		"PROMPT":      prompt,
		"MODEL":       cfg.Model,
		"RUN_ID":      runID,
		"OUTPUT_FILE": cfg.OutFile,
		"OUTPUT_TEXT": result.Text,
		"EXIT_CODE":   strconv.Itoa(result.ExitCode),
	}
	if result.Tool != nil {
		env["TOOL_NAME"] = result.Tool.Name
		env["TOOL_ARGS"] = result.Tool.Arguments
	}
	return env
}
