package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pai-openai/internal/logging"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultModel       = "gpt-4.1"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTimeout     = 180 * time.Second
	DefaultLogLevel    = logging.LevelInfo
	DefaultMaxContext  = 900_000
	DefaultMaxFileSize = 512 * 1024
)

// Config holds runtime configuration values.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	JSONMode          bool
	Stream            bool
	Timeout           time.Duration
	LogLevel          string
	PromptFile        string
	ContextGlobs      []string
	Stdin             bool
	ToolSpec          string
	ToolExec          string
	PreHook           string
	PostHook          string
	OutFile           string
	MaxContextBytes   int
	MaxFileBytes      int
	IncludeExtensions []string
}

type rawConfig struct {
	APIKey            string   `mapstructure:"api_key"`
	BaseURL           string   `mapstructure:"base_url"`
	Model             string   `mapstructure:"model"`
	JSONMode          bool     `mapstructure:"json_mode"`
	Stream            bool     `mapstructure:"stream"`
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	LogLevel          string   `mapstructure:"log_level"`
	Quiet             bool     `mapstructure:"quiet"`
	Debug             bool     `mapstructure:"debug"`
	PromptFile        string   `mapstructure:"file"`
	ContextGlobs      []string `mapstructure:"context"`
	Stdin             bool     `mapstructure:"stdin"`
	ToolSpec          string   `mapstructure:"tool_spec"`
	ToolExec          string   `mapstructure:"tool_exec"`
	PreHook           string   `mapstructure:"pre"`
	PostHook          string   `mapstructure:"post"`
	OutFile           string   `mapstructure:"out"`
	MaxContextBytes   int      `mapstructure:"max_context_bytes"`
	MaxFileBytes      int      `mapstructure:"max_file_bytes"`
	IncludeExtensions []string `mapstructure:"include_extensions"`
}

var envKeys = []string{
	"api_key", "base_url", "model", "json_mode",
	"timeout_ms", "log_level", "max_context_bytes", "max_file_bytes",
}

// RegisterFlags declares the command-line surface on cmd.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("file", "f", "", "Prompt file path")
	flags.StringArray("context", nil, "File path or glob to attach as context (repeat --context per glob)")
	flags.Bool("stdin", false, "Treat STDIN as additional context (or as the prompt when none is given)")
	flags.String("model", DefaultModel, "Model to use")
	flags.Bool("json", true, "Force JSON-mode output")
	flags.Bool("stream", true, "Stream tokens to stdout")
	flags.String("tool-spec", "", "Path to a JSON or YAML file describing function tools")
	flags.String("tool-exec", "", "Executable to resolve tool calls")
	flags.String("pre", "", "Command to run before the request")
	flags.String("post", "", "Command to run after the request")
	flags.String("out", "", "Write final output to a file")
	flags.Int("timeout", int(DefaultTimeout/time.Millisecond), "Request timeout in milliseconds")
	flags.String("log-level", "", "Override log level ("+strings.Join(logging.Levels, "|")+")")
	flags.Bool("quiet", false, "Silence logs")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Int("max-context-bytes", DefaultMaxContext, "Max bytes for combined context")
	flags.Int("max-file-bytes", DefaultMaxFileSize, "Max bytes per context file")
	flags.StringSlice("ext", nil, "Context file extensions to include (e.g. .go,.md)")
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OPENAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	// Only these keys read OPENAI_* variables. Hook and tool commands never
	// come from the environment.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("json_mode", true)
	v.SetDefault("stream", true)
	v.SetDefault("timeout_ms", int(DefaultTimeout/time.Millisecond))
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("quiet", false)
	v.SetDefault("debug", false)
	v.SetDefault("file", "")
	v.SetDefault("context", []string{})
	v.SetDefault("stdin", false)
	v.SetDefault("tool_spec", "")
	v.SetDefault("tool_exec", "")
	v.SetDefault("pre", "")
	v.SetDefault("post", "")
	v.SetDefault("out", "")
	v.SetDefault("max_context_bytes", DefaultMaxContext)
	v.SetDefault("max_file_bytes", DefaultMaxFileSize)
	v.SetDefault("include_extensions", []string{})

	if cmd != nil {
		bind := func(key, flag string) {
			if f := cmd.Flags().Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
		bind("model", "model")
		bind("json_mode", "json")
		bind("stream", "stream")
		bind("timeout_ms", "timeout")
		bind("quiet", "quiet")
		bind("debug", "debug")
		bind("file", "file")
		bind("context", "context")
		bind("stdin", "stdin")
		bind("tool_spec", "tool-spec")
		bind("tool_exec", "tool-exec")
		bind("pre", "pre")
		bind("post", "post")
		bind("out", "out")
		bind("max_context_bytes", "max-context-bytes")
		bind("max_file_bytes", "max-file-bytes")
		bind("include_extensions", "ext")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	// viper re-parses array flags as CSV, which would split brace globs like
	// "src/*.{go,md}".
	if cmd != nil {
		if flag := cmd.Flags().Lookup("context"); flag != nil && flag.Changed {
			globs, err := cmd.Flags().GetStringArray("context")
			if err != nil {
				return Config{}, err
			}
			raw.ContextGlobs = globs
		}
	}

	logLevel, err := resolveLogLevel(cmd, raw)
	if err != nil {
		return Config{}, err
	}

	if raw.TimeoutMS <= 0 {
		return Config{}, fmt.Errorf("invalid timeout %dms: must be positive", raw.TimeoutMS)
	}

	cfg := Config{
		APIKey:            strings.TrimSpace(raw.APIKey),
		BaseURL:           raw.BaseURL,
		Model:             raw.Model,
		JSONMode:          raw.JSONMode,
		Stream:            raw.Stream,
		Timeout:           time.Duration(raw.TimeoutMS) * time.Millisecond,
		LogLevel:          logLevel,
		PromptFile:        raw.PromptFile,
		ContextGlobs:      raw.ContextGlobs,
		Stdin:             raw.Stdin,
		ToolSpec:          raw.ToolSpec,
		ToolExec:          raw.ToolExec,
		PreHook:           raw.PreHook,
		PostHook:          raw.PostHook,
		OutFile:           raw.OutFile,
		MaxContextBytes:   raw.MaxContextBytes,
		MaxFileBytes:      raw.MaxFileBytes,
		IncludeExtensions: normalizeExtensions(raw.IncludeExtensions),
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxContextBytes <= 0 {
		cfg.MaxContextBytes = DefaultMaxContext
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileSize
	}

	return cfg, nil
}

// resolveLogLevel applies --quiet, then --log-level, then --debug, then the
// environment/config value.
func resolveLogLevel(cmd *cobra.Command, raw rawConfig) (string, error) {
	if raw.Quiet {
		return logging.LevelSilent, nil
	}
	if cmd != nil {
		if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
			return logging.ParseLevel(flag.Value.String())
		}
	}
	if raw.Debug {
		return logging.LevelDebug, nil
	}
	if raw.LogLevel == "" {
		return DefaultLogLevel, nil
	}
	return logging.ParseLevel(raw.LogLevel)
}

func normalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "pai-openai")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}
