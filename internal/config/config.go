// Package config loads agent settings from flags, environment (AGT_*) and an
// optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

type ProviderConfig struct {
	Name      string `mapstructure:"name"` // "anthropic" | "ollama"
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	BaseURL   string `mapstructure:"base_url"`
}

type AgentConfig struct {
	Name              string `mapstructure:"name"`
	SystemInstruction string `mapstructure:"system_instruction"`
	// HistoryID pins the REPL to one conversation; empty means a fresh id per process.
	HistoryID    string `mapstructure:"history_id"`
	LenientRoles bool   `mapstructure:"lenient_roles"`
	// Transcript is a JSON file the REPL session is exported to on exit.
	Transcript string `mapstructure:"transcript"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" | "json"
}

type TelemetryConfig struct {
	ObserveJSON bool   `mapstructure:"observe_json"`
	Dir         string `mapstructure:"dir"`
}

type HTTPConfig struct {
	// Addr enables the HTTP surface when non-empty, e.g. ":8080".
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // gin mode: debug | release | test
}

// EnvPrefix namespaces environment overrides, e.g. AGT_PROVIDER_NAME.
const EnvPrefix = "AGT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "anthropic")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.max_tokens", 1024)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("agent.name", "CodeAssistant")
	v.SetDefault("agent.system_instruction", "")
	v.SetDefault("agent.history_id", "")
	v.SetDefault("agent.lenient_roles", false)
	v.SetDefault("agent.transcript", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("telemetry.observe_json", false)
	v.SetDefault("telemetry.dir", ".agent")
	v.SetDefault("http.addr", "")
	v.SetDefault("http.mode", "release")
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"provider":      "provider.name",
	"model":         "provider.model",
	"max-tokens":    "provider.max_tokens",
	"base-url":      "provider.base_url",
	"name":          "agent.name",
	"system":        "agent.system_instruction",
	"history-id":    "agent.history_id",
	"lenient-roles": "agent.lenient_roles",
	"transcript":    "agent.transcript",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"observe":       "telemetry.observe_json",
	"serve":         "http.addr",
}

// Flags returns the flag set understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("provider", "", "model backend: anthropic or ollama")
	fs.String("model", "", "model name (backend default when empty)")
	fs.Int("max-tokens", 0, "maximum reply tokens")
	fs.String("base-url", "", "override the backend endpoint")
	fs.String("name", "", "agent name used in logs")
	fs.String("system", "", "override the built-in system instruction")
	fs.String("history-id", "", "conversation id for the REPL (random when empty)")
	fs.Bool("lenient-roles", false, "drop messages with unknown roles instead of failing")
	fs.String("transcript", "", "export the REPL conversation to this JSON file on exit")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: console or json")
	fs.Bool("observe", false, "write turn events to the telemetry directory")
	fs.String("serve", "", "serve HTTP on this address instead of the REPL")
	return fs
}

// Load parses args against Flags and resolves the final Config.
var envAliases = map[string][]string{
	"telemetry.observe_json": {"AGT_TELEMETRY_OBSERVE_JSON", "AGT_OBSERVE_JSON"},
	"telemetry.dir":          {"AGT_TELEMETRY_DIR", "AGT_ARTIFACTS_DIR"},
}

func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The short telemetry switches are accepted alongside the prefixed keys.
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "anthropic", "ollama":
	default:
		return fmt.Errorf("provider.name: unsupported %q", c.Provider.Name)
	}
	if c.Provider.MaxTokens <= 0 {
		return errors.New("provider.max_tokens must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported %q", c.Log.Format)
	}
	return nil
}
