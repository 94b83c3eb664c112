// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads autoagents settings. Sources are applied in order:
// defaults, YAML file, profile file, --set overrides, AUTOAGENTS_* env.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/jllopis/autoagents/pkg/errors"
)

// EnvPrefix prefixes environment overrides: AUTOAGENTS_LLM_MODEL -> llm.model.
const EnvPrefix = "AUTOAGENTS_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Cost      CostConfig      `koanf:"cost"`
	Run       RunConfig       `koanf:"run"`
	Sink      SinkConfig      `koanf:"sink"`
	Tools     ToolsConfig     `koanf:"tools"`
	MCP       MCPConfig       `koanf:"mcp"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // openai, anthropic, gemini, ollama, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Proxy       string  `koanf:"proxy"`
	Temperature float64 `koanf:"temperature"`
	MaxRetries  int     `koanf:"max_retries"`
}

// CostConfig prices are USD per 1k tokens. A zero budget disables the
// ceiling.
type CostConfig struct {
	Budget          float64 `koanf:"budget"`
	PromptPer1K     float64 `koanf:"prompt_per_1k"`
	CompletionPer1K float64 `koanf:"completion_per_1k"`
}

type RunConfig struct {
	Rounds          int    `koanf:"rounds"`
	Termination     string `koanf:"termination"` // catch_up, quiescent
	MaxExtraRounds  int    `koanf:"max_extra_rounds"`
	ContractRetries int    `koanf:"contract_retries"`
	FileCacheSize   int    `koanf:"file_cache_size"`
}

type SinkConfig struct {
	Buffer     int    `koanf:"buffer"`
	SQLitePath string `koanf:"sqlite_path"`
	Console    bool   `koanf:"console"`
}

type ToolsConfig struct {
	SerpAPIKey  string `koanf:"serpapi_key"`
	SearchLimit int    `koanf:"search_limit"`
}

type MCPConfig struct {
	Servers map[string]MCPServerConfig `koanf:"servers"`
}

// MCPServerConfig describes a stdio MCP server whose tools spawned roles may
// use.
type MCPServerConfig struct {
	Command        string            `koanf:"command"`
	Args           []string          `koanf:"args"`
	Env            map[string]string `koanf:"env"`
	TimeoutSeconds int               `koanf:"timeout_seconds"`
}

type TelemetryConfig struct {
	Exporter           string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint       string `koanf:"otlp_endpoint"`
	OTLPInsecure       bool   `koanf:"otlp_insecure"`
	OTLPTimeoutSeconds int    `koanf:"otlp_timeout_seconds"`
}

// Global k instance
var k = koanf.New(".")

func setDefaults() {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "openai")
	k.Set("llm.model", "gpt-4o-mini")
	k.Set("llm.base_url", "")
	k.Set("llm.temperature", 0.0)
	k.Set("llm.max_retries", 6)

	k.Set("cost.budget", 10.0)
	k.Set("cost.prompt_per_1k", 0.0015)
	k.Set("cost.completion_per_1k", 0.002)

	k.Set("run.rounds", 3)
	k.Set("run.termination", "catch_up")
	k.Set("run.max_extra_rounds", 20)
	k.Set("run.contract_retries", 2)
	k.Set("run.file_cache_size", 256)

	k.Set("sink.buffer", 256)
	k.Set("sink.console", true)

	k.Set("tools.search_limit", 8)

	k.Set("telemetry.exporter", "none")
	k.Set("telemetry.otlp_timeout_seconds", 10)
}

// Load reads defaults, the optional file at path and the environment.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, "", nil)
}

// LoadWithOverrides is Load plus a profile file and "key=value" overrides.
// The profile file sits next to path as <name>.<profile><ext>.
func LoadWithOverrides(path, profile string, sets []string) (*Config, error) {
	k = koanf.New(".")
	setDefaults()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeInvalidInput, "load config file", err).WithContext("path", path)
		}
		if profile != "" {
			pp := ProfileConfigPath(path, profile)
			if _, err := os.Stat(pp); err == nil {
				if err := k.Load(file.Provider(pp), yaml.Parser()); err != nil {
					return nil, errors.New(errors.CodeInvalidInput, "load profile config", err).WithContext("path", pp)
				}
			}
		}
	}

	// AUTOAGENTS_LLM_PROVIDER -> llm.provider; a double underscore keeps a
	// literal one: AUTOAGENTS_TOOLS_SERPAPI__KEY -> tools.serpapi_key.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		s = strings.ReplaceAll(s, "__", "\x00")
		s = strings.ReplaceAll(s, "_", ".")
		return strings.ReplaceAll(s, "\x00", "_")
	}), nil); err != nil {
		return nil, err
	}

	for _, set := range sets {
		key, value, err := parseSet(set)
		if err != nil {
			return nil, err
		}
		if err := k.Set(key, value); err != nil {
			return nil, errors.New(errors.CodeInvalidInput, "apply override", err).WithContext("key", key)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "decode config", err)
	}
	return &cfg, nil
}

// LoadWithCLI parses --config, --profile (alias --env) and repeated --set
// from args and loads the result. Unknown arguments are ignored.
func LoadWithCLI(args []string) (*Config, error) {
	opts, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return LoadWithOverrides(opts.path, opts.profile, opts.sets)
}

// ProfileConfigPath returns the profile file for base: config.yaml with
// profile dev is config.dev.yaml.
func ProfileConfigPath(base, profile string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + profile + ext
}

type cliOptions struct {
	path    string
	profile string
	sets    []string
}

func parseCLIOverrides(args []string) (cliOptions, error) {
	var opts cliOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, inline := strings.Cut(arg, "=")
		switch name {
		case "--config", "--profile", "--env", "--set":
		default:
			continue
		}
		if !inline {
			if i+1 >= len(args) {
				return opts, errors.New(errors.CodeInvalidInput, fmt.Sprintf("missing value for %s", name), nil)
			}
			i++
			value = args[i]
		}
		switch name {
		case "--config":
			opts.path = value
		case "--profile", "--env":
			opts.profile = value
		case "--set":
			if _, _, err := parseSet(value); err != nil {
				return opts, err
			}
			opts.sets = append(opts.sets, value)
		}
	}
	return opts, nil
}

// parseSet splits key=value. Values are decoded as YAML so numbers, booleans
// and JSON objects keep their type.
func parseSet(set string) (string, any, error) {
	key, raw, ok := strings.Cut(set, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, errors.New(errors.CodeInvalidInput, "override must be key=value", nil).WithContext("set", set)
	}
	var value any
	if err := yamlv3.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return key, raw, nil
	}
	return key, value, nil
}
