package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	DB        DBConfig        `koanf:"db"`
	Server    ServerConfig    `koanf:"server"`
	Agent     AgentConfig     `koanf:"agent"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // gemini, mock
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type AgentConfig struct {
	Temperature  float64       `koanf:"temperature"`
	MaxAttempts  int           `koanf:"max_attempts"`
	RoundTimeout time.Duration `koanf:"round_timeout"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "gemini")
	k.Set("llm.model", "gemini-2.5-flash")

	k.Set("db.path", "hrbot.db")
	k.Set("server.addr", ":8080")

	k.Set("agent.temperature", 0.2)
	k.Set("agent.max_attempts", 2)
	k.Set("agent.round_timeout", "30s")
	k.Set("agent.session_ttl", "30m")

	k.Set("telemetry.exporter", "stdout")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (HRBOT_LLM_API_KEY -> llm.api_key)
	if err := k.Load(env.Provider("HRBOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "HRBOT_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
