package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Generator GeneratorConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	// Timeout bounds a single upstream attempt.
	Timeout time.Duration
}

type GeneratorConfig struct {
	// MinPersonas and MaxPersonas define the persona count range requested
	// from the model.
	MinPersonas int
	MaxPersonas int
	// SessionTTL is how long an idle session survives before the sweep
	// removes it.
	SessionTTL time.Duration
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 8192,
			Timeout:         90 * time.Second,
		},
		Generator: GeneratorConfig{
			MinPersonas: 2,
			MaxPersonas: 4,
			SessionTTL:  time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a .env file (if present) and the process
// environment, layered over defaults. Environment variables always win over
// .env values, which godotenv guarantees by never overriding existing vars.
//
// The Gemini API key is the only required value; Load fails fast without it
// so no parsing or generation is ever attempted against a missing credential.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadFromEnv(processEnv{})
}

// env abstracts environment lookup for testing.
type env interface {
	Get(key string) string
}

func loadFromEnv(e env) (Config, error) {
	cfg := defaults()

	if err := applyEnv(&cfg, e); err != nil {
		return Config{}, err
	}

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf(
			"missing required config: Gemini API key. Set it via the GEMINI_API_KEY environment variable or a .env file")
	}

	if cfg.Generator.MinPersonas < 1 {
		cfg.Generator.MinPersonas = 1
	}
	if cfg.Generator.MaxPersonas < cfg.Generator.MinPersonas {
		cfg.Generator.MaxPersonas = cfg.Generator.MinPersonas
	}

	return cfg, nil
}
