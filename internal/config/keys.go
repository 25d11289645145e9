package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		env: "PERSONAFORGE_SERVER_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		env: "GEMINI_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
	},
	{
		env: "GEMINI_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
	},
	{
		env: "PERSONAFORGE_GEMINI_TEMPERATURE", typ: kFloat,
		apply: func(cfg *Config, v any) { cfg.Gemini.Temperature = v.(float64) },
	},
	{
		env: "PERSONAFORGE_GEMINI_MAX_TOKENS", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Gemini.MaxOutputTokens = v.(int) },
	},
	{
		env: "PERSONAFORGE_GEMINI_TIMEOUT", typ: kDuration,
		apply: func(cfg *Config, v any) { cfg.Gemini.Timeout = v.(time.Duration) },
	},
	{
		env: "PERSONAFORGE_PERSONA_MIN", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Generator.MinPersonas = v.(int) },
	},
	{
		env: "PERSONAFORGE_PERSONA_MAX", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Generator.MaxPersonas = v.(int) },
	},
	{
		env: "PERSONAFORGE_SESSION_TTL", typ: kDuration,
		apply: func(cfg *Config, v any) { cfg.Generator.SessionTTL = v.(time.Duration) },
	},
	{
		env: "PERSONAFORGE_LOG_LEVEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
}

func applyEnv(cfg *Config, e env) error {
	for _, s := range specs {
		raw := e.Get(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parsing %s=%q: %w", s.env, raw, err)
			}
			s.apply(cfg, v)
		case kFloat:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("parsing %s=%q: %w", s.env, raw, err)
			}
			s.apply(cfg, v)
		case kDuration:
			v, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("parsing %s=%q: %w", s.env, raw, err)
			}
			s.apply(cfg, v)
		}
	}
	return nil
}

type processEnv struct{}

func (processEnv) Get(key string) string {
	return os.Getenv(key)
}
