package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

const envPrefix = "LIMEN_"

type Config struct {
	Mode Mode `koanf:"mode"`

	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Storage  StorageConfig  `koanf:"storage"`
	Postgres PostgresConfig `koanf:"postgres"`
	GCP      GCPConfig      `koanf:"gcp"`
	LLM      LLMConfig      `koanf:"llm"`
	Flow     FlowConfig     `koanf:"flow"`
}

type HTTPConfig struct {
	Port string `koanf:"port"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type StorageConfig struct {
	Remote   string `koanf:"remote"` // "none", "postgres" or "firestore"
	LocalDir string `koanf:"local_dir"`
}

type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

type GCPConfig struct {
	Project  string `koanf:"project"`
	Location string `koanf:"location"`
}

type LLMConfig struct {
	Provider      string        `koanf:"provider"` // "mock", "gemini" or "gateway"
	Model         string        `koanf:"model"`
	APIKey        string        `koanf:"api_key"`
	GatewayURL    string        `koanf:"gateway_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerMinute int           `koanf:"rate_per_minute"`
}

type FlowConfig struct {
	// GeneratedQuestions asks the generator for the guiding question
	// instead of drawing it from the mood's pool.
	GeneratedQuestions bool `koanf:"generated_questions"`
}

// Load reads an optional YAML file, then LIMEN_* environment variables,
// then fills defaults and validates.
//
//	LIMEN_HTTP_PORT          -> http.port
//	LIMEN_STORAGE_LOCAL_DIR  -> storage.local_dir
//	LIMEN_LLM_RATE_PER_MINUTE -> llm.rate_per_minute
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps LIMEN_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeLocal
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Storage.Remote == "" {
		cfg.Storage.Remote = "none"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = defaultLocalDir()
	}
	if cfg.GCP.Location == "" {
		cfg.GCP.Location = "us-central1"
	}
	if cfg.LLM.Provider == "" {
		if cfg.Mode == ModeLocal {
			cfg.LLM.Provider = "mock"
		} else {
			cfg.LLM.Provider = "gemini"
		}
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 12 * time.Second
	}
}

func defaultLocalDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "limen", "reflections")
	}
	return filepath.Join(".limen", "reflections")
}

// Validate checks that every selected backend has what it needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal, ModeCloud:
	default:
		errs = append(errs, fmt.Errorf("mode must be local or cloud, got %q", c.Mode))
	}

	switch c.Storage.Remote {
	case "none":
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for postgres storage"))
		}
	case "firestore":
		if c.GCP.Project == "" {
			errs = append(errs, errors.New("gcp.project is required for firestore storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.remote %q", c.Storage.Remote))
	}

	switch c.LLM.Provider {
	case "mock":
	case "gemini":
		if c.LLM.APIKey == "" && c.GCP.Project == "" {
			errs = append(errs, errors.New("gemini needs llm.api_key or gcp.project"))
		}
	case "gateway":
		if c.LLM.GatewayURL == "" {
			errs = append(errs, errors.New("llm.gateway_url is required for the gateway provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	if c.LLM.RatePerMinute < 0 {
		errs = append(errs, errors.New("llm.rate_per_minute must not be negative"))
	}

	return errors.Join(errs...)
}
