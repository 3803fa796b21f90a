package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from environment
// variables with an optional YAML tuning file for narrative knobs.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Storage. Backend is "redis" or "sqlite".
	StorageBackend string
	RedisURL       string
	SQLitePath     string

	// LLM narration.
	LLMProvider  string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIURL    string
	OllamaURL    string

	// ContentRating gates profanity filtering on narration output.
	ContentRating string

	Tuning Tuning
}

// Tuning holds the narrative balance knobs. Values here change how the
// engine behaves, not where it runs, so they live in a YAML file that
// designers can edit without touching deployment env.
type Tuning struct {
	// LifecycleInterval is how often the background loop re-evaluates
	// motif lifecycles. Parsed from Go duration syntax by UnmarshalYAML.
	LifecycleInterval time.Duration `yaml:"-"`
	// CacheTTL bounds how stale the active-motif cache may get.
	CacheTTL time.Duration `yaml:"-"`

	// MaxDistance is the baseline spatial influence range before scope
	// multipliers apply.
	MaxDistance float64 `yaml:"max_distance"`

	// Reconciliation invariants.
	RegionalFloor        int     `yaml:"regional_floor"`
	GlobalIntensity      float64 `yaml:"global_intensity"`
	RegionalMinIntensity float64 `yaml:"regional_min_intensity"`
	RegionalMaxIntensity float64 `yaml:"regional_max_intensity"`

	// SeedRegions are the regions the reconciler keeps populated even
	// before any motifs mention them.
	SeedRegions []string `yaml:"seed_regions"`

	// Chaos gating.
	AggressionThreshold    float64 `yaml:"aggression_threshold"`
	DualPressureWeight     float64 `yaml:"dual_pressure_weight"`
	ForceChaosMinIntensity float64 `yaml:"force_chaos_min_intensity"`
	ForceChaosMaxIntensity float64 `yaml:"force_chaos_max_intensity"`

	// Sequence generation.
	AdjacentProbability   float64 `yaml:"adjacent_probability"`
	SequenceGlobalChance  float64 `yaml:"sequence_global_chance"`
	SequenceIntensityStep float64 `yaml:"sequence_intensity_step"`

	// World events.
	MotifEventProbability float64 `yaml:"motif_event_probability"`
	EventBaseIntensityMin int     `yaml:"event_base_intensity_min"`
	EventBaseIntensityMax int     `yaml:"event_base_intensity_max"`
	MajorEventThreshold   int     `yaml:"major_event_threshold"`
}

// UnmarshalYAML decodes tuning YAML, accepting durations in Go syntax
// ("10m", "1h30m") for the interval fields.
func (t *Tuning) UnmarshalYAML(value *yaml.Node) error {
	type alias Tuning
	aux := struct {
		*alias            `yaml:",inline"`
		LifecycleInterval string `yaml:"lifecycle_interval"`
		CacheTTL          string `yaml:"cache_ttl"`
	}{alias: (*alias)(t)}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.LifecycleInterval != "" {
		d, err := time.ParseDuration(aux.LifecycleInterval)
		if err != nil {
			return fmt.Errorf("invalid lifecycle_interval: %w", err)
		}
		t.LifecycleInterval = d
	}
	if aux.CacheTTL != "" {
		d, err := time.ParseDuration(aux.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
		t.CacheTTL = d
	}
	return nil
}

// DefaultTuning returns the engine's balance defaults. A tuning file
// overrides fields individually.
func DefaultTuning() Tuning {
	return Tuning{
		LifecycleInterval:      time.Hour,
		CacheTTL:               5 * time.Minute,
		MaxDistance:            100.0,
		RegionalFloor:          2,
		GlobalIntensity:        7.0,
		RegionalMinIntensity:   1.0,
		RegionalMaxIntensity:   6.0,
		SeedRegions:            nil,
		AggressionThreshold:    5.0,
		DualPressureWeight:     4.0,
		ForceChaosMinIntensity: 6.0,
		ForceChaosMaxIntensity: 9.0,
		AdjacentProbability:    0.8,
		SequenceGlobalChance:   0.3,
		SequenceIntensityStep:  1.5,
		MotifEventProbability:  0.7,
		EventBaseIntensityMin:  3,
		EventBaseIntensityMax:  7,
		MajorEventThreshold:    8,
	}
}

// Load reads configuration from the environment. If TUNING_PATH is set,
// the YAML file at that path overrides the default tuning.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		StorageBackend: getEnv("STORAGE_BACKEND", "redis"),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		SQLitePath:     getEnv("SQLITE_PATH", "./motifs.db"),
		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		ContentRating:  getEnv("CONTENT_RATING", "PG-13"),
		Tuning:         DefaultTuning(),
	}

	if path := os.Getenv("TUNING_PATH"); path != "" {
		if err := loadTuning(path, &cfg.Tuning); err != nil {
			return nil, fmt.Errorf("failed to load tuning file: %w", err)
		}
	}

	if cfg.StorageBackend != "redis" && cfg.StorageBackend != "sqlite" {
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func loadTuning(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, t)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
