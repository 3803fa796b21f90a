package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lorekeep/motif-engine/internal/config"
)

// Validates a tuning YAML file before it is deployed: parse errors,
// out-of-range knobs, and inverted ranges are all caught here instead
// of at engine startup.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <tuning.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &TuningValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Tuning file is valid!")
}

type TuningValidator struct {
	errors []string
}

func (v *TuningValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".yaml") && !strings.HasSuffix(baseName, ".yml") {
		return fmt.Errorf("tuning file must have .yaml or .yml extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	tuning := config.DefaultTuning()
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return fmt.Errorf("file %s failed YAML unmarshaling: %w", filename, err)
	}

	v.validateTuning(&tuning)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *TuningValidator) validateTuning(t *config.Tuning) {
	v.checkPositiveDuration("lifecycle_interval", t.LifecycleInterval)
	v.checkPositiveDuration("cache_ttl", t.CacheTTL)

	if t.MaxDistance <= 0 {
		v.addError("max_distance must be positive, got %g", t.MaxDistance)
	}
	if t.RegionalFloor < 0 {
		v.addError("regional_floor must not be negative, got %d", t.RegionalFloor)
	}

	v.checkIntensity("global_intensity", t.GlobalIntensity)
	v.checkIntensity("regional_min_intensity", t.RegionalMinIntensity)
	v.checkIntensity("regional_max_intensity", t.RegionalMaxIntensity)
	if t.RegionalMinIntensity > t.RegionalMaxIntensity {
		v.addError("regional_min_intensity %g exceeds regional_max_intensity %g",
			t.RegionalMinIntensity, t.RegionalMaxIntensity)
	}

	v.checkIntensity("aggression_threshold", t.AggressionThreshold)
	v.checkIntensity("dual_pressure_weight", t.DualPressureWeight)
	v.checkIntensity("force_chaos_min_intensity", t.ForceChaosMinIntensity)
	v.checkIntensity("force_chaos_max_intensity", t.ForceChaosMaxIntensity)
	if t.ForceChaosMinIntensity > t.ForceChaosMaxIntensity {
		v.addError("force_chaos_min_intensity %g exceeds force_chaos_max_intensity %g",
			t.ForceChaosMinIntensity, t.ForceChaosMaxIntensity)
	}

	v.checkProbability("adjacent_probability", t.AdjacentProbability)
	v.checkProbability("sequence_global_chance", t.SequenceGlobalChance)
	v.checkProbability("motif_event_probability", t.MotifEventProbability)
	if t.SequenceIntensityStep < 0 {
		v.addError("sequence_intensity_step must not be negative, got %g", t.SequenceIntensityStep)
	}

	if t.EventBaseIntensityMin < 1 || t.EventBaseIntensityMin > 10 {
		v.addError("event_base_intensity_min must be 1-10, got %d", t.EventBaseIntensityMin)
	}
	if t.EventBaseIntensityMax < 1 || t.EventBaseIntensityMax > 10 {
		v.addError("event_base_intensity_max must be 1-10, got %d", t.EventBaseIntensityMax)
	}
	if t.EventBaseIntensityMin > t.EventBaseIntensityMax {
		v.addError("event_base_intensity_min %d exceeds event_base_intensity_max %d",
			t.EventBaseIntensityMin, t.EventBaseIntensityMax)
	}
	if t.MajorEventThreshold < 1 || t.MajorEventThreshold > 10 {
		v.addError("major_event_threshold must be 1-10, got %d", t.MajorEventThreshold)
	}

	for _, region := range t.SeedRegions {
		if strings.TrimSpace(region) == "" {
			v.addError("seed_regions must not contain blank entries")
		}
	}
}

func (v *TuningValidator) checkPositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.addError("%s must be a positive duration, got %s", field, d)
	}
}

func (v *TuningValidator) checkIntensity(field string, value float64) {
	if value < 0 || value > 10 {
		v.addError("%s must be between 0 and 10, got %g", field, value)
	}
}

func (v *TuningValidator) checkProbability(field string, value float64) {
	if value < 0 || value > 1 {
		v.addError("%s must be a probability between 0 and 1, got %g", field, value)
	}
}

func (v *TuningValidator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf("  - %s", fmt.Sprintf(format, args...)))
}
