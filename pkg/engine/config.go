package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FusionMode selects how detector outputs are combined.
type FusionMode string

const (
	// FusionPriority evaluates detectors in strict reliability order:
	// beep, then silence, then phrase. First to fire wins.
	FusionPriority FusionMode = "priority"
	// FusionWeighted accumulates a weighted confidence sum and triggers
	// once it crosses the configured threshold.
	FusionWeighted FusionMode = "weighted"
)

// Weights are the per-detector weights used in weighted fusion mode.
type Weights struct {
	Beep    float64 `yaml:"beep"`
	Silence float64 `yaml:"silence"`
	Phrase  float64 `yaml:"phrase"`
}

// Config carries every tunable of the drop engine. It is passed explicitly
// at construction so files processed concurrently with different tuning
// never share state.
type Config struct {
	FrameDurationMS int `yaml:"frame_duration_ms"`

	// Absolute drop bounds. The engine clamps every decision into
	// [MinGreetingLengthS, MaxGreetingLengthS] regardless of detector
	// output, and forces a fallback at the maximum.
	MinGreetingLengthS float64 `yaml:"min_greeting_length_s"`
	MaxGreetingLengthS float64 `yaml:"max_greeting_length_s"`

	// Tone detector band and sustain requirement.
	BeepTargetHz     float64 `yaml:"beep_target_hz"`
	BeepToleranceHz  float64 `yaml:"beep_tolerance_hz"`
	BeepMinAmplitude float64 `yaml:"beep_min_amplitude"`
	BeepMinDurationS float64 `yaml:"beep_min_duration_s"`

	// Energy detector gates.
	SilenceWarmupS     float64 `yaml:"silence_warmup_s"`
	SilenceThresholdS  float64 `yaml:"silence_threshold_s"`
	SilenceEnergyFloor float64 `yaml:"silence_energy_floor"`

	// Safety buffers added after the triggering signal. Minimal after a
	// beep (nothing audible precedes it); larger after silence or a
	// phrase estimate so trailing words finish before the message plays.
	BufferAfterBeepS    float64 `yaml:"buffer_after_beep_s"`
	BufferAfterSilenceS float64 `yaml:"buffer_after_silence_s"`
	BufferAfterPhraseS  float64 `yaml:"buffer_after_phrase_s"`

	FusionMode        FusionMode `yaml:"fusion_mode"`
	Weights           Weights    `yaml:"weights"`
	TriggerConfidence float64    `yaml:"trigger_confidence"`

	// ComplianceConfidence is the floor below which a timeout fallback
	// is flagged non-compliant.
	ComplianceConfidence float64 `yaml:"compliance_confidence"`

	// PhraseTimeoutS bounds the one-shot external phrase analysis call.
	PhraseTimeoutS float64 `yaml:"phrase_timeout_s"`
}

// DefaultConfig returns the production tuning. The beep band covers the
// common 800-1200 Hz voicemail tones; systems with higher tones can widen
// it via BeepTargetHz/BeepToleranceHz.
func DefaultConfig() Config {
	return Config{
		FrameDurationMS:      20,
		MinGreetingLengthS:   2.0,
		MaxGreetingLengthS:   30.0,
		BeepTargetHz:         1000,
		BeepToleranceHz:      200,
		BeepMinAmplitude:     0.1,
		BeepMinDurationS:     0.15,
		SilenceWarmupS:       2.0,
		SilenceThresholdS:    1.5,
		SilenceEnergyFloor:   0.01,
		BufferAfterBeepS:     0.1,
		BufferAfterSilenceS:  0.5,
		BufferAfterPhraseS:   0.5,
		FusionMode:           FusionPriority,
		Weights:              Weights{Beep: 0.4, Silence: 0.3, Phrase: 0.3},
		TriggerConfidence:    0.8,
		ComplianceConfidence: 0.5,
		PhraseTimeoutS:       10.0,
	}
}

// LoadConfig reads a YAML file over the defaults, so a config file only
// needs to state what it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("engine: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot honor.
func (c Config) Validate() error {
	if c.FrameDurationMS <= 0 {
		return fmt.Errorf("engine: frame_duration_ms must be positive, got %d", c.FrameDurationMS)
	}
	if c.MinGreetingLengthS < 0 {
		return fmt.Errorf("engine: min_greeting_length_s must be non-negative, got %v", c.MinGreetingLengthS)
	}
	if c.MaxGreetingLengthS <= c.MinGreetingLengthS {
		return fmt.Errorf("engine: max_greeting_length_s (%v) must exceed min_greeting_length_s (%v)",
			c.MaxGreetingLengthS, c.MinGreetingLengthS)
	}
	if c.BufferAfterBeepS < 0 || c.BufferAfterSilenceS < 0 || c.BufferAfterPhraseS < 0 {
		return fmt.Errorf("engine: safety buffers must be non-negative")
	}
	switch c.FusionMode {
	case FusionPriority:
	case FusionWeighted:
		if c.TriggerConfidence <= 0 || c.TriggerConfidence > 1 {
			return fmt.Errorf("engine: trigger_confidence must be in (0, 1], got %v", c.TriggerConfidence)
		}
		if c.Weights.Beep < 0 || c.Weights.Silence < 0 || c.Weights.Phrase < 0 {
			return fmt.Errorf("engine: fusion weights must be non-negative")
		}
		if c.Weights.Beep+c.Weights.Silence+c.Weights.Phrase == 0 {
			return fmt.Errorf("engine: at least one fusion weight must be positive")
		}
	default:
		return fmt.Errorf("engine: unknown fusion mode %q", c.FusionMode)
	}
	if c.ComplianceConfidence < 0 || c.ComplianceConfidence > 1 {
		return fmt.Errorf("engine: compliance_confidence must be in [0, 1], got %v", c.ComplianceConfidence)
	}
	return nil
}

// Duration accessors; the YAML schema stays numeric (seconds and
// milliseconds) to match the options the callers tune.

func (c Config) FrameDuration() time.Duration {
	return time.Duration(c.FrameDurationMS) * time.Millisecond
}

func (c Config) MinGreeting() time.Duration { return secs(c.MinGreetingLengthS) }
func (c Config) MaxGreeting() time.Duration { return secs(c.MaxGreetingLengthS) }

func (c Config) BeepMinDuration() time.Duration  { return secs(c.BeepMinDurationS) }
func (c Config) SilenceWarmup() time.Duration    { return secs(c.SilenceWarmupS) }
func (c Config) SilenceThreshold() time.Duration { return secs(c.SilenceThresholdS) }

func (c Config) BufferAfterBeep() time.Duration    { return secs(c.BufferAfterBeepS) }
func (c Config) BufferAfterSilence() time.Duration { return secs(c.BufferAfterSilenceS) }
func (c Config) BufferAfterPhrase() time.Duration  { return secs(c.BufferAfterPhraseS) }

func (c Config) PhraseTimeout() time.Duration { return secs(c.PhraseTimeoutS) }

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
