package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical replay defaults file.
const DefaultConfigPath = "config/replay.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ReplayConfig holds the recording and replay settings. Every field is
// optional; the Get* methods supply defaults for anything left unset. The
// same JSON is stored in logs as a config snapshot and re-applied on replay.
type ReplayConfig struct {
	// Replay transport
	Interpolation *bool    `json:"replay_interpolation,omitempty"`
	MinSpeed      *float64 `json:"replay_min_speed,omitempty"`
	MaxSpeed      *float64 `json:"replay_max_speed,omitempty"`
	SpeedStep     *float64 `json:"replay_speed_step,omitempty"`
	SeekStep      *string  `json:"replay_seek_step,omitempty"` // duration string like "1s"

	// Tick loop
	TickRateHz *float64 `json:"tick_rate_hz,omitempty"`

	// Storage and outer surfaces
	LogDir      *string `json:"log_dir,omitempty"`
	CatalogPath *string `json:"catalog_path,omitempty"`
	StreamAddr  *string `json:"stream_addr,omitempty"`
	MetricsAddr *string `json:"metrics_addr,omitempty"`

	// Synthetic eye tracker used when no hardware is attached
	SyntheticEyeTracker *bool    `json:"synthetic_eye_tracker,omitempty"`
	SyntheticIPD        *float64 `json:"synthetic_ipd_cm,omitempty"`
	SyntheticFixation   *float64 `json:"synthetic_fixation_cm,omitempty"`
}

// EmptyReplayConfig returns a ReplayConfig with all fields set to nil.
func EmptyReplayConfig() *ReplayConfig {
	return &ReplayConfig{}
}

// LoadReplayConfig loads a ReplayConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadReplayConfig(path string) (*ReplayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadReplayConfigBytes(data)
}

// LoadReplayConfigBytes parses and validates a JSON blob, such as a config
// snapshot read back from a log.
func LoadReplayConfigBytes(data []byte) (*ReplayConfig, error) {
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("config blob too large: %d bytes (max %d)", len(data), maxFileSize)
	}
	cfg := EmptyReplayConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// current directory. Panics if the file cannot be loaded, intended for tests.
func MustLoadDefaultConfig() *ReplayConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/plot-log/
	}
	for _, path := range candidates {
		if cfg, err := LoadReplayConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Marshal encodes the set fields as JSON for embedding in a log.
func (c *ReplayConfig) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Validate checks that the configuration values are valid.
func (c *ReplayConfig) Validate() error {
	if c.MinSpeed != nil && *c.MinSpeed < 0 {
		return fmt.Errorf("replay_min_speed must be non-negative, got %f", *c.MinSpeed)
	}
	if c.GetMaxSpeed() < c.GetMinSpeed() {
		return fmt.Errorf("replay_max_speed (%f) must be >= replay_min_speed (%f)", c.GetMaxSpeed(), c.GetMinSpeed())
	}
	if c.SpeedStep != nil && *c.SpeedStep <= 0 {
		return fmt.Errorf("replay_speed_step must be positive, got %f", *c.SpeedStep)
	}
	if c.SeekStep != nil && *c.SeekStep != "" {
		d, err := time.ParseDuration(*c.SeekStep)
		if err != nil {
			return fmt.Errorf("invalid replay_seek_step '%s': %w", *c.SeekStep, err)
		}
		if d <= 0 {
			return fmt.Errorf("replay_seek_step must be positive, got %s", d)
		}
	}
	if c.TickRateHz != nil && *c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %f", *c.TickRateHz)
	}
	if c.SyntheticIPD != nil && *c.SyntheticIPD < 0 {
		return fmt.Errorf("synthetic_ipd_cm must be non-negative, got %f", *c.SyntheticIPD)
	}
	if c.SyntheticFixation != nil && *c.SyntheticFixation <= 0 {
		return fmt.Errorf("synthetic_fixation_cm must be positive, got %f", *c.SyntheticFixation)
	}
	return nil
}

// GetInterpolation returns the replay_interpolation value or the default.
func (c *ReplayConfig) GetInterpolation() bool {
	if c.Interpolation == nil {
		return true
	}
	return *c.Interpolation
}

// GetMinSpeed returns the replay_min_speed value or the default.
func (c *ReplayConfig) GetMinSpeed() float64 {
	if c.MinSpeed == nil {
		return 0.0
	}
	return *c.MinSpeed
}

// GetMaxSpeed returns the replay_max_speed value or the default.
func (c *ReplayConfig) GetMaxSpeed() float64 {
	if c.MaxSpeed == nil {
		return 4.0
	}
	return *c.MaxSpeed
}

// GetSpeedStep returns the replay_speed_step value or the default.
func (c *ReplayConfig) GetSpeedStep() float64 {
	if c.SpeedStep == nil {
		return 0.1
	}
	return *c.SpeedStep
}

// GetSeekStep parses and returns replay_seek_step as a time.Duration.
func (c *ReplayConfig) GetSeekStep() time.Duration {
	if c.SeekStep == nil || *c.SeekStep == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.SeekStep)
	if err != nil {
		return time.Second // default on parse error
	}
	return d
}

// GetTickRateHz returns the tick_rate_hz value or the default.
func (c *ReplayConfig) GetTickRateHz() float64 {
	if c.TickRateHz == nil {
		return 30
	}
	return *c.TickRateHz
}

// GetTickInterval returns the tick period implied by tick_rate_hz.
func (c *ReplayConfig) GetTickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.GetTickRateHz())
}

// GetLogDir returns the log_dir value or the default.
func (c *ReplayConfig) GetLogDir() string {
	if c.LogDir == nil || *c.LogDir == "" {
		return "recordings"
	}
	return *c.LogDir
}

// GetCatalogPath returns the catalog_path value. Empty disables the catalogue.
func (c *ReplayConfig) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

// GetStreamAddr returns the stream_addr value. Empty disables streaming.
func (c *ReplayConfig) GetStreamAddr() string {
	if c.StreamAddr == nil {
		return ""
	}
	return *c.StreamAddr
}

// GetMetricsAddr returns the metrics_addr value. Empty disables the endpoint.
func (c *ReplayConfig) GetMetricsAddr() string {
	if c.MetricsAddr == nil {
		return ""
	}
	return *c.MetricsAddr
}

// GetSyntheticEyeTracker returns the synthetic_eye_tracker value or the default.
func (c *ReplayConfig) GetSyntheticEyeTracker() bool {
	if c.SyntheticEyeTracker == nil {
		return true
	}
	return *c.SyntheticEyeTracker
}

// GetSyntheticIPD returns the synthetic inter-pupillary distance in cm.
func (c *ReplayConfig) GetSyntheticIPD() float64 {
	if c.SyntheticIPD == nil {
		return 6.4
	}
	return *c.SyntheticIPD
}

// GetSyntheticFixation returns the synthetic fixation distance in cm.
func (c *ReplayConfig) GetSyntheticFixation() float64 {
	if c.SyntheticFixation == nil {
		return 500
	}
	return *c.SyntheticFixation
}

// Ptr returns a pointer to v. Handy for building configs in code.
func Ptr[T any](v T) *T { return &v }
