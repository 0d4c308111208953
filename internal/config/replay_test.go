package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyReplayConfig()

	if !cfg.GetInterpolation() {
		t.Errorf("GetInterpolation() = false, want true")
	}
	if cfg.GetMinSpeed() != 0 {
		t.Errorf("GetMinSpeed() = %f, want 0", cfg.GetMinSpeed())
	}
	if cfg.GetMaxSpeed() != 4 {
		t.Errorf("GetMaxSpeed() = %f, want 4", cfg.GetMaxSpeed())
	}
	if cfg.GetSpeedStep() != 0.1 {
		t.Errorf("GetSpeedStep() = %f, want 0.1", cfg.GetSpeedStep())
	}
	if cfg.GetSeekStep() != time.Second {
		t.Errorf("GetSeekStep() = %s, want 1s", cfg.GetSeekStep())
	}
	if cfg.GetTickRateHz() != 30 {
		t.Errorf("GetTickRateHz() = %f, want 30", cfg.GetTickRateHz())
	}
	if cfg.GetLogDir() != "recordings" {
		t.Errorf("GetLogDir() = %q, want recordings", cfg.GetLogDir())
	}
	assert.Empty(t, cfg.GetCatalogPath())
	assert.Empty(t, cfg.GetStreamAddr())
	assert.Empty(t, cfg.GetMetricsAddr())
	assert.True(t, cfg.GetSyntheticEyeTracker())
	assert.Equal(t, 6.4, cfg.GetSyntheticIPD())
	assert.Equal(t, 500.0, cfg.GetSyntheticFixation())
	assert.Equal(t, time.Second/30, cfg.GetTickInterval())
	require.NoError(t, cfg.Validate())
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyReplayConfig()

	assert.Equal(t, empty.GetInterpolation(), cfg.GetInterpolation())
	assert.Equal(t, empty.GetMinSpeed(), cfg.GetMinSpeed())
	assert.Equal(t, empty.GetMaxSpeed(), cfg.GetMaxSpeed())
	assert.Equal(t, empty.GetSpeedStep(), cfg.GetSpeedStep())
	assert.Equal(t, empty.GetSeekStep(), cfg.GetSeekStep())
	assert.Equal(t, empty.GetTickRateHz(), cfg.GetTickRateHz())
	assert.Equal(t, empty.GetLogDir(), cfg.GetLogDir())
	assert.Equal(t, empty.GetSyntheticIPD(), cfg.GetSyntheticIPD())
	assert.Equal(t, empty.GetSyntheticFixation(), cfg.GetSyntheticFixation())
}

func TestLoadReplayConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "replay.json")

	testJSON := `{
  "replay_interpolation": false,
  "replay_max_speed": 8,
  "replay_seek_step": "250ms",
  "tick_rate_hz": 60,
  "log_dir": "/var/lib/drt"
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadReplayConfig(configPath)
	require.NoError(t, err)

	assert.False(t, cfg.GetInterpolation())
	assert.Equal(t, 8.0, cfg.GetMaxSpeed())
	assert.Equal(t, 250*time.Millisecond, cfg.GetSeekStep())
	assert.Equal(t, 60.0, cfg.GetTickRateHz())
	assert.Equal(t, "/var/lib/drt", cfg.GetLogDir())
	// Omitted fields keep their defaults.
	assert.Equal(t, 0.1, cfg.GetSpeedStep())
	assert.Nil(t, cfg.MinSpeed)
}

func TestLoadReplayConfigFileChecks(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		p := filepath.Join(tmpDir, "replay.yaml")
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
		_, err := LoadReplayConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json extension")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadReplayConfig(filepath.Join(tmpDir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		p := filepath.Join(tmpDir, "big.json")
		big := `{"log_dir":"` + strings.Repeat("x", maxFileSize) + `"}`
		require.NoError(t, os.WriteFile(p, []byte(big), 0644))
		_, err := LoadReplayConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("bad json", func(t *testing.T) {
		p := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(p, []byte("{not json"), 0644))
		_, err := LoadReplayConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReplayConfig
		wantErr string
	}{
		{"empty", ReplayConfig{}, ""},
		{"negative min", ReplayConfig{MinSpeed: Ptr(-1.0)}, "replay_min_speed"},
		{"max below min", ReplayConfig{MinSpeed: Ptr(2.0), MaxSpeed: Ptr(1.0)}, "replay_max_speed"},
		{"max below default min", ReplayConfig{MaxSpeed: Ptr(0.0)}, ""},
		{"zero step", ReplayConfig{SpeedStep: Ptr(0.0)}, "replay_speed_step"},
		{"bad seek", ReplayConfig{SeekStep: Ptr("soon")}, "replay_seek_step"},
		{"negative seek", ReplayConfig{SeekStep: Ptr("-1s")}, "replay_seek_step"},
		{"zero tick rate", ReplayConfig{TickRateHz: Ptr(0.0)}, "tick_rate_hz"},
		{"negative ipd", ReplayConfig{SyntheticIPD: Ptr(-0.1)}, "synthetic_ipd_cm"},
		{"zero fixation", ReplayConfig{SyntheticFixation: Ptr(0.0)}, "synthetic_fixation_cm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadReplayConfigBytesRoundTrip(t *testing.T) {
	cfg := &ReplayConfig{Interpolation: Ptr(false), SpeedStep: Ptr(0.25), StreamAddr: Ptr(":8090")}
	blob, err := cfg.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "log_dir", "unset fields are omitted")

	got, err := LoadReplayConfigBytes(blob)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = LoadReplayConfigBytes([]byte(`{"tick_rate_hz": -5}`))
	assert.Error(t, err)
}

func TestGetSeekStepFallsBackOnParseError(t *testing.T) {
	cfg := &ReplayConfig{SeekStep: Ptr("garbage")}
	assert.Equal(t, time.Second, cfg.GetSeekStep())
}
