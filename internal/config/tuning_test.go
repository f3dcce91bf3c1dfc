package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"counter_to_reset": 42, "voxel_size": 0.1}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	mc := cfg.MotionConfig()
	if mc.CounterToReset != 42 {
		t.Errorf("CounterToReset = %d, want 42", mc.CounterToReset)
	}
	// Omitted fields keep the engine defaults.
	if mc.TemporalBuffer != 2 {
		t.Errorf("TemporalBuffer = %d, want default 2", mc.TemporalBuffer)
	}
	if cfg.GetVoxelSize() != 0.1 {
		t.Errorf("GetVoxelSize = %g, want 0.1", cfg.GetVoxelSize())
	}
	if cfg.GetVoxelsPerSide() != 16 {
		t.Errorf("GetVoxelsPerSide = %d, want default 16", cfg.GetVoxelsPerSide())
	}
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `{}`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestLoadTuningConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad counter", `{"counter_to_reset": 0}`},
		{"bad connectivity", `{"neighbor_connectivity": 5}`},
		{"bad voxel size", `{"voxel_size": -0.2}`},
		{"bad truncation", `{"truncation_distance": 0}`},
		{"malformed json", `{"counter_to_reset":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "bad.json", tc.body)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEmptyTuningConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config invalid: %v", err)
	}

	ic := cfg.IntegratorConfig()
	if ic.TruncationDistance != 2*cfg.GetVoxelSize() {
		t.Errorf("TruncationDistance = %g, want %g", ic.TruncationDistance, 2*cfg.GetVoxelSize())
	}
	if ic.MaxWeight != 100 {
		t.Errorf("MaxWeight = %g, want 100", ic.MaxWeight)
	}
}

// TestDefaultsFileMatchesEngineDefaults pins the shipped defaults file
// to the compiled-in defaults so they cannot drift apart silently.
func TestDefaultsFileMatchesEngineDefaults(t *testing.T) {
	cfg, err := LoadTuningConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("defaults file unreadable: %v", err)
	}
	mc := cfg.MotionConfig()

	want := map[string]struct{ got, want int }{
		"counter_to_reset": {mc.CounterToReset, 150},
		"temporal_buffer":  {mc.TemporalBuffer, 2},
		"burn_in_period":   {mc.BurnInPeriod, 5},
		"connectivity":     {mc.NeighborConnectivity, 18},
		"num_threads":      {mc.NumThreads, 4},
		"min_points":       {mc.MinClusterPoints, 10},
	}
	for name, v := range want {
		if v.got != v.want {
			t.Errorf("%s = %d, want %d", name, v.got, v.want)
		}
	}
	if mc.TsdfOccupancyThreshold != 0.3 {
		t.Errorf("tsdf_occupancy_threshold = %g, want 0.3", mc.TsdfOccupancyThreshold)
	}
	if cfg.GetVoxelSize() != 0.2 || cfg.GetVoxelsPerSide() != 16 {
		t.Errorf("map geometry = (%g, %d), want (0.2, 16)", cfg.GetVoxelSize(), cfg.GetVoxelsPerSide())
	}
}
