package telemetry

import "testing"

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitProfiling: %v", err)
	}
	if err := shutdown(); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitProfilingInvalidType(t *testing.T) {
	_, err := InitProfiling(ProfilingConfig{
		Enabled:      true,
		ProfileTypes: []string{"heap_fragmentation"},
	})
	if err == nil {
		t.Fatal("expected error for unknown profile type")
	}
}

func TestParseProfileType(t *testing.T) {
	for _, pt := range []string{
		"cpu", "alloc_objects", "alloc_space", "inuse_objects",
		"inuse_space", "goroutines", "mutex_count", "mutex_duration",
		"block_count", "block_duration",
	} {
		if _, err := parseProfileType(pt); err != nil {
			t.Errorf("parseProfileType(%q): %v", pt, err)
		}
	}
	if _, err := parseProfileType("nope"); err == nil {
		t.Error("expected error for unknown type")
	}
}
