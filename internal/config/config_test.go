package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTown(t *testing.T, general, stations, lines string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "town: tiny\ngeneral:\n  pod_capacity: 3\n")
	town := filepath.Join(dir, "towns", "tiny")
	writeFile(t, filepath.Join(town, "general.yaml"), general)
	writeFile(t, filepath.Join(town, "stations.yaml"), stations)
	writeFile(t, filepath.Join(town, "lines.yaml"), lines)
	return filepath.Join(dir, "config.yaml")
}

const (
	tinyStations = `
- {id: 0, name: A, city: X, lat: 48.20, lon: 16.30, entrypoint_for: [U1]}
- {id: 1, name: B, city: X, lat: 48.20, lon: 16.31}
- {id: 2, name: C, city: X, lat: 48.20, lon: 16.32}
`
	tinyLines = `
- {name: U1, stations: [0, 1, 2], distances: [900, 900]}
`
)

func TestLoadAppliesOverrideAndDefaults(t *testing.T) {
	path := writeTown(t, "number_of_people: 7\npod_capacity: 40\n", tinyStations, tinyLines)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := cfg.Data.General
	if g.PodCapacity != 3 {
		t.Errorf("expected override pod_capacity 3, got %d", g.PodCapacity)
	}
	if g.NumberOfPeople != 7 {
		t.Errorf("expected number_of_people 7 from general.yaml, got %d", g.NumberOfPeople)
	}
	if g.PlatformGapSeconds != 30 || g.TicksPerSecond != 1 {
		t.Errorf("expected defaults for unset keys, got gap=%d tps=%v", g.PlatformGapSeconds, g.TicksPerSecond)
	}
	if g.LatMin >= 48.20 || g.LonMax <= 16.32 {
		t.Errorf("expected bounds fitted around stations, got %+v", g.Visual)
	}
	eps := cfg.Data.Entrypoints()
	if len(eps) != 1 || eps[0].Station != 0 || eps[0].Line.String() != "U1" {
		t.Errorf("unexpected entrypoints %+v", eps)
	}
	if _, err := cfg.Data.Network(); err != nil {
		t.Errorf("Network: %v", err)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.General.NumberOfPeople != 200 {
		t.Errorf("expected override of number_of_people to 200, got %d", cfg.Data.General.NumberOfPeople)
	}
	n, err := cfg.Data.Network()
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if len(n.Lines()) != len(cfg.Data.Lines) {
		t.Errorf("expected %d lines, got %d", len(cfg.Data.Lines), len(n.Lines()))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		general  string
		stations string
		lines    string
	}{
		{"zero capacity", "pod_capacity: 0\n", tinyStations, tinyLines},
		{"duplicate station", "{}", tinyStations + "- {id: 2, name: D, lat: 48.2, lon: 16.33}\n", tinyLines},
		{"unknown station", "{}", tinyStations, "- {name: U1, stations: [0, 9], distances: [100]}\n"},
		{"distance count", "{}", tinyStations, "- {name: U1, stations: [0, 1, 2], distances: [100]}\n"},
		{"circular distance count", "{}", tinyStations, "- {name: U1, stations: [0, 1, 2], distances: [100, 100], circular: true}\n"},
		{"bad line name", "{}", tinyStations, "- {name: X1, stations: [0, 1], distances: [100]}\n"},
		{"unknown entrypoint", "{}", "- {id: 0, name: A, lat: 48.2, lon: 16.3, entrypoint_for: [U7]}\n- {id: 1, name: B, lat: 48.2, lon: 16.31}\n", tinyLines},
	}
	for _, tt := range tests {
		general := tt.general
		if strings.Contains(general, "pod_capacity") {
			// config.yaml would otherwise override the broken value
			path := writeTown(t, general, tt.stations, tt.lines)
			writeFile(t, path, "town: tiny\n")
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
			}
			continue
		}
		if _, err := Load(writeTown(t, general, tt.stations, tt.lines)); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestLoadMissingTown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "town: nowhere\n")
	if _, err := Load(filepath.Join(dir, "config.yaml")); err == nil {
		t.Errorf("expected error for missing town directory")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := Load(writeTown(t, "{}", tinyStations, tinyLines))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Town != "tiny" || len(back.Data.Stations) != 3 || back.Data.General.PodCapacity != 3 {
		t.Errorf("unexpected round trip %+v", back)
	}
}

func TestProjection(t *testing.T) {
	v := Visual{ScreenWidth: 100, ScreenHeight: 50, LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 2}
	p := v.Projection()(1, 1)
	if p.X() != 50 || p.Y() != 0 {
		t.Errorf("expected (50, 0), got %v", p)
	}
}
