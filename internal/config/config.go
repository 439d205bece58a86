// Package config loads the town description the simulator runs on: the
// top-level config.yaml selecting a town, and the town's general.yaml,
// stations.yaml and lines.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cxd309/transit-sim/internal/network"
)

// ErrInvalid is wrapped by every error caused by malformed configuration.
var ErrInvalid = errors.New("invalid configuration")

// Visual holds the parameters only the renderer uses.
type Visual struct {
	ScreenWidth   int     `yaml:"screen_width" json:"screen_width"`
	ScreenHeight  int     `yaml:"screen_height" json:"screen_height"`
	LatMin        float64 `yaml:"lat_min" json:"lat_min"`
	LatMax        float64 `yaml:"lat_max" json:"lat_max"`
	LonMin        float64 `yaml:"lon_min" json:"lon_min"`
	LonMax        float64 `yaml:"lon_max" json:"lon_max"`
	StationRadius float64 `yaml:"station_radius" json:"station_radius"`
	PodRadius     float64 `yaml:"pod_radius" json:"pod_radius"`
	PersonRadius  float64 `yaml:"person_radius" json:"person_radius"`
	LineWidth     float64 `yaml:"line_width" json:"line_width"`
	FPS           int     `yaml:"fps" json:"fps"`
	VSync         bool    `yaml:"vsync" json:"vsync"`
}

// General is general.yaml.
type General struct {
	NumberOfPeople      int     `yaml:"number_of_people" json:"number_of_people"`
	PodCapacity         int     `yaml:"pod_capacity" json:"pod_capacity"`
	TransitionTime      int     `yaml:"transition_time" json:"transition_time"`
	PodInStationSeconds int     `yaml:"pod_in_station_seconds" json:"pod_in_station_seconds"`
	PodsPerHour         int     `yaml:"pods_per_hour" json:"pods_per_hour"`
	ShufflePeople       bool    `yaml:"shuffle_people" json:"shuffle_people"`
	PlatformGapSeconds  int     `yaml:"platform_gap_seconds" json:"platform_gap_seconds"`
	TicksPerSecond      float64 `yaml:"ticks_per_second" json:"ticks_per_second"`
	Seed                uint64  `yaml:"seed" json:"seed"` // 0 picks a random seed

	Visual `yaml:",inline"`
}

// Station is one entry of stations.yaml.
type Station struct {
	ID            network.StationID `yaml:"id" json:"id"`
	Name          string            `yaml:"name" json:"name"`
	City          string            `yaml:"city" json:"city"`
	Lat           float64           `yaml:"lat" json:"lat"`
	Lon           float64           `yaml:"lon" json:"lon"`
	EntrypointFor []string          `yaml:"entrypoint_for,omitempty" json:"entrypoint_for,omitempty"`
}

// Line is one entry of lines.yaml.
type Line struct {
	Name      string              `yaml:"name" json:"name"`
	Stations  []network.StationID `yaml:"stations" json:"stations"`
	Distances []float64           `yaml:"distances" json:"distances"`
	Circular  bool                `yaml:"circular,omitempty" json:"circular,omitempty"`
}

// Town is everything below a town directory.
type Town struct {
	General  General   `yaml:"general" json:"general"`
	Stations []Station `yaml:"stations" json:"stations"`
	Lines    []Line    `yaml:"lines" json:"lines"`
}

// Config is the effective configuration of a run.
type Config struct {
	Town     string `yaml:"town" json:"town"`
	TownsDir string `yaml:"towns_dir" json:"towns_dir"`

	Data Town `yaml:",inline" json:"data"`
}

// Entrypoint asks for one pod of Line to start at Station.
type Entrypoint struct {
	Station network.StationID
	Line    network.LineName
}

// DefaultGeneral returns the parameters used for keys a general.yaml omits.
func DefaultGeneral() General {
	return General{
		NumberOfPeople:      100,
		PodCapacity:         50,
		TransitionTime:      10,
		PodInStationSeconds: 20,
		PlatformGapSeconds:  network.DefaultPodGap,
		TicksPerSecond:      1,
		Visual: Visual{
			ScreenWidth:   1280,
			ScreenHeight:  720,
			StationRadius: 6,
			PodRadius:     4,
			PersonRadius:  1.5,
			LineWidth:     3,
			FPS:           60,
		},
	}
}

type topLevel struct {
	Town     string    `yaml:"town"`
	TownsDir string    `yaml:"towns_dir"`
	General  yaml.Node `yaml:"general"`
}

// Load reads config.yaml at path and the town it selects. A relative
// towns_dir is resolved against the directory holding config.yaml. Keys in
// the optional general block of config.yaml override general.yaml.
func Load(path string) (*Config, error) {
	var top topLevel
	if err := decodeFile(path, &top); err != nil {
		return nil, err
	}
	if top.Town == "" {
		return nil, fmt.Errorf("%w: %s: town is not set", ErrInvalid, path)
	}
	if top.TownsDir == "" {
		top.TownsDir = "towns"
	}
	townsDir := top.TownsDir
	if !filepath.IsAbs(townsDir) {
		townsDir = filepath.Join(filepath.Dir(path), townsDir)
	}

	town, err := LoadTown(filepath.Join(townsDir, top.Town))
	if err != nil {
		return nil, err
	}
	if !top.General.IsZero() {
		if err := top.General.Decode(&town.General); err != nil {
			return nil, fmt.Errorf("%w: %s: general override: %v", ErrInvalid, path, err)
		}
	}

	cfg := &Config{Town: top.Town, TownsDir: top.TownsDir, Data: *town}
	cfg.Data.fitBounds()
	if err := cfg.Data.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTown reads general.yaml, stations.yaml and lines.yaml from dir.
// The result is not validated.
func LoadTown(dir string) (*Town, error) {
	t := &Town{General: DefaultGeneral()}
	if err := decodeFile(filepath.Join(dir, "general.yaml"), &t.General); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "stations.yaml"), &t.Stations); err != nil {
		return nil, err
	}
	if err := decodeFile(filepath.Join(dir, "lines.yaml"), &t.Lines); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
