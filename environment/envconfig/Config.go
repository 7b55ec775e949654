// Package envconfig provides configuration structs for constructing
// environments with default parameters. Environment configurations in
// this package are JSON serializable.
package envconfig

import (
	"encoding/json"
	"fmt"

	env "github.com/samuelfneumann/goracer/environment"
	"github.com/samuelfneumann/goracer/environment/baseline"
	"github.com/samuelfneumann/goracer/environment/racing"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Racing   EnvName = "Racing"
	Baseline EnvName = "Baseline"
)

// Config implements a specific configuration of a specific
// environment variant. It is immutable after construction.
type Config struct {
	Environment EnvName `json:"environment"`

	// Extent of the observation crop
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// FrameBuffer selects headless operation: rendering happens to an
	// offscreen surface only, with no visible window
	FrameBuffer bool `json:"frame_buffer"`

	// AgentActive selects autonomous-agent control, disabling the
	// real-time wait and manual key polling
	AgentActive bool `json:"agent_active"`

	// Track options, meaningful for the racing variant only
	TrackFile  string `json:"track_file,omitempty"`
	TrackCache bool   `json:"track_cache"`
	TrackSave  bool   `json:"track_save"`
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, frameWidth, frameHeight int, frameBuffer,
	agentActive bool, trackFile string, trackCache, trackSave bool) Config {
	return Config{
		Environment: envName,
		FrameWidth:  frameWidth,
		FrameHeight: frameHeight,
		FrameBuffer: frameBuffer,
		AgentActive: agentActive,
		TrackFile:   trackFile,
		TrackCache:  trackCache,
		TrackSave:   trackSave,
	}
}

// Load parses a Config from JSON
func Load(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("load: could not parse config: %v", err)
	}
	return config, nil
}

// Create returns the environment described by the Config. The caller
// owns the returned environment and must Release it.
func (c Config) Create(seed uint64) (env.Environment, error) {
	switch c.Environment {
	case Racing:
		return racing.New(c.FrameWidth, c.FrameHeight, c.FrameBuffer,
			c.AgentActive, c.TrackFile, c.TrackCache, c.TrackSave, seed)

	case Baseline:
		return baseline.New(c.FrameWidth, c.FrameHeight, seed)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Environment)
}
