package config

import (
	"fmt"
	"os"

	"edu-arcade/internal/game"

	"gopkg.in/yaml.v3"
)

// Tuning is the game configuration of every mode. A tuning file only needs the
// values it changes; everything else keeps game.DefaultConfig.
//
//	snowmen:
//	  killTarget: 15
//	  spawn:
//	    minDelay: 1s
//	eduspace:
//	  quiz:
//	    wrongEnergyPenalty: 0
type Tuning map[game.Mode]game.Config

// DefaultTuning returns the built-in tuning of every mode
func DefaultTuning() Tuning {
	return Tuning{
		game.ModeSnowmen:  game.DefaultConfig(game.ModeSnowmen),
		game.ModeEduSpace: game.DefaultConfig(game.ModeEduSpace),
	}
}

// For returns the config of a mode, falling back to the defaults
func (t Tuning) For(mode game.Mode) game.Config {
	if cfg, ok := t[mode]; ok {
		return cfg
	}
	return game.DefaultConfig(mode)
}

// LoadTuning reads a tuning file. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return DefaultTuning(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file %s: %w", path, err)
	}
	t, err := ParseTuning(data)
	if err != nil {
		return nil, fmt.Errorf("invalid tuning in %s: %w", path, err)
	}
	return t, nil
}

// ParseTuning overlays YAML onto the default tuning and validates the result
func ParseTuning(data []byte) (Tuning, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}

	t := DefaultTuning()
	for name, node := range raw {
		mode, err := game.ParseMode(name)
		if err != nil {
			return nil, err
		}
		cfg := t[mode]
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// the section key decides the mode
		cfg.Mode = mode
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t[mode] = cfg
	}
	return t, nil
}
