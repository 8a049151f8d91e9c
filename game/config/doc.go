// Package config provides rule preset management for the merge puzzle.
//
// The config package handles:
//   - Loading presets from JSON and YAML files
//   - Preset validation before anything is cached
//   - Default preset management
//   - Preset discovery and listing
//
// Preset Format:
//
// Presets live in a single directory as *.json, *.yaml or *.yml files. The
// file name without extension is the preset id used for session creation.
// Each preset defines:
//   - dimension: side length of the square board (2..16)
//   - winning_value: the tile that wins the game, a power of two >= 4
//   - messages: welcome, won, lost and no_change texts; blanks get defaults
//
// Example (YAML):
//
//	name: mini
//	description: Small board, short game
//	dimension: 3
//	winning_value: 256
//	messages:
//	  won: 256 reached
//
// Default Preset:
//
// "classic" (4x4, played to 2048) is the default. When the directory has no
// classic file the manager falls back to the first valid preset, and to a
// built-in classic board when there is none.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("mini")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// ValidateDir checks a whole directory without touching any cache; the
// validate subcommand prints its results.
package config
