package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

// ValidationResult captures the outcome of validating a single preset file.
// If Valid is true, Notes contains informational messages; Errors holds the
// problems that were found otherwise.
type ValidationResult struct {
	File   string   `json:"file"`
	Name   string   `json:"name,omitempty"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
	Notes  []string `json:"notes,omitempty"`
}

// ValidateDir validates every preset file in dir. Files are reported in
// directory order; an error is returned only when dir cannot be read.
func ValidateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config directory %s", dir)
	}

	var results []ValidationResult
	ids := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}

		result := ValidateFile(filepath.Join(dir, entry.Name()))

		id := configID(entry.Name())
		if other, dup := ids[id]; dup {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("preset id %q is also provided by %s", id, other))
		} else {
			ids[id] = entry.Name()
		}

		results = append(results, result)
	}

	return results, nil
}

// ValidateFile decodes and validates a single preset file
func ValidateFile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := decodePreset(path, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Name = config.Name

	if err := engine.ValidateGameConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Notes = append(result.Notes,
		fmt.Sprintf("Board: %dx%d", config.Dimension, config.Dimension),
		fmt.Sprintf("Winning tile: %d", config.WinningValue),
	)

	messages := map[string]string{
		"welcome":   config.Messages.Welcome,
		"won":       config.Messages.Won,
		"lost":      config.Messages.Lost,
		"no_change": config.Messages.NoChange,
	}
	for _, key := range []string{"welcome", "won", "lost", "no_change"} {
		if messages[key] == "" {
			result.Notes = append(result.Notes, fmt.Sprintf("Message %s not set, default text is used", key))
		}
	}

	return result
}
