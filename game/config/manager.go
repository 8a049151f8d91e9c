package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
	"github.com/wricardo/mcp-training/merge2048/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the preset used when a session names none
const DefaultConfigName = "classic"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// presetExtensions lists the file extensions searched, in lookup order
var presetExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles rule preset loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, errors.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, errors.WithMessage(err, "failed to load default config")
	}

	return m, nil
}

// Dir returns the directory presets are read from
func (m *Manager) Dir() string {
	return m.configDir
}

// LoadConfig loads a preset by name. The name may carry a .json, .yaml or .yml
// extension; without one every extension is tried in that order.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)
	if err := checkConfigID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.findPresetFile(name)
	if err != nil {
		// classic is built in when the directory does not provide it
		if id == DefaultConfigName && m.defaultConfig != nil && m.defaultConfig.Name == DefaultConfigName {
			return m.defaultConfig, nil
		}
		return nil, err
	}

	config, err := decodePresetFile(path)
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	return config, nil
}

// ListConfigs returns information about every valid preset in the directory
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config directory")
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid configs
			continue
		}
		seen[id] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:     entry.Name(),
			ConfigID:     id,
			Name:         config.Name,
			Description:  config.Description,
			Dimension:    config.Dimension,
			WinningValue: config.WinningValue,
		})
	}

	if !seen[DefaultConfigName] {
		def := m.GetDefault()
		if def != nil && def.Name == DefaultConfigName {
			configs = append([]*service.ConfigInfo{{
				ConfigID:     DefaultConfigName,
				Name:         def.Name,
				Description:  def.Description,
				Dimension:    def.Dimension,
				WinningValue: def.WinningValue,
			}}, configs...)
		}
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached preset and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// SaveConfig validates config and writes it to <name>.json
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id := configID(name)
	if err := checkConfigID(id); err != nil {
		return err
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	configPath := filepath.Join(m.configDir, id+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	saved := *config
	m.mu.Lock()
	m.configs[id] = &saved
	m.mu.Unlock()

	return nil
}

// loadDefaultConfig loads classic, falling back to the first valid preset and
// finally to a built-in classic board
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.setDefault(createMinimalConfig())
			return nil
		}

		config, err = m.LoadConfig(configs[0].ConfigID)
		if err != nil {
			m.setDefault(createMinimalConfig())
			return nil
		}
	}

	m.setDefault(config)
	return nil
}

func (m *Manager) setDefault(config *engine.GameConfig) {
	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// findPresetFile resolves a preset name to an existing file in the config directory
func (m *Manager) findPresetFile(name string) (string, error) {
	candidates := []string{name}
	if !isPresetFile(name) {
		candidates = candidates[:0]
		for _, ext := range presetExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		path := filepath.Join(m.configDir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", errors.WithMessagef(ErrConfigNotFound, "preset %q", configID(name))
}

// decodePresetFile reads and validates one preset, choosing the decoder by extension
func decodePresetFile(path string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config, err := decodePreset(path, data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	return config, nil
}

func decodePreset(path string, data []byte) (*engine.GameConfig, error) {
	var config engine.GameConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse yaml")
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse json")
		}
	}
	return &config, nil
}

// createMinimalConfig builds the classic preset when no file provides one
func createMinimalConfig() *engine.GameConfig {
	config := engine.DefaultConfig()
	config.Name = DefaultConfigName
	return config
}

func isPresetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range presetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// configID strips a preset extension from a file or preset name
func configID(name string) string {
	if isPresetFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func checkConfigID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.Wrapf(ErrInvalidConfig, "invalid preset name %q", id)
	}
	return nil
}
