package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// KmuxDir is the directory name for kmux metadata
	KmuxDir = ".kmux"
	// ConfigFile is the filename for the kmux configuration
	ConfigFile = "config.yaml"
)

// Manager handles kmux configuration
type Manager struct {
	projectRoot string
	configPath  string
}

// NewManager creates a new configuration manager
func NewManager(projectRoot string) *Manager {
	return &Manager{
		projectRoot: projectRoot,
		configPath:  filepath.Join(projectRoot, KmuxDir, ConfigFile),
	}
}

// Load reads the configuration from disk
func (m *Manager) Load() (*Config, error) {
	config, err := LoadWithValidation(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("kmux not initialized. Run 'kmux init' first")
		}
		return nil, err
	}

	// Apply defaults after validation
	applyDefaults(config)

	return config, nil
}

// Save writes the configuration to disk
func (m *Manager) Save(config *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// IsInitialized checks if kmux has been initialized in the project
func (m *Manager) IsInitialized() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// GetProjectRoot returns the project root directory
func (m *Manager) GetProjectRoot() string {
	return m.projectRoot
}

// GetKmuxDir returns the .kmux directory path
func (m *Manager) GetKmuxDir() string {
	return filepath.Join(m.projectRoot, KmuxDir)
}

// GetSessionsDir returns the local session records directory
func (m *Manager) GetSessionsDir() string {
	return filepath.Join(m.projectRoot, KmuxDir, "sessions")
}

// ResolveGateway returns the named gateway, or the default one when
// name is empty.
func (c *Config) ResolveGateway(name string) (Gateway, error) {
	if name == "" {
		name = c.DefaultGateway
	}
	if name == "" {
		return Gateway{}, fmt.Errorf("no gateway specified and no default configured")
	}
	gw, ok := c.Gateways[name]
	if !ok {
		return Gateway{}, fmt.Errorf("gateway not found: %s", name)
	}
	return gw, nil
}

// FindProjectRoot searches for the project root by looking for .kmux
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree looking for .kmux
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, KmuxDir)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("kmux not initialized. Run 'kmux init' first")
		}
		dir = parent
	}
}
