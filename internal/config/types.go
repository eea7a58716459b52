// Package config provides configuration management for kmux projects.
package config

// Config represents the main kmux configuration
type Config struct {
	Version        string             `yaml:"version"`
	DefaultGateway string             `yaml:"defaultGateway,omitempty"`
	Gateways       map[string]Gateway `yaml:"gateways"`
	DataScience    DataScience        `yaml:"datascience,omitempty"`
	MCP            MCPConfig          `yaml:"mcp,omitempty"`
}

// Gateway represents one remote kernel gateway endpoint
type Gateway struct {
	// URL is the HTTP base URL of the gateway
	URL string `yaml:"url"`
	// Token is the auth token; leave empty for password or open servers
	Token string `yaml:"token,omitempty"`
	// PasswordAuth marks the server as password-protected
	PasswordAuth bool `yaml:"passwordAuth,omitempty"`
}

// DataScience holds the kernel behavior settings
type DataScience struct {
	// AllowKernelShutdown permits shutting down kernels on the server
	AllowKernelShutdown bool `yaml:"allowKernelShutdown"`
	// PreferredKernelID, when set, reuses this kernel instead of
	// launching a new one
	PreferredKernelID string `yaml:"preferredKernelId,omitempty"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	Transport TransportConfig `yaml:"transport"`
}

// TransportConfig represents MCP transport configuration
type TransportConfig struct {
	Type string     `yaml:"type"`
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig represents HTTP transport configuration
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DefaultConfig returns the default kmux configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Gateways: map[string]Gateway{
			"local": {
				URL: "http://localhost:8888",
			},
		},
		DefaultGateway: "local",
		DataScience: DataScience{
			AllowKernelShutdown: true,
		},
		MCP: MCPConfig{
			Transport: TransportConfig{
				Type: "stdio",
			},
		},
	}
}

// applyDefaults fills in values the user may omit
func applyDefaults(config *Config) {
	if config.Version == "" {
		config.Version = "1.0"
	}
	if config.DefaultGateway == "" && len(config.Gateways) == 1 {
		for name := range config.Gateways {
			config.DefaultGateway = name
		}
	}
	if config.MCP.Transport.Type == "" {
		config.MCP.Transport.Type = "stdio"
	}
}
