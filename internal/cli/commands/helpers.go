package commands

import (
	"context"

	"github.com/aki/kmux/internal/auth"
	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/logger"
	"github.com/aki/kmux/internal/session"
)

// loadConfig finds the project root and loads its configuration
func loadConfig() (*config.Manager, *config.Config, error) {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, nil, err
	}
	manager := config.NewManager(projectRoot)
	cfg, err := manager.Load()
	if err != nil {
		return nil, nil, err
	}
	return manager, cfg, nil
}

// resolveGateway resolves a gateway by flag value, falling back to the
// configured default, and returns it with its connection info.
func resolveGateway(cfg *config.Config, name string) (string, config.Gateway, session.ConnectionInfo, error) {
	if name == "" {
		name = cfg.DefaultGateway
	}
	gw, err := cfg.ResolveGateway(name)
	if err != nil {
		return "", config.Gateway{}, session.ConnectionInfo{}, err
	}
	return name, gw, session.ConnectionInfo{BaseURL: gw.URL, Token: gw.Token}, nil
}

// newAdapter builds the session adapter for a gateway, attaching a
// password connector when the gateway is password-protected.
func newAdapter(ctx context.Context, cfg *config.Config, gw config.Gateway, password string) *session.Adapter {
	log := logger.FromContext(ctx)
	var connector session.PasswordConnector
	if gw.PasswordAuth && password != "" {
		connector = auth.NewPasswordLogin(password, log)
	}
	return session.NewAdapter(cfg.DataScience, connector, log)
}
