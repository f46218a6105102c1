package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Identity is an optional saved profile so a participant does not have to
// repeat --name/--context/--presentation on every invocation.
type Identity struct {
	Name         string `yaml:"name"`
	Context      string `yaml:"context"`
	Presentation string `yaml:"presentation"`
}

// identityPath returns the profile location: AGENTCHAT_IDENTITY if set,
// otherwise ~/.config/agentchat/identity.yaml.
func identityPath() (string, error) {
	if env := os.Getenv("AGENTCHAT_IDENTITY"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentchat", "identity.yaml"), nil
}

// loadIdentity reads the saved profile, if any. A missing file is not an
// error — callers fall back to command-line flags.
func loadIdentity() (*Identity, error) {
	path, err := identityPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read identity profile: %w", err)
	}

	var id Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("parse identity profile %s: %w", path, err)
	}
	return &id, nil
}

// resolveName returns explicitName if set, otherwise falls back to the
// saved identity profile's name. Empty with no profile means the caller
// must report a usage error.
func resolveName(explicitName string) string {
	if explicitName != "" {
		return explicitName
	}
	id, err := loadIdentity()
	if err != nil || id == nil {
		return ""
	}
	return id.Name
}

// saveIdentity writes profile to disk, creating its parent directory.
func saveIdentity(id Identity) error {
	path, err := identityPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create identity directory: %w", err)
	}
	data, err := yaml.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write identity profile: %w", err)
	}
	return nil
}
