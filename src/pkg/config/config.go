// Package config loads the optional per-repository tool configuration
// file. The file sets defaults that command-line flags override.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "config",
})

// Filename is the tool configuration file looked up in the repository
// root.
const Filename = ".contractchk.yaml"

// Config is the decoded tool configuration.
type Config struct {
	Default DefaultSection `yaml:"default"`
	Check   CheckSection   `yaml:"check"`
	GitHub  GitHubSection  `yaml:"github"`
}

// DefaultSection holds defaults shared by every subcommand.
type DefaultSection struct {
	// Config is the contract file path, relative to the repository root.
	Config string `yaml:"config,omitempty"`
	// Format is the default output format (human, json, yaml).
	Format string `yaml:"format,omitempty"`
	// Strict escalates warnings to failures by default.
	Strict bool `yaml:"strict,omitempty"`
}

// CheckSection holds check/diff defaults.
type CheckSection struct {
	// Rules restricts the rule families evaluated by default.
	Rules []string `yaml:"rules,omitempty"`
	// PoliciesDir points at the custom rego policy directory.
	PoliciesDir string `yaml:"policies_dir,omitempty"`
}

// GitHubSection holds remote-access defaults. Token is a fallback only;
// GH_TOKEN and GITHUB_TOKEN take precedence.
type GitHubSection struct {
	Token string `yaml:"token,omitempty"`
	Repo  string `yaml:"repo,omitempty"`
}

// Load reads the configuration file under root. A missing file is not
// an error; the zero Config is returned.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logger.WithField("path", path).Debug("Loaded tool configuration")
	return &cfg, nil
}
