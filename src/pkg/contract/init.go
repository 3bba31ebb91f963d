package contract

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

const schemaURL = "https://gh-nvat.github.io/repo-contractchk/schemas/v1.json"

// InitOptions controls contract scaffolding.
type InitOptions struct {
	OutputPath string
	Profile    string
	// FromRepo seeds required_files from files actually present in root
	// instead of the default template.
	FromRepo bool
	Force    bool
}

// InitOutcome lists the files written by Init.
type InitOutcome struct {
	Created []string
}

// AlreadyExistsError is returned when the target file exists and Force
// is not set.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

type contractTemplate struct {
	Schema        string                 `yaml:"$schema,omitempty"`
	Version       string                 `yaml:"version"`
	Profile       string                 `yaml:"profile,omitempty"`
	Language      string                 `yaml:"language,omitempty"`
	RequiredFiles []requiredFileTemplate `yaml:"required_files,omitempty"`
}

type requiredFileTemplate struct {
	Path     string          `yaml:"path"`
	Severity models.Severity `yaml:"severity,omitempty"`
}

// Init writes a starter contract.yml, plus a contract.<profile>.yml when
// a profile is requested.
func Init(root string, opts InitOptions) (*InitOutcome, error) {
	outcome := &InitOutcome{}

	var files []requiredFileTemplate
	if opts.FromRepo {
		files = requiredFilesFromRepo(root)
	} else {
		files = defaultRequiredFiles()
	}

	template := contractTemplate{
		Schema:        schemaURL,
		Version:       "1.0",
		Profile:       opts.Profile,
		RequiredFiles: files,
	}
	if err := writeYAML(opts.OutputPath, template, opts.Force); err != nil {
		return nil, err
	}
	outcome.Created = append(outcome.Created, opts.OutputPath)

	if opts.Profile != "" {
		profilePath := ProfilePathFor(opts.OutputPath, opts.Profile)
		profileTemplate := contractTemplate{
			Schema:        schemaURL,
			Version:       "1.0",
			Language:      opts.Profile,
			RequiredFiles: profileRequiredFiles(opts.Profile),
		}
		if err := writeYAML(profilePath, profileTemplate, opts.Force); err != nil {
			return nil, err
		}
		outcome.Created = append(outcome.Created, profilePath)
	}

	return outcome, nil
}

func writeYAML(path string, value any, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return &AlreadyExistsError{Path: path}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func defaultRequiredFiles() []requiredFileTemplate {
	return []requiredFileTemplate{
		{Path: "README.md"},
		{Path: "LICENSE"},
		{Path: ".gitignore"},
		{Path: "AGENTS.md", Severity: models.SeverityInfo},
	}
}

func requiredFilesFromRepo(root string) []requiredFileTemplate {
	candidates := []requiredFileTemplate{
		{Path: "README.md"},
		{Path: "LICENSE"},
		{Path: "CONTRIBUTING.md", Severity: models.SeverityWarning},
		{Path: "CHANGELOG.md", Severity: models.SeverityWarning},
		{Path: "SECURITY.md", Severity: models.SeverityWarning},
		{Path: ".gitignore"},
		{Path: "AGENTS.md", Severity: models.SeverityInfo},
	}
	var present []requiredFileTemplate
	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(root, candidate.Path)); err == nil {
			present = append(present, candidate)
		}
	}
	return present
}

func profileRequiredFiles(profile string) []requiredFileTemplate {
	switch profile {
	case "go":
		return []requiredFileTemplate{
			{Path: "go.mod"},
			{Path: "cmd/**/main.go", Severity: models.SeverityWarning},
			{Path: ".golangci.yml", Severity: models.SeverityWarning},
		}
	case "rust":
		return []requiredFileTemplate{
			{Path: "Cargo.toml"},
			{Path: "src/main.rs", Severity: models.SeverityWarning},
			{Path: "rust-toolchain.toml", Severity: models.SeverityWarning},
		}
	default:
		return nil
	}
}
