package contract

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "contract",
})

// LoadOptions controls contract loading and profile resolution.
type LoadOptions struct {
	ConfigPath string
	// IncludeProfile merges the profile named by the base document, when
	// one is declared.
	IncludeProfile bool
	// RequireProfile makes a missing profile file a hard error instead of
	// an advisory. Used by validate --with-profile.
	RequireProfile bool
}

// Loaded is the outcome of loading: the merged contract plus any
// non-fatal advisories raised along the way.
type Loaded struct {
	BasePath    string
	ProfilePath string
	Contract    *models.Contract
	Advisories  []models.Advisory
}

// Load reads the base contract, resolves and merges its profile when
// requested, and returns the merged document. A declared profile whose
// file does not exist degrades to the base contract alone with an E021
// advisory; it never fails the run unless RequireProfile is set.
func Load(opts LoadOptions) (*Loaded, error) {
	base, err := decodeFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{
		BasePath: opts.ConfigPath,
		Contract: base,
	}

	if !opts.IncludeProfile || base.Profile == "" {
		return loaded, nil
	}

	profilePath := ProfilePathFor(opts.ConfigPath, base.Profile)
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		if opts.RequireProfile {
			return nil, fmt.Errorf("profile file not found: %s", profilePath)
		}
		logger.WithField("profile", base.Profile).WithField("path", profilePath).
			Warn("Profile file not found, proceeding with base contract only")
		loaded.Advisories = append(loaded.Advisories, models.Advisory{
			Code:    models.CodeProfileNotFound,
			Message: fmt.Sprintf("profile %q not found at %s, checked base contract only", base.Profile, profilePath),
		})
		return loaded, nil
	}

	profile, err := decodeFile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", base.Profile, err)
	}

	loaded.ProfilePath = profilePath
	loaded.Contract = Merge(base, profile)
	return loaded, nil
}

func decodeFile(path string) (*models.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract file %s: %w", path, err)
	}
	var doc models.Contract
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse contract file %s: %w", path, err)
	}
	return &doc, nil
}

// ProfilePathFor resolves the conventional profile location next to the
// base contract: contract.<profile>.yml.
func ProfilePathFor(basePath, profile string) string {
	dir := filepath.Dir(basePath)
	return filepath.Join(dir, fmt.Sprintf("contract.%s.yml", profile))
}
