package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gh-nvat/repo-contractchk/src/pkg/config"
	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

// Run modes.
const (
	RunModeLocal  = "local"
	RunModeGitHub = "github"
)

// Output formats.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// StrictEnv escalates warnings to failures when set to a truthy value,
// regardless of flags or configuration.
const StrictEnv = "CONTRACT_STRICT"

// DefaultTimeout bounds a whole remote-backed run.
const DefaultTimeout = 30 * time.Second

type Options struct {
	// Run mode
	RunMode string // "github" or "local"
	Debug   bool

	// Common options
	Root        string // repository root for file checks and tool config
	ConfigPath  string // contract file path
	Format      string
	Quiet       bool // suppress report output, exit code only
	Strict      bool
	Rules       []string
	WithProfile bool // merge the declared profile

	// Validate options
	RequireProfile bool // validate --with-profile: missing profile is fatal

	// GitHub mode options
	GhRepo       string // explicit owner/repo, resolved from env/git otherwise
	GhToken      string
	RemoteForced bool // --remote was given explicitly

	// Policy options
	PoliciesPath string

	Timeout     time.Duration
	Concurrency int

	// Tracing options
	OutputDir         string
	EnableExportTrace bool // write finished spans to trace.json under OutputDir

	// Writer receives all report output; defaults to stdout.
	Writer io.Writer
}

// knownRules lists every rule family, in evaluation order.
var knownRules = []string{models.RuleRequiredFiles, models.RuleBranchProtection, models.RulePolicy}

// ParseRules splits a comma-separated rule filter. Entries naming no
// known rule family are dropped rather than rejected, so older contract
// files keep working against newer rule sets.
func ParseRules(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var rules []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		for _, known := range knownRules {
			if entry == known {
				rules = append(rules, entry)
				break
			}
		}
	}
	return rules
}

// ApplyConfig fills unset options from the tool configuration file.
// Flags always win; only zero-valued fields are touched.
func (o *Options) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if o.ConfigPath == "" && cfg.Default.Config != "" {
		o.ConfigPath = cfg.Default.Config
	}
	if o.Format == "" && cfg.Default.Format != "" {
		o.Format = cfg.Default.Format
	}
	if cfg.Default.Strict {
		o.Strict = true
	}
	if len(o.Rules) == 0 && len(cfg.Check.Rules) > 0 {
		o.Rules = ParseRules(strings.Join(cfg.Check.Rules, ","))
	}
	if o.PoliciesPath == "" && cfg.Check.PoliciesDir != "" {
		o.PoliciesPath = cfg.Check.PoliciesDir
	}
	if o.GhToken == "" && cfg.GitHub.Token != "" {
		o.GhToken = cfg.GitHub.Token
	}
	if o.GhRepo == "" && cfg.GitHub.Repo != "" {
		o.GhRepo = cfg.GitHub.Repo
	}
}

// ResolveStrict applies the environment escalation on top of flags and
// configuration.
func (o *Options) ResolveStrict() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(StrictEnv))) {
	case "1", "true", "yes", "on":
		o.Strict = true
	}
}

// Validate checks option consistency before a run starts.
func (o *Options) Validate() error {
	switch o.Format {
	case "", FormatHuman, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want human, json, or yaml)", o.Format)
	}
	switch o.RunMode {
	case RunModeLocal, RunModeGitHub:
	default:
		return fmt.Errorf("unknown run mode %q", o.RunMode)
	}
	if o.ConfigPath == "" {
		return fmt.Errorf("contract file path is required")
	}
	return nil
}

// EffectiveFormat returns the output format with the default applied.
func (o *Options) EffectiveFormat() string {
	if o.Format == "" {
		return FormatHuman
	}
	return o.Format
}

// EffectiveTimeout returns the run timeout with the default applied.
func (o *Options) EffectiveTimeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
