package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gh-nvat/repo-contractchk/src/internal/runner"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		var coded *exitError
		if errors.As(err, &coded) {
			if coded.message != "" {
				fmt.Fprintln(os.Stderr, coded.message)
			}
			os.Exit(coded.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitExecutionError)
	}
}

// newRootCmd creates the root command and its subcommand tree.
func newRootCmd() *cobra.Command {
	opts := &runner.Options{}
	var rulesFlag string
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "repo-contractchk",
		Short: "Repository contract checker",
		Long: `repo-contractchk validates a repository against a declarative contract:
required files on disk and branch protection rules on the hosting service.
Contracts can pull in a language profile that is merged into the base document.`,
		Version:       fmt.Sprintf("%s (built: %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Rules = runner.ParseRules(rulesFlag)
			opts.Timeout = time.Duration(timeoutSeconds) * time.Second
			// A --remote that points away from the working tree means the
			// file rules have no tree to check.
			opts.RemoteForced = cmd.Flags().Changed("remote") && !cmd.Flags().Changed("root")
			return prepareOptions(cmd, opts)
		},
	}

	// Common flags
	cmd.PersistentFlags().StringVar(&opts.Root, "root", ".", "Repository root")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Contract file path (default: contract.yml under the root)")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: human, json, or yaml")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress report output, exit code only")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "Treat warnings as failures")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Debug logging")

	// Check/diff flags
	cmd.PersistentFlags().StringVar(&opts.RunMode, "run-mode", runner.RunModeGitHub, "Run mode: github or local")
	cmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Comma-separated rule families to evaluate (required_files,branch_protection,policy)")
	cmd.PersistentFlags().StringVar(&opts.GhRepo, "remote", "", "GitHub repository (owner/repo or URL) [github mode]")
	cmd.PersistentFlags().StringVar(&opts.GhToken, "token", "", "GitHub token (GH_TOKEN and GITHUB_TOKEN take precedence)")
	cmd.PersistentFlags().StringVar(&opts.PoliciesPath, "policies-path", "", "Path to custom rego policies directory")
	cmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 30, "Remote call timeout in seconds")
	cmd.PersistentFlags().StringVar(&opts.OutputDir, "output-dir", "./output", "Directory for exported artifacts")
	cmd.PersistentFlags().BoolVar(&opts.EnableExportTrace, "enable-export-trace", false, "Export a span trace (json file to output dir)")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newDiffCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newSchemaCmd(opts))
	cmd.AddCommand(newApplyCmd(opts))

	return cmd
}

func newCheckCmd(opts *runner.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the repository against its contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts)
		},
	}
}

func newDiffCmd(opts *runner.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show differences between the contract and actual state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), opts)
		},
	}
}

func newValidateCmd(opts *runner.Options) *cobra.Command {
	var withProfile bool
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a contract file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(opts, path, withProfile)
		},
	}
	cmd.Flags().BoolVar(&withProfile, "with-profile", false, "Also validate the declared profile file; missing profile is an error")
	return cmd
}

func newInitCmd(opts *runner.Options) *cobra.Command {
	var profile string
	var fromRepo, force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a starter contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, profile, fromRepo, force)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Also scaffold a profile file (e.g. go, rust)")
	cmd.Flags().BoolVar(&fromRepo, "from-repo", false, "Seed required_files from files present in the repository")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func newSchemaCmd(opts *runner.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the contract JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema()
		},
	}
}

func newApplyCmd(opts *runner.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the contract to the repository (not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return &exitError{
				code:    ExitExecutionError,
				message: "apply is not implemented: this tool reports drift, it does not write to the repository",
			}
		},
	}
}
