// Package app wires the rpmconf command line: the root command runs
// the conflict-resolution pass, subcommands expose the resolution
// journal (history, undo) and the artifact watcher (watch).
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0x6d6e647a/rpmconf/internal/config"
	"github.com/0x6d6e647a/rpmconf/internal/merge"
	"github.com/0x6d6e647a/rpmconf/internal/resolve"
	"github.com/0x6d6e647a/rpmconf/internal/rpm"
)

const version = "1.0.0"

var (
	flagAll        bool
	flagClean      bool
	flagDiff       bool
	flagTest       bool
	flagUnattended string
	flagFrontend   string
	flagExclude    []string
	flagRoot       string
	flagSELinux    bool
	flagDryRun     bool
	flagConfig     string
	flagDBPath     string
	flagNoJournal  bool

	// RootCmd is the root command for rpmconf.
	RootCmd = &cobra.Command{
		Use:   "rpmconf [packages...]",
		Short: "Reconcile .rpmnew, .rpmsave and .rpmorig configuration files",
		Long: `rpmconf finds configuration files that RPM package upgrades left in a
conflicted state — a locally modified file next to a shipped .rpmnew, or a
forced upgrade that backed the local file up as .rpmsave/.rpmorig — and
drives each one to a single, intentional state.

For every conflict you can keep your version, take the maintainer's, view
a diff, or hand both files to an external merge tool. Identical pairs are
cleaned up silently, so repeated runs are idempotent.

Every destructive resolution is journaled with a backup of the displaced
file; use 'rpmconf history' and 'rpmconf undo' to inspect and reverse past
decisions.`,
		Example: `  # Check all installed packages interactively
  rpmconf --all

  # Check specific packages
  rpmconf postfix openssh-server

  # Resolve everything unattended, preferring the maintainer's files
  rpmconf --all --unattended maintainer

  # Audit differences without touching anything
  rpmconf --all --diff

  # Also find and delete orphaned artifacts
  rpmconf --all --clean

  # Use vimdiff for merging
  rpmconf --all --frontend vimdiff`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
)

func init() {
	RootCmd.Version = version

	RootCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "check configuration files of all installed packages")
	RootCmd.Flags().BoolVarP(&flagClean, "clean", "c", false, "find and delete orphaned artifact files after the run")
	RootCmd.Flags().BoolVarP(&flagDiff, "diff", "D", false, "non-interactive diff mode, useful to audit configs")
	RootCmd.Flags().BoolVarP(&flagTest, "test", "t", false, "only report files that need attention (exit status 5 if any)")
	RootCmd.Flags().StringVarP(&flagUnattended, "unattended", "u", "", "unattended mode: maintainer, your, or default")
	RootCmd.Flags().StringVarP(&flagFrontend, "frontend", "f", "", "merge frontend: vimdiff, gvimdiff, meld, diffuse, kdiff3, sdiff, env")
	RootCmd.Flags().StringArrayVarP(&flagExclude, "exclude", "x", nil, "path to exclude from the orphan scan (repeatable)")
	RootCmd.Flags().StringVarP(&flagRoot, "root", "r", "", "alternate install root")
	RootCmd.Flags().BoolVarP(&flagSELinux, "selinux", "Z", false, "display SELinux context of old and new files")
	RootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "show file operations without performing them")
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "configuration file path")
	RootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "journal database path (default: ~/.rpmconf/rpmconf.db)")
	RootCmd.Flags().BoolVar(&flagNoJournal, "no-journal", false, "do not record resolutions in the journal")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(undoCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// runOptions is the fully resolved configuration of one run: config
// file values overridden by flags.
type runOptions struct {
	packages   []string
	all        bool
	clean      bool
	diffOnly   bool
	testOnly   bool
	policy     resolve.Policy
	frontend   string
	exclude    []string
	root       string
	selinux    bool
	dryRun     bool
	journaling bool
}

// resolveOptions merges the config file with the command-line flags.
func resolveOptions(args []string) (*runOptions, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, err
	}

	policy, err := resolve.ParsePolicy(flagUnattended)
	if err != nil {
		return nil, err
	}

	frontend := cfg.Frontend
	if flagFrontend != "" {
		frontend = flagFrontend
	}
	if !merge.Known(frontend) {
		return nil, fmt.Errorf("unknown frontend %q: must be one of: vimdiff, gvimdiff, meld, diffuse, kdiff3, sdiff, env", frontend)
	}

	return &runOptions{
		packages:   args,
		all:        flagAll,
		clean:      flagClean,
		diffOnly:   flagDiff,
		testOnly:   flagTest,
		policy:     policy,
		frontend:   frontend,
		exclude:    append(append([]string{}, cfg.Exclude...), flagExclude...),
		root:       flagRoot,
		selinux:    flagSELinux || cfg.SELinux,
		dryRun:     flagDryRun,
		journaling: !flagNoJournal && !flagDryRun && !flagTest && !flagDiff,
	}, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !flagAll && !flagClean {
		fmt.Println("rpmconf: reconcile configuration files left behind by RPM upgrades")
		fmt.Println()
		fmt.Println("Run 'rpmconf --all' to check every installed package.")
		fmt.Println("Run 'rpmconf --help' for the full reference.")
		return nil
	}

	opts, err := resolveOptions(args)
	if err != nil {
		return err
	}
	return run(opts, rpm.New(opts.root), os.Stdout)
}
