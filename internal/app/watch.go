package app

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/0x6d6e647a/rpmconf/internal/scanner"
	"github.com/0x6d6e647a/rpmconf/internal/watcher"
)

var (
	watchExclude []string
	watchRoot    string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Report new artifact files as upgrades create them",
		Long: `Watch the configuration directories and report every .rpmnew, .rpmsave
or .rpmorig file the moment a package upgrade creates it. Useful while
running a large upgrade in another terminal: when the watch reports
artifacts, run 'rpmconf --all' to resolve them.

Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringArrayVarP(&watchExclude, "exclude", "x", nil, "path to exclude from watching (repeatable)")
	watchCmd.Flags().StringVarP(&watchRoot, "root", "r", "", "alternate install root")
}

func runWatch(cmd *cobra.Command, args []string) error {
	sc := &scanner.Scanner{
		Root:    watchRoot,
		Exclude: watchExclude,
		Out:     os.Stdout,
	}
	dirs, err := sc.Directories()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return fmt.Errorf("nothing to watch")
	}

	w, err := watcher.New(os.Stdout)
	if err != nil {
		return err
	}
	if err := w.Start(dirs); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	signal.Stop(sig)

	fmt.Println()
	return w.Stop()
}
