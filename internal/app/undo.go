package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Reverse a journaled resolution",
	Long: `Restore the file a past resolution displaced, from the backup taken at
resolution time. For resolutions that installed the maintainer's version,
the artifact is recreated first so the conflict can be resolved again.

Find IDs with 'rpmconf history'.`,
	Args: cobra.ExactArgs(1),
	RunE: runUndo,
}

func runUndo(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid resolution ID %q", args[0])
	}

	st, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer st.Close()

	r, err := st.Undo(id)
	if err != nil {
		return err
	}

	fmt.Printf("Restored %s from %s\n", r.Displaced, r.Backup)
	return nil
}
