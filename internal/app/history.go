package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0x6d6e647a/rpmconf/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the journal of past resolutions",
	Long: `Show every recorded resolution: which file was converged, which side
won, and when. Each entry's ID can be passed to 'rpmconf undo' to restore
the displaced file from its backup.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer st.Close()

	resolutions, err := st.ListResolutions()
	if err != nil {
		return err
	}

	fmt.Print(output.RenderHistoryTable(resolutions))
	return nil
}
