package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect and reset sync cursors",
	Long: `A sync cursor is the last commit of a tracked repository that the
catalog fully reflects. Resetting it makes the next sync run in full.`,
}

var cursorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sync cursors",
	Args:  cobra.NoArgs,
	RunE:  runCursorList,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset <repository>",
	Short: "Reset the sync cursor of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runCursorReset,
}

func init() {
	cursorCmd.AddCommand(cursorListCmd)
	cursorCmd.AddCommand(cursorResetCmd)
	rootCmd.AddCommand(cursorCmd)
}

func runCursorList(cmd *cobra.Command, _ []string) error {
	if cursorService == nil {
		return errors.New("cursor service not configured")
	}

	cursors, err := cursorService.ListCursors(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list cursors: %w", err)
	}

	if len(cursors) == 0 {
		cmd.Println("No repositories synced yet.")
		return nil
	}

	for _, c := range cursors {
		cmd.Printf("  %-24s %s  %s\n", c.Repository, c.SHA, c.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runCursorReset(cmd *cobra.Command, args []string) error {
	if cursorService == nil {
		return errors.New("cursor service not configured")
	}

	if err := cursorService.ResetCursor(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}

	cmd.Printf("Cursor of %s reset. The next sync runs in full.\n", args[0])
	return nil
}
