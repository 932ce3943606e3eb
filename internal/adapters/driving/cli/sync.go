package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync [repository]",
	Short: "Synchronise the catalog with the market repositories",
	Long: `Reconciles the catalog with the tracked market repositories.
If a repository is provided, only that repository is synchronised.
Otherwise, all tracked repositories are synchronised.

Runs are incremental from the last processed commit. Use --force to
ignore the stored cursor and rebuild the repository's products in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status [repository]",
	Short: "Show the sync state of the tracked repositories",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Ignore the stored cursor and run a full sync")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()

	if len(args) > 0 {
		repository := args[0]
		cmd.Printf("Synchronising repository: %s...\n", repository)

		result, err := syncOrchestrator.Sync(ctx, repository, driving.SyncOptions{Force: syncForce})
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printSyncResult(cmd, result)
		return nil
	}

	if syncForce {
		return errors.New("--force requires a repository")
	}

	cmd.Println("Synchronising all repositories...")

	results, err := syncOrchestrator.SyncAll(ctx)
	for i := range results {
		printSyncResult(cmd, &results[i])
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Println(render(cmd.OutOrStdout(), successStyle, "All repositories synchronised successfully."))
	return nil
}

func printSyncResult(cmd *cobra.Command, r *domain.SyncResult) {
	out := cmd.OutOrStdout()
	cmd.Printf("%s %s (%s) %s..%s\n",
		render(out, titleStyle, r.Repository),
		r.Mode,
		r.Duration.Round(time.Millisecond),
		shortRef(r.FromSHA),
		shortRef(r.ToSHA),
	)
	if r.Mode == domain.SyncModeNoop {
		return
	}
	cmd.Printf("  upserted: %d  unlisted: %d  skipped: %d\n", r.Upserted, r.Unlisted, r.Skipped)
	if r.MetadataErrors > 0 {
		cmd.Println(render(out, warningStyle, fmt.Sprintf("  metadata errors: %d", r.MetadataErrors)))
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	repos := args
	if len(repos) == 0 {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		repos = settings.GitHub.Repositories
	}

	out := cmd.OutOrStdout()
	for _, repo := range repos {
		status, err := syncOrchestrator.Status(cmd.Context(), repo)
		if err != nil {
			return fmt.Errorf("failed to get status of %s: %w", repo, err)
		}

		cmd.Println(render(out, titleStyle, status.Repository))
		cmd.Printf("  %s %s\n", render(out, labelStyle, "Phase:   "), status.Phase)
		if status.Cursor != nil {
			cmd.Printf("  %s %s (%s)\n", render(out, labelStyle, "Cursor:  "),
				shortRef(status.Cursor.SHA), status.Cursor.ProcessedAt.Format("2006-01-02 15:04:05"))
		} else {
			cmd.Printf("  %s never synced\n", render(out, labelStyle, "Cursor:  "))
		}
		if status.LastResult != nil {
			cmd.Printf("  %s %s, %d upserted\n", render(out, labelStyle, "Last run:"),
				status.LastResult.Mode, status.LastResult.Upserted)
		}
		if status.LastError != "" {
			cmd.Printf("  %s %s\n", render(out, labelStyle, "Error:   "), render(out, errorStyle, status.LastError))
		}
	}
	return nil
}

// shortRef abbreviates a commit SHA for display.
func shortRef(sha string) string {
	switch {
	case sha == "":
		return "-"
	case len(sha) > 7:
		return sha[:7]
	default:
		return sha
	}
}
