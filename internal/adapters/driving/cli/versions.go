package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	versionsDev      bool
	versionsDesigner string
)

var versionsCmd = &cobra.Command{
	Use:   "versions <key>",
	Short: "List downloadable versions of a product",
	Long: `List the versions of a product's Maven artifacts, newest first, with
the download URL of every artifact published for each version.

Development versions (snapshots and pre-releases) are hidden unless --dev
is set. --designer keeps only releases of the designer's major version
that are not newer than it.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().BoolVar(&versionsDev, "dev", false, "Include development versions")
	versionsCmd.Flags().StringVar(&versionsDesigner, "designer", "", "Designer version to match")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	versions, err := versionService.GetVersionsForProduct(cmd.Context(), args[0], versionsDev, versionsDesigner)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(versions) == 0 {
		cmd.Printf("No versions found for %s.\n", args[0])
		return nil
	}

	out := cmd.OutOrStdout()
	for _, v := range versions {
		cmd.Println(render(out, titleStyle, v.Version))
		for _, a := range v.Artifacts {
			name := a.Name
			if a.IsDependency {
				name += " (dependency)"
			}
			cmd.Printf("  %s\n    %s\n", name, render(out, labelStyle, a.DownloadURL))
		}
	}
	return nil
}
