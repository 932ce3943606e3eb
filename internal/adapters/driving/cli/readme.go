package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var readmeTag string

var readmeCmd = &cobra.Command{
	Use:   "readme <key>",
	Short: "Show the README sections of a product",
	Long: `Show the description, setup and demo sections of a product README.

Without --tag the README is read from the market repository at HEAD.
With --tag it is read from the product's own repository at that tag.`,
	Args: cobra.ExactArgs(1),
	RunE: runReadme,
}

func init() {
	readmeCmd.Flags().StringVar(&readmeTag, "tag", "", "Release tag of the product repository")
	rootCmd.AddCommand(readmeCmd)
}

func runReadme(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	sections, err := catalogService.GetReadme(cmd.Context(), args[0], readmeTag)
	if err != nil {
		return fmt.Errorf("failed to get readme: %w", err)
	}

	if sections.IsEmpty() {
		cmd.Println("No README content available.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, s := range []struct{ title, body string }{
		{"Description", sections.Description},
		{"Setup", sections.Setup},
		{"Demo", sections.Demo},
	} {
		if s.body == "" {
			continue
		}
		cmd.Println(render(out, titleStyle, "## "+s.title))
		cmd.Println(s.body)
		cmd.Println()
	}
	return nil
}
