package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var installMergeFile string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Manage product installation counts",
}

var installIncCmd = &cobra.Command{
	Use:   "inc <key>",
	Short: "Record one installation of a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstallInc,
}

var installMergeCmd = &cobra.Command{
	Use:   "merge [key=count ...]",
	Short: "Merge external installation counts",
	Long: `Merge installation counts collected elsewhere into the catalog.
Each product's external count is merged at most once; products already
merged and unknown products are skipped.

Counts are given as key=count arguments or as a JSON object in --file:

  marketsync install merge docuware-connector=42 a-trust-connector=7
  marketsync install merge --file counts.json`,
	RunE: runInstallMerge,
}

func init() {
	installMergeCmd.Flags().StringVar(&installMergeFile, "file", "", "JSON file mapping product keys to counts")

	installCmd.AddCommand(installIncCmd)
	installCmd.AddCommand(installMergeCmd)
	rootCmd.AddCommand(installCmd)
}

func runInstallInc(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	count, err := catalogService.IncrementInstallCount(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to record installation: %w", err)
	}

	cmd.Printf("%s: %d installations\n", args[0], count)
	return nil
}

func runInstallMerge(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	counts, err := parseCounts(args)
	if err != nil {
		return err
	}
	if installMergeFile != "" {
		data, err := os.ReadFile(installMergeFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", installMergeFile, err)
		}
		var fromFile map[string]int
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, installMergeFile, err)
		}
		for k, v := range fromFile {
			counts[k] = v
		}
	}
	if len(counts) == 0 {
		return fmt.Errorf("%w: no counts given", domain.ErrInvalidInput)
	}

	merged, err := catalogService.MergeInstallationCounts(cmd.Context(), counts)
	cmd.Printf("Merged %d of %d counts.\n", merged, len(counts))
	if err != nil {
		return fmt.Errorf("merge incomplete: %w", err)
	}
	return nil
}

// parseCounts reads key=count arguments.
func parseCounts(args []string) (map[string]int, error) {
	counts := make(map[string]int, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=count, got %q", domain.ErrInvalidInput, arg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: count of %s: %w", domain.ErrInvalidInput, key, err)
		}
		counts[key] = n
	}
	return counts, nil
}
