package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var (
	productsType     string
	productsKeyword  string
	productsPage     int
	productsPageSize int
	productsAll      bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Long: `List catalog products page by page.

Filter by type (all, connector, util, solution, demo) and by a keyword
matched against the name and short description.`,
	Args: cobra.NoArgs,
	RunE: runProductsList,
}

var productsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsGet,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a product from the catalog",
	Long: `Remove a product from the catalog. The next full sync recreates it
if its folder still exists in the market repository.`,
	Args: cobra.ExactArgs(1),
	RunE: runProductsDelete,
}

func init() {
	productsListCmd.Flags().StringVarP(&productsType, "type", "t", "", "Product type filter")
	productsListCmd.Flags().StringVarP(&productsKeyword, "keyword", "k", "", "Keyword filter")
	productsListCmd.Flags().IntVar(&productsPage, "page", 0, "Zero-based page number")
	productsListCmd.Flags().IntVar(&productsPageSize, "page-size", domain.DefaultPageSize, "Products per page")
	productsListCmd.Flags().BoolVar(&productsAll, "all", false, "Include unlisted products")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsCmd.AddCommand(productsDeleteCmd)
	rootCmd.AddCommand(productsCmd)
}

func runProductsList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	filter := domain.ProductFilter{
		Type:            domain.ProductType(productsType),
		Keyword:         productsKeyword,
		Page:            productsPage,
		PageSize:        productsPageSize,
		IncludeUnlisted: productsAll,
	}

	page, err := catalogService.ListProducts(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if len(page.Items) == 0 {
		cmd.Println("No products found.")
		return nil
	}

	out := cmd.OutOrStdout()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "NAME", "TYPE", "VENDOR", "INSTALLS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow && isTerminal(out) {
				return titleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for i := range page.Items {
		p := &page.Items[i]
		key := p.Key
		if !p.Listed {
			key += " (unlisted)"
		}
		t.Row(key, p.Name, p.Type.String(), p.Vendor, strconv.Itoa(p.InstallationCount))
	}

	cmd.Println(t.String())
	cmd.Printf("Page %d of %d (%d products)\n", page.Page+1, page.TotalPages(), page.Total)
	return nil
}

func runProductsGet(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	p, err := catalogService.GetProduct(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}

	out := cmd.OutOrStdout()
	cmd.Printf("%s\n\n", render(out, titleStyle, p.Name))

	field := func(label, value string) {
		if value == "" {
			return
		}
		cmd.Printf("  %s %s\n", render(out, labelStyle, fmt.Sprintf("%-15s", label+":")), value)
	}
	field("Key", p.Key)
	field("Type", p.Type.String())
	field("Description", p.ShortDescription)
	field("Version", p.Version)
	field("Vendor", p.Vendor)
	field("Vendor URL", p.VendorURL)
	field("Tags", strings.Join(p.Tags, ", "))
	field("Language", p.Language)
	field("Industry", p.Industry)
	field("Cost", p.Cost)
	field("Source", p.SourceURL)
	field("Repository", p.RepositoryName)
	field("Directory", p.MarketDirectory)
	field("Logo", p.LogoURL)
	if p.Compatibility != nil {
		field("Compatibility", *p.Compatibility)
	}
	field("Newest release", p.NewestReleaseVersion)
	field("Installs", strconv.Itoa(p.InstallationCount))
	field("Listed", strconv.FormatBool(p.Listed))
	if !p.UpdatedAt.IsZero() {
		field("Updated", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(p.Artifacts) > 0 {
		cmd.Println("\n  Artifacts:")
		for _, a := range p.Artifacts {
			suffix := ""
			if a.IsDependency {
				suffix = " (dependency)"
			}
			cmd.Printf("    %s:%s%s\n", a.GroupID, a.ArtifactID, suffix)
		}
	}
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	if err := catalogService.DeleteProduct(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	cmd.Printf("Product %s deleted.\n", args[0])
	return nil
}
