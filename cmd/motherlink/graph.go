package main

import (
	"fmt"

	"github.com/aretw0/motherlink/internal/presentation/graph"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/i18n"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the menu graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the menu catalog.
With --path the nodes a USSD path walks through are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("locale")
		path, _ := cmd.Flags().GetString("path")

		locale, err := domain.ParseLocale(code)
		if err != nil {
			return err
		}
		tr, err := i18n.New()
		if err != nil {
			return err
		}
		cat, err := menu.Define(locale, tr)
		if err != nil {
			return fmt.Errorf("failed to build catalog: %w", err)
		}

		var overlay *graph.GraphOverlay
		if cmd.Flags().Changed("path") {
			overlay = graph.OverlayFromTrail(graph.Walk(cat, path))
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(cat, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("locale", string(domain.DefaultLocale), "Catalog language (rw|en)")
	graphCmd.Flags().String("path", "", "Highlight the nodes visited by this *-delimited path")
}
