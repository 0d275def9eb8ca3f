package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the menu catalogs for consistency",
	Long:  `Builds the catalog for every locale and reports dangling references and unreachable nodes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), cfg, logger, buildOptions{inMemory: true, logSMS: true})
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, cat := range a.service.Catalogs().All() {
			fmt.Fprintf(out, "%s: %d nodes\n", cat.Locale(), len(cat.Nodes()))
		}
		immediate, terminal := a.service.Actions().Names()
		fmt.Fprintf(out, "handlers: %v %v\n", immediate, terminal)
		fmt.Fprintln(out, "Menus are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
