package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/deep-research/internal/framework"
)

var frameworksJSON bool

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the research frameworks and their sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("frameworks"); err != nil {
			return err
		}
		table, err := loadTable(cfg)
		if err != nil {
			return err
		}
		return printFrameworks(cmd.OutOrStdout(), table, frameworksJSON)
	},
}

func printFrameworks(w io.Writer, table framework.Table, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	for _, name := range framework.Names() {
		secs, err := table.Sections(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%d sections)\n", name, len(secs))
		for _, s := range secs {
			fmt.Fprintf(w, "  %-22s %s\n", s.Section, s.Description)
		}
	}
	return nil
}

func init() {
	frameworksCmd.Flags().BoolVar(&frameworksJSON, "json", false, "print the full descriptor tables as JSON")
	rootCmd.AddCommand(frameworksCmd)
}
