// Package templates lists the available receipt templates
package templates

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hydrogen/pos-receipts/cmd/root"
)

// Cmd represents the templates command
var Cmd = &cobra.Command{
	Use:   "templates",
	Short: "List receipt templates",
	Long:  `List the receipt templates that can be selected with --template.`,
	RunE:  templatesFunc,
}

func templatesFunc(cmd *cobra.Command, args []string) error {
	registry := root.GetContainer().GetRegistry()
	defaultID := registry.Default().ID

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, opt := range registry.Options() {
		id := opt.Value
		if id == defaultID {
			id += " (default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, opt.Label, opt.Description)
	}
	return w.Flush()
}
