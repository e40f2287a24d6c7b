// Package sample writes an example CSV for a receipt template
package sample

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hydrogen/pos-receipts/cmd/root"
	"hydrogen/pos-receipts/internal/fileutils"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/templates"
)

// Cmd represents the sample command
var Cmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample CSV for a template",
	Long: `Write a CSV with the columns of a template and one example row.
Without -o the CSV is printed to standard output.

Example:
  pos-receipts sample -t medusa -o medusa-template.csv`,
	RunE: sampleFunc,
}

func sampleFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	def := c.GetRegistry().Lookup(root.SharedFlags.Template)
	delimiter := c.GetConfig().DelimiterRune()

	out := root.SharedFlags.Output
	if out == "" {
		return templates.SampleCSV(def, cmd.OutOrStdout(), delimiter)
	}

	err := fileutils.WriteAtomicFrom(out, 0644, func(w io.Writer) error {
		return templates.SampleCSV(def, w, delimiter)
	})
	if err != nil {
		return err
	}
	c.GetLogger().Info("Sample written",
		logging.F(logging.FieldOutputFile, out),
		logging.F(logging.FieldTemplate, def.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s template to %s\n", def.DisplayName, out)
	return nil
}
