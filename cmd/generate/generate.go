// Package generate handles the receipt generation command
package generate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"hydrogen/pos-receipts/cmd/common"
	"hydrogen/pos-receipts/cmd/root"
	"hydrogen/pos-receipts/internal/fileutils"
	"hydrogen/pos-receipts/internal/logging"
)

var row int

// Cmd represents the generate command
var Cmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate receipt PDFs from a CSV file",
	Long: `Generate receipts for every row of a CSV file and package them into one
ZIP archive, or generate the PDF of a single row with --row.

Rows that fail to render are reported and left out of the archive; the
command only fails when no receipt could be produced.

Example:
  pos-receipts generate -i transactions.csv -t medusa -o out/
  pos-receipts generate -i transactions.csv --row 3`,
	RunE: generateFunc,
}

func init() {
	Cmd.Flags().IntVar(&row, "row", 0, "Generate only the receipt of this row (1-based)")
}

func generateFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	logger := c.GetLogger()

	sess, def, err := common.LoadFile(c, root.SharedFlags.Input, root.SharedFlags.Template)
	if err != nil {
		return err
	}
	outDir := common.OutputDir(c, root.SharedFlags.Output)

	if row > 0 {
		artifact, err := sess.DownloadOne(cmd.Context(), row-1)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, artifact.Filename)
		if err := fileutils.WriteAtomic(path, artifact.Data, 0644); err != nil {
			return err
		}
		logger.Info("Receipt written", logging.F(logging.FieldOutputFile, path), logging.F(logging.FieldRow, row))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	}

	result, err := sess.DownloadAll(cmd.Context())
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}

	path := filepath.Join(outDir, result.ArchiveName)
	if err := fileutils.WriteAtomic(path, result.Data, 0644); err != nil {
		return err
	}
	logger.Info("Archive written",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldTemplate, def.ID),
		logging.F(logging.FieldBatch, result.BatchID),
		logging.F(logging.FieldCount, len(result.Files)),
		logging.F(logging.FieldFailed, len(result.Failed)))

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d receipts to %s", len(result.Files), path)
	if len(result.Failed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d failed)", len(result.Failed))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
