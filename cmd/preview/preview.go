// Package preview lists the receipts of a CSV file before generating them
package preview

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"hydrogen/pos-receipts/cmd/common"
	"hydrogen/pos-receipts/cmd/root"
	"hydrogen/pos-receipts/internal/fileutils"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/models"
	"hydrogen/pos-receipts/internal/session"
	"hydrogen/pos-receipts/internal/templates"
)

var (
	search string
	page   int
	show   int
	export string
)

// Row is one line of the preview table.
type Row struct {
	Row      int    `csv:"row"`
	Date     string `csv:"date"`
	Customer string `csv:"customer"`
	RRN      string `csv:"rrn"`
	Terminal string `csv:"terminal"`
	CardType string `csv:"card_type"`
	Bank     string `csv:"issuer_bank"`
	Amount   string `csv:"amount"`
}

// Cmd represents the preview command
var Cmd = &cobra.Command{
	Use:   "preview",
	Short: "List and search the receipts of a CSV file",
	Long: `List the receipts a CSV file will produce, ten per page.

--search filters on customer, RRN, terminal, card type, bank, amount, date
and card number. --show prints one receipt as text. --export writes the
filtered list as CSV.

Example:
  pos-receipts preview -i transactions.csv --search zenith --page 2
  pos-receipts preview -i transactions.csv --show 4`,
	RunE: previewFunc,
}

func init() {
	Cmd.Flags().StringVar(&search, "search", "", "Filter receipts (case-insensitive)")
	Cmd.Flags().IntVar(&page, "page", 1, "Page to display")
	Cmd.Flags().IntVar(&show, "show", 0, "Print the receipt of this row (1-based)")
	Cmd.Flags().StringVar(&export, "export", "", "Write the filtered list to a CSV file")
}

func previewFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	out := cmd.OutOrStdout()

	sess, def, err := common.LoadFile(c, root.SharedFlags.Input, root.SharedFlags.Template)
	if err != nil {
		return err
	}

	if show > 0 {
		doc, err := sess.Render(show - 1)
		if err != nil {
			return fmt.Errorf("row %d: %w", show, err)
		}
		_, err = io.WriteString(out, doc.Text())
		return err
	}

	records := sess.Filter(search)
	rows := Rows(records, def)

	if export != "" {
		err := fileutils.WriteAtomicFrom(export, 0644, func(w io.Writer) error {
			return WriteCSV(w, rows, c.GetConfig().DelimiterRune())
		})
		if err != nil {
			return err
		}
		c.GetLogger().Info("Preview exported",
			logging.F(logging.FieldOutputFile, export),
			logging.F(logging.FieldCount, len(rows)))
		fmt.Fprintf(out, "Exported %d receipts to %s\n", len(rows), export)
		return nil
	}

	pageRecords, total := session.Page(records, page)
	if total == 0 {
		fmt.Fprintln(out, "No receipts match the search.")
		return nil
	}
	current := min(max(page, 1), total)

	fmt.Fprintf(out, "%s receipts: %d of %d (page %d of %d)\n\n",
		def.DisplayName, len(records), len(sess.Records()), current, total)
	return WriteTable(out, Rows(pageRecords, def))
}

// Rows resolves records into preview rows.
func Rows(records []models.Record, def templates.Definition) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		r := models.Resolve(rec, def)
		rows = append(rows, Row{
			Row:      rec.Index + 1,
			Date:     r.ListDate,
			Customer: r.Customer,
			RRN:      r.RRN,
			Terminal: r.Terminal,
			CardType: r.CardType,
			Bank:     r.IssuerBank,
			Amount:   r.Amount,
		})
	}
	return rows
}

// WriteTable prints rows as an aligned table.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tCUSTOMER\tRRN\tTERMINAL\tCARD\tAMOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Row, r.Date, r.Customer, r.RRN, r.Terminal, r.CardType, r.Amount)
	}
	return tw.Flush()
}

// WriteCSV writes rows with a header using delimiter.
func WriteCSV(w io.Writer, rows []Row, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("error writing preview CSV: %w", err)
	}
	return nil
}
