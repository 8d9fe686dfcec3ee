package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/motivsim/internal/export"
	"github.com/abhisek/motivsim/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write logged transactions to a CSV or XLSX file",
	Long:  "Write logged transactions to a file. The format follows the extension (.xlsx or .csv) unless --format is set.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("format", "", "csv or xlsx")
	f.String("student", "", "Only this student's transactions")
	f.Int("limit", 0, "Maximum number of transactions (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]
	format := export.FormatFromPath(path)
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		format = export.Format(v)
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return fmt.Errorf("unknown export format %q", format)
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := store.QueryOpts{}
	opts.StudentID, _ = cmd.Flags().GetString("student")
	opts.Limit, _ = cmd.Flags().GetInt("limit")

	txs, err := st.Transactions(ctx, opts)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case export.FormatXLSX:
		stats, err := st.Stats(ctx, store.QueryOpts{StudentID: opts.StudentID})
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		err = export.WriteXLSX(out, txs, stats)
	default:
		err = export.WriteCSV(out, txs)
	}
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", len(txs), path)
	return nil
}
