package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/motivsim/internal/report"
	"github.com/abhisek/motivsim/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-student statistics from the logged transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := store.QueryOpts{}
		opts.StudentID, _ = cmd.Flags().GetString("student")
		stats, err := st.Stats(ctx, opts)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		counts, err := st.Count(ctx)
		if err != nil {
			return fmt.Errorf("count records: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No transactions logged yet.")
			return nil
		}
		fmt.Fprintln(out, report.Stats(stats))
		fmt.Fprintf(out, "%d students, %d transactions, %d decisions, %d batches\n",
			counts[store.TableStudents], counts[store.TableTransactions], counts[store.TableDecisions], counts[store.TableBatches])
		return nil
	},
}

func init() {
	statsCmd.Flags().String("student", "", "Only this student")
}
