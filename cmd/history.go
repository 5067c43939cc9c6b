package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repolens/internal/audit"
	"github.com/ziadkadry99/repolens/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tool calls",
	Long:  `Prints recorded tool calls, newest first, or per-tool totals with --stats.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("tool", "", "only show calls of this tool")
	historyCmd.Flags().String("state", "", "filter by state: completed, timed_out, cancelled, rejected")
	historyCmd.Flags().Duration("since", 24*time.Hour, "how far back to look")
	historyCmd.Flags().Int("limit", 20, "maximum number of calls")
	historyCmd.Flags().Bool("stats", false, "print per-tool totals instead of calls")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	toolFilter, _ := cmd.Flags().GetString("tool")
	stateFilter, _ := cmd.Flags().GetString("state")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")
	statsOnly, _ := cmd.Flags().GetBool("stats")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DatabasePath()); os.IsNotExist(err) {
		fmt.Println("No tool calls recorded yet.")
		return nil
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	store := audit.NewStore(database)

	from := time.Now().Add(-since)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	if statsOnly {
		stats, err := store.Summarize(ctx, from)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TOOL\tCALLS\tQUERIES\tFAILED\tAVG MS")
		for _, st := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", st.Tool, st.Calls, st.Queries, st.Failed, st.AvgDuration)
		}
		return nil
	}

	invocations, err := store.Query(ctx, audit.QueryFilter{
		Tool:  toolFilter,
		State: audit.State(stateFilter),
		Since: &from,
		Limit: limit,
	})
	if err != nil {
		return err
	}
	if len(invocations) == 0 {
		fmt.Fprintln(w, "No matching tool calls.")
		return nil
	}

	fmt.Fprintln(w, "TIME\tTOOL\tSTATE\tQUERIES\tRESULTS\tEMPTY\tFAILED\tMS\tVIA")
	for _, inv := range invocations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			inv.Timestamp.Local().Format(time.DateTime),
			inv.Tool, inv.State, inv.QueryCount,
			inv.HasResults, inv.Empty, inv.Failed,
			inv.DurationMS, inv.Transport,
		)
	}
	return nil
}
