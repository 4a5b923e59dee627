package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var restrictionsOutputFormat string

var restrictionsCmd = &cobra.Command{
	Use:   "restrictions",
	Short: "List active posting restrictions",
	Long: `Restrictions lists every user currently blocked from posting.

Output formats:
  table - Human-readable format (default)
  json  - Machine-readable JSON`,
	Args: cobra.NoArgs,
	Run:  restrictionsHandler,
}

func restrictionsHandler(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, cleanup, err := newModerationStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	restrictions, err := store.ListRestrictions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list restrictions: %v\n", err)
		os.Exit(1)
	}

	if restrictionsOutputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(restrictions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode restrictions: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(restrictions) == 0 {
		fmt.Println("No active restrictions.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tRESTRICTED BY\tSINCE\tREASON")
	for _, r := range restrictions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.UserID, r.RestrictedBy, r.CreatedAt.Format("2006-01-02 15:04"), r.Reason)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(restrictionsCmd)
	restrictionsCmd.Flags().StringVarP(&restrictionsOutputFormat, "format", "f", "table", "Output format (table, json)")
}
