package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var unrestrictCmd = &cobra.Command{
	Use:   "unrestrict <user-id>",
	Short: "Lift a posting restriction",
	Args:  cobra.ExactArgs(1),
	Run:   unrestrictHandler,
}

func unrestrictHandler(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, cleanup, err := newModerationStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := store.DeleteRestriction(ctx, args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to unrestrict user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("User %s unrestricted\n", args[0])
}

func init() {
	rootCmd.AddCommand(unrestrictCmd)
}
