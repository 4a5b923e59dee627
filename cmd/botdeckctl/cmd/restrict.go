package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmwangi/botdeck/internal/domain"
)

var (
	restrictReason string
	restrictBy     string
)

var restrictCmd = &cobra.Command{
	Use:   "restrict <user-id>",
	Short: "Block a user from posting in the chat",
	Long: `Restrict writes a durable posting restriction for the given user.

The user keeps read access. Connected sessions pick the restriction up at
their next join; use the admin dashboard for an immediate in-room effect.

Examples:
  botdeckctl restrict user-123 --reason "spamming @issue"
  botdeckctl restrict user-123 --by ops@example.com`,
	Args: cobra.ExactArgs(1),
	Run:  restrictHandler,
}

func restrictHandler(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, cleanup, err := newModerationStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	restriction := domain.Restriction{
		UserID:       args[0],
		RestrictedBy: restrictBy,
		Reason:       restrictReason,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateRestriction(ctx, restriction); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to restrict user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("User %s restricted\n", args[0])
}

func init() {
	rootCmd.AddCommand(restrictCmd)
	restrictCmd.Flags().StringVar(&restrictReason, "reason", "", "Reason recorded with the restriction")
	restrictCmd.Flags().StringVar(&restrictBy, "by", "ops-cli", "Operator identity recorded with the restriction")
}
