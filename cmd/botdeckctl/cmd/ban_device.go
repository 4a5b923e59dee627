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
	banReason  string
	banBy      string
	banUserIDs []string
)

var banDeviceCmd = &cobra.Command{
	Use:   "ban-device <fingerprint>",
	Short: "Ban a device fingerprint from joining the chat",
	Long: `Ban-device writes a durable device ban. Connections presenting the
fingerprint are rejected at join time, regardless of which account they use.

Already-connected sessions are not evicted; the ban applies at the next
reconnect.

Examples:
  botdeckctl ban-device 9f1c... --reason "ban evasion" --user mallory-1 --user mallory-2`,
	Args: cobra.ExactArgs(1),
	Run:  banDeviceHandler,
}

func banDeviceHandler(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, cleanup, err := newModerationStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ban := domain.BannedDevice{
		Fingerprint: args[0],
		Reason:      banReason,
		BannedBy:    banBy,
		UserIDs:     banUserIDs,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.BanDevice(ctx, ban); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to ban device: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Device %s banned\n", args[0])
}

func init() {
	rootCmd.AddCommand(banDeviceCmd)
	banDeviceCmd.Flags().StringVar(&banReason, "reason", "", "Reason recorded with the ban")
	banDeviceCmd.Flags().StringVar(&banBy, "by", "ops-cli", "Operator identity recorded with the ban")
	banDeviceCmd.Flags().StringArrayVar(&banUserIDs, "user", nil, "User IDs associated with the device (repeatable)")
}
