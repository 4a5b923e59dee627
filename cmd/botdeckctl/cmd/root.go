package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmwangi/botdeck/internal/config"
	"github.com/dmwangi/botdeck/internal/database"
	"github.com/dmwangi/botdeck/internal/domain"
	"github.com/dmwangi/botdeck/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "botdeckctl",
	Short: "Botdeck chat operations tool",
	Long: `botdeckctl is the operations CLI for the Botdeck community chat.

It talks directly to the chat's moderation records. Changes written here are
picked up by the live room at each user's next join.

Available commands:
  restrict       Block a user from posting
  unrestrict     Lift a posting restriction
  restrictions   List active restrictions
  ban-device     Ban a device fingerprint from joining

Use "botdeckctl [command] --help" for more information about a command.`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newModerationStore connects to the database and returns the moderation
// store plus a cleanup function.
func newModerationStore(ctx context.Context) (domain.ModerationRepository, func(), error) {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := database.NewSurrealModerationStore(db, cfg.DBNs, cfg.DBDb)
	return store, func() { db.Close(context.Background()) }, nil
}
