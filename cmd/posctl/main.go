// Command posctl runs terminal chores from a shell: backups, sales exports,
// seeding the menu and quick reports. It opens the same database the server
// uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/imaging"
	"go-pos-terminal/internal/logger"
	"go-pos-terminal/internal/storage"
	"go-pos-terminal/internal/utils"

	"github.com/spf13/cobra"
)

// opener builds the App a command works on and returns its cleanup.
type opener func(ctx context.Context) (*app.App, func(), error)

func main() {
	if err := newRootCmd(openFromEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Maintenance commands for the POS terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newBackupCmd(open),
		newSalesCmd(open),
		newSeedCmd(open),
		newReportCmd(open),
	)
	return root
}

// openFromEnv opens the configured database without seeding; only the seed
// command adds the default menu.
func openFromEnv(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	loc := cfg.Location()
	a := app.New(storage.NewGormKV(db), storage.NewGormBlobs(db), app.Options{
		Currency:          cfg.CurrencySymbol,
		NotificationLimit: cfg.NotificationLimit,
		Image: imaging.Options{
			MaxDimension: cfg.ImageMaxDimension,
			Quality:      cfg.ImageQuality,
			MaxBytes:     cfg.MaxImageBytes,
		},
		Terminal: utils.TerminalID(),
		Now:      func() time.Time { return time.Now().In(loc) },
	})
	if err := a.Load(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return a, closeDB, nil
}
