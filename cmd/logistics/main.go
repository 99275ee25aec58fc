// Command logistics runs the logistics order API.
//
// @title        Logistics API
// @version      1.0
// @description  Users and delivery orders backed by a spreadsheet row store.
// @BasePath     /
package main

import (
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/routedesk/logistics-api/internal/pkg/config"
	"github.com/routedesk/logistics-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs once the root has loaded it.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "logistics",
		Short:         "Logistics order backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWith(cmd.Context(), envconfig.OsLookuper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			logger.Init(logger.Options{
				Level:  cfg.LogLevel,
				Pretty: cfg.Development(),
				File:   cfg.LogFile,
			})
			return nil
		},
	}

	root.AddCommand(c.serveCmd(), c.exportCmd())
	return root
}
