package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/routedesk/logistics-api/internal/core/service"
	"github.com/routedesk/logistics-api/internal/infrastructure/repository"
	"github.com/routedesk/logistics-api/pkg/logger"
)

func (c *cli) exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all users to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.Get()

			store, err := newStore(cmd.Context(), c.cfg)
			if err != nil {
				return fmt.Errorf("row store (%s): %w", c.cfg.Backend, err)
			}
			usersTable, _ := c.cfg.Tables()
			users := service.NewUserService(
				repository.NewUserRepository(store, usersTable, log),
				service.Options{TolerateProvisioningGap: c.cfg.Orders.TolerateProvisioningGap},
				log,
			)

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := users.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Info().Str("path", out).Msg("users exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "users_export.xlsx", "destination file")
	return cmd
}
