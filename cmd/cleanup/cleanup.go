// Package cleanup provides commands that delete legacy collections.
package cleanup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongshn220/wooriworship-sub001/internal/app"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
)

// Command creates and returns the cleanup command
func Command(ctx *app.Context) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete legacy collections",
		Long:  `Cleanup permanently deletes legacy data. Every subcommand requires --yes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("please specify a subcommand: legacy or tenant")
		},
	}
	cmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")

	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "Delete every root-level legacy collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			out := cmd.OutOrStdout()
			return ctx.WithEngine(cmd.Context(), func(c context.Context, engine *migration.Engine) error {
				return engine.CleanupLegacyData(c, func(line string) { fmt.Fprintln(out, line) })
			})
		},
	}

	var tenant string
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Delete a tenant's scoped schedules and worships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			out := cmd.OutOrStdout()
			return ctx.WithEngine(cmd.Context(), func(c context.Context, engine *migration.Engine) error {
				if err := engine.NukeLegacyCollections(c, tenant); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ removed legacy schedules and worships of %s\n", tenant)
				return nil
			})
		},
	}
	tenantCmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Tenant (team) id")
	_ = tenantCmd.MarkFlagRequired("tenant")

	cmd.AddCommand(legacyCmd, tenantCmd)
	return cmd
}

var errNotConfirmed = errors.NewStd("refusing to delete without --yes")
