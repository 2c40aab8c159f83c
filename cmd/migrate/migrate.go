// Package migrate provides the migrate command and its per-operation subcommands.
package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yongshn220/wooriworship-sub001/internal/app"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration"
)

// Command creates and returns the migrate command
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations",
		Long:  `Migrate moves legacy data into the tenant-scoped layout. Use a subcommand to pick the operation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("please specify a subcommand: run, services or service-tags")
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full legacy migration",
		Long:  `Normalizes dates, indexes participants, relocates legacy records into tenants and rebuilds tags and members.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.WithEngine(cmd.Context(), func(c context.Context, engine *migration.Engine) error {
				return engine.RunFullMigration(c, progressPrinter(out))
			})
		},
	}

	var servicesTenant string
	servicesCmd := &cobra.Command{
		Use:   "services",
		Short: "Rebuild unified services for a tenant",
		Long:  `Deletes the tenant's services and rebuilds them by joining schedules and worships on date and tags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.WithEngine(cmd.Context(), func(c context.Context, engine *migration.Engine) error {
				res, err := engine.MigrateToUnifiedServices(c, servicesTenant)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ %s: %s\n", servicesTenant, res)
				return nil
			})
		},
	}
	servicesCmd.Flags().StringVarP(&servicesTenant, "tenant", "t", "", "Tenant (team) id")
	_ = servicesCmd.MarkFlagRequired("tenant")

	var tagsTenant string
	serviceTagsCmd := &cobra.Command{
		Use:   "service-tags",
		Short: "Promote a tenant's embedded service tags to records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.WithEngine(cmd.Context(), func(c context.Context, engine *migration.Engine) error {
				res, err := engine.MigrateServiceTagsToSubcollection(c, tagsTenant)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ %s: %s\n", tagsTenant, res)
				return nil
			})
		},
	}
	serviceTagsCmd.Flags().StringVarP(&tagsTenant, "tenant", "t", "", "Tenant (team) id")
	_ = serviceTagsCmd.MarkFlagRequired("tenant")

	cmd.AddCommand(runCmd, servicesCmd, serviceTagsCmd)
	return cmd
}

func progressPrinter(w io.Writer) migration.ProgressFunc {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}
