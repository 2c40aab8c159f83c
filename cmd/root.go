package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongshn220/wooriworship-sub001/cmd/cleanup"
	"github.com/yongshn220/wooriworship-sub001/cmd/migrate"
	"github.com/yongshn220/wooriworship-sub001/cmd/seed"
	"github.com/yongshn220/wooriworship-sub001/cmd/version"
	"github.com/yongshn220/wooriworship-sub001/internal/app"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wooriworship-migrate",
		Short:         "WooriWorship schema migration CLI",
		Long:          "Moves legacy root-level church data into tenant-scoped collections and builds unified services.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, ctx); err != nil {
		panic(err)
	}

	versionCmd := version.Command()
	rootCmd.AddCommand(
		migrate.Command(ctx),
		cleanup.Command(ctx),
		seed.Command(ctx),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for the version command
		if cmd.Name() == versionCmd.Name() || ctx.Runtime != nil {
			return nil
		}
		return ctx.Initialize()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *app.Context) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to config file (default: search standard locations)")
	flags.StringVar(&ctx.FixturesFile, "fixtures", "", "YAML fixtures applied to the store before the command runs")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("backend", "", "Store backend: memory, sqlite, mysql or firestore")
	flags.Int("batch-size", 0, "Mutations per commit, at most 500")
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address while running, e.g. :9090")

	bindings := map[string]string{
		"debug":               "debug",
		"store.backend":       "backend",
		"migration.batchsize": "batch-size",
		"telemetry.listen":    "metrics-listen",
	}
	for key, name := range bindings {
		if err := ctx.Viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	return nil
}
