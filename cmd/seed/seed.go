// Package seed provides the seed command
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongshn220/wooriworship-sub001/internal/app"
	"github.com/yongshn220/wooriworship-sub001/internal/fixtures"
)

// Command creates and returns the seed command
func Command(ctx *app.Context) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write YAML fixtures into the configured store",
		Long:  `Seed loads a fixtures file and writes its documents in batches. Existing documents at the same paths are replaced.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := fixtures.LoadFile(file)
			if err != nil {
				return err
			}

			rt := ctx.Runtime
			store, err := rt.OpenStore(cmd.Context(), ctx.FixturesFile)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			n, err := f.Apply(cmd.Context(), store, ctx.Settings.Migration.BatchSize, rt.Log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ wrote %d documents from %s\n", n, file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixtures file to load")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
