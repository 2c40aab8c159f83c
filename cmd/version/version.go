package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yongshn220/wooriworship-sub001/internal/buildinfo"
)

// Command creates a new cobra.Command to print build metadata.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Current())
			return err
		},
	}

	return cmd
}
