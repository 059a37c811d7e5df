package version

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MaineK00n/exploitgpt/pkg/version"
)

func NewCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := version.String()
			if short {
				v = version.Version
				if v == "" {
					v = "(devel)"
				}
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), v); err != nil {
				return errors.Wrap(err, "version")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print the version number only")

	return cmd
}
