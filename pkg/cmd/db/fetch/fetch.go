package fetch

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
	db "github.com/MaineK00n/exploitgpt/pkg/db/fetch"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		dbpath     string
		plainHTTP  bool
		noProgress bool
	}{
		dbpath: utilos.DBPath(),
	}

	cmd := &cobra.Command{
		Use:   "fetch <repository>",
		Short: "Fetch a prebuilt exploitgpt boltdb",
		Example: heredoc.Doc(`
			$ exploitgpt db fetch ghcr.io/mainek00n/exploitgpt-db:latest
			$ exploitgpt db fetch --plain-http localhost:5000/exploitgpt-db:latest
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Fetch(cmd.Context(), args[0], db.WithDBPath(options.dbpath), db.WithPlainHTTP(options.plainHTTP), db.WithNoProgress(options.noProgress), db.WithDebug(utilflag.Debug(cmd))); err != nil {
				return errors.Wrap(err, "db fetch")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.dbpath, "dbpath", "", options.dbpath, "exploitgpt boltdb path")
	cmd.Flags().BoolVarP(&options.plainHTTP, "plain-http", "", options.plainHTTP, "use http instead of https to reach the registry")
	cmd.Flags().BoolVarP(&options.noProgress, "no-progress", "", options.noProgress, "disable progress bars")

	return cmd
}
