package init

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
	db "github.com/MaineK00n/exploitgpt/pkg/db/init"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		dbtype utilflag.DBType
		dbpath string
	}{
		dbtype: utilflag.DBTypeBoltDB,
		dbpath: utilos.DBPath(),
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "initialize exploitgpt db",
		Example: heredoc.Doc(`
		$ exploitgpt db init
		$ exploitgpt db init --dbtype pebble --dbpath ~/.cache/exploitgpt/pebble
		$ exploitgpt db init --dbtype redis --dbpath 127.0.0.1:6379
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := db.Init(db.WithDBType(options.dbtype.String()), db.WithDBPath(options.dbpath), db.WithDebug(utilflag.Debug(cmd))); err != nil {
				return errors.Wrap(err, "db init")
			}
			return nil
		},
	}

	utilflag.AddDBFlags(cmd, &options.dbtype, &options.dbpath)

	return cmd
}
