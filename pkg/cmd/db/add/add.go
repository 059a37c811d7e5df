package add

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
	db "github.com/MaineK00n/exploitgpt/pkg/db/add"
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
		Use:   "add (vulnerability|exploit) <collected json>...",
		Short: "add collected records to exploitgpt db",
		Example: heredoc.Doc(`
		$ exploitgpt db add vulnerability cves_20240101_000000.json
		$ exploitgpt db add exploit exploits_20240101_000000.json metasploit_20240101_000000.json shellcodes_20240101_000000.json
		`),
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(db.TypeVulnerability), string(db.TypeExploit)},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args[1:] {
				if err := db.Add(db.Type(args[0]), path, db.WithDBType(options.dbtype.String()), db.WithDBPath(options.dbpath), db.WithDebug(utilflag.Debug(cmd))); err != nil {
					return errors.Wrapf(err, "db add %s", path)
				}
			}
			return nil
		},
	}

	utilflag.AddDBFlags(cmd, &options.dbtype, &options.dbpath)

	return cmd
}
