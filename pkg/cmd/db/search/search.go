package search

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	db "github.com/MaineK00n/exploitgpt/pkg/db/search"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "search in exploitgpt db",
	}

	cmd.AddCommand(
		newVulnerabilityCmd(),
		newExploitsCmd(),
	)

	return cmd
}

func newVulnerabilityCmd() *cobra.Command {
	options := struct {
		dbtype utilflag.DBType
		dbpath string
	}{
		dbtype: utilflag.DBTypeBoltDB,
		dbpath: utilos.DBPath(),
	}

	cmd := &cobra.Command{
		Use:   "vulnerability <CVE ID>...",
		Short: "search vulnerabilities in exploitgpt db by cve id",
		Example: heredoc.Doc(`
		$ exploitgpt db search vulnerability CVE-2021-44228
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Search(dbTypes.SearchVulnerability, args, db.WithDBType(options.dbtype.String()), db.WithDBPath(options.dbpath), db.WithDebug(utilflag.Debug(cmd))); err != nil {
				return errors.Wrap(err, "db search")
			}
			return nil
		},
	}

	utilflag.AddDBFlags(cmd, &options.dbtype, &options.dbpath)

	return cmd
}

func newExploitsCmd() *cobra.Command {
	options := struct {
		dbtype utilflag.DBType
		dbpath string
	}{
		dbtype: utilflag.DBTypeBoltDB,
		dbpath: utilos.DBPath(),
	}

	cmd := &cobra.Command{
		Use:   "exploits (exploit|shellcode) [<CVE ID>...]",
		Short: "search exploits in exploitgpt db by kind, optionally narrowed to cve ids",
		Example: heredoc.Doc(`
		$ exploitgpt db search exploits exploit CVE-2017-0144
		$ exploitgpt db search exploits shellcode
		`),
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{string(types.ExploitKindExploit), string(types.ExploitKindShellcode)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.Search(dbTypes.SearchExploits, args, db.WithDBType(options.dbtype.String()), db.WithDBPath(options.dbpath), db.WithDebug(utilflag.Debug(cmd))); err != nil {
				return errors.Wrap(err, "db search")
			}
			return nil
		},
	}

	utilflag.AddDBFlags(cmd, &options.dbtype, &options.dbpath)

	return cmd
}
