package db

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	dbAddCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/db/add"
	dbFetchCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/db/fetch"
	dbInitCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/db/init"
	dbSearchCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/db/search"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db <subcommand>",
		Short: "ExploitGPT DB Operation",
		Example: heredoc.Doc(`
			$ exploitgpt db init
			$ exploitgpt db add vulnerability ~/.cache/exploitgpt/raw/cve/cves_20240101_000000.json
			$ exploitgpt db add exploit ~/.cache/exploitgpt/raw/metasploit/metasploit_20240101_000000.json
			$ exploitgpt db search vulnerability CVE-2021-44228
			$ exploitgpt db search exploits exploit CVE-2021-44228
			$ exploitgpt db fetch ghcr.io/mainek00n/exploitgpt-db:latest
		`),
	}

	cmd.AddCommand(
		dbInitCmd.NewCmd(),
		dbAddCmd.NewCmd(),
		dbSearchCmd.NewCmd(),
		dbFetchCmd.NewCmd(),
	)

	return cmd
}
