package collect

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	collectCVECmd "github.com/MaineK00n/exploitgpt/pkg/cmd/collect/cve"
	collectExploitDBCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/collect/exploitdb"
	collectMetasploitCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/collect/metasploit"
	collectShellcodeCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/collect/shellcode"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect <subcommand>",
		Short: "Collect raw records from a source",
		Example: heredoc.Doc(`
			$ exploitgpt collect cve --year 2021 --severity CRITICAL
			$ exploitgpt collect metasploit
			$ exploitgpt collect exploitdb
			$ exploitgpt collect shellcode --platform linux
		`),
	}

	cmd.AddCommand(
		collectCVECmd.NewCmd(),
		collectMetasploitCmd.NewCmd(),
		collectExploitDBCmd.NewCmd(),
		collectShellcodeCmd.NewCmd(),
	)

	return cmd
}
