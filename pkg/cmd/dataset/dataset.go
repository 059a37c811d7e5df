package dataset

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	datasetBuildCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/dataset/build"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset <subcommand>",
		Short: "Instruction-tuning dataset operation",
		Example: heredoc.Doc(`
			$ exploitgpt dataset build --cves cves.json --exploits exploits.json
			$ exploitgpt dataset build --from-db --seed 42
		`),
	}

	cmd.AddCommand(datasetBuildCmd.NewCmd())

	return cmd
}
