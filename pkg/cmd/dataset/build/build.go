package build

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
	"github.com/MaineK00n/exploitgpt/pkg/dataset"
	"github.com/MaineK00n/exploitgpt/pkg/split"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		cves       string
		exploits   string
		metasploit string
		shellcodes string

		fromDB bool
		dbtype utilflag.DBType
		dbpath string

		trainRatio float64
		valRatio   float64
		seed       uint64
		dir        string
	}{
		dbtype:     utilflag.DBTypeBoltDB,
		dbpath:     utilos.DBPath(),
		trainRatio: split.DefaultTrainRatio,
		valRatio:   split.DefaultValRatio,
		dir:        utilos.DatasetDir(),
	}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Link, format and split collected records into train/validation/test jsonl",
		Example: heredoc.Doc(`
			$ exploitgpt dataset build --cves cves.json --exploits exploits.json --metasploit metasploit.json --shellcodes shellcodes.json
			$ exploitgpt dataset build --from-db --dbtype sqlite3 --dbpath exploitgpt.sqlite3 --seed 42 --output-dir data/processed
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := dataset.Build(
				dataset.WithCVEs(options.cves),
				dataset.WithExploits(options.exploits),
				dataset.WithMetasploit(options.metasploit),
				dataset.WithShellcodes(options.shellcodes),
				dataset.WithFromDB(options.fromDB),
				dataset.WithDBType(options.dbtype.String()),
				dataset.WithDBPath(options.dbpath),
				dataset.WithDebug(utilflag.Debug(cmd)),
				dataset.WithTrainRatio(options.trainRatio),
				dataset.WithValRatio(options.valRatio),
				dataset.WithSeed(options.seed),
				dataset.WithDir(options.dir),
			); err != nil {
				return errors.Wrap(err, "dataset build")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.cves, "cves", "", options.cves, "collected cve json")
	cmd.Flags().StringVarP(&options.exploits, "exploits", "", options.exploits, "collected exploit-db json")
	cmd.Flags().StringVarP(&options.metasploit, "metasploit", "", options.metasploit, "collected metasploit json")
	cmd.Flags().StringVarP(&options.shellcodes, "shellcodes", "", options.shellcodes, "collected shellcode json")
	cmd.Flags().BoolVarP(&options.fromDB, "from-db", "", options.fromDB, "read every input from exploitgpt db")
	cmd.MarkFlagsMutuallyExclusive("from-db", "cves")
	utilflag.AddDBFlags(cmd, &options.dbtype, &options.dbpath)
	cmd.Flags().Float64VarP(&options.trainRatio, "train-ratio", "", options.trainRatio, "share of examples in train.jsonl")
	cmd.Flags().Float64VarP(&options.valRatio, "val-ratio", "", options.valRatio, "share of examples in validation.jsonl")
	cmd.Flags().Uint64VarP(&options.seed, "seed", "", options.seed, "shuffle seed")
	cmd.Flags().StringVarP(&options.dir, "output-dir", "o", options.dir, "output directory")

	return cmd
}
