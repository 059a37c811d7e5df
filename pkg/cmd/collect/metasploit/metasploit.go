package metasploit

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MaineK00n/exploitgpt/pkg/collect/metasploit"
	extract "github.com/MaineK00n/exploitgpt/pkg/extract/metasploit"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		repository string
		repoDir    string
		skipSync   bool
		limit      int
		dir        string
		name       string
		noProgress bool
	}{
		repository: extract.DefaultRepository,
		repoDir:    utilos.RepoDir("metasploit-framework"),
		dir:        utilos.RawDir("metasploit"),
	}

	cmd := &cobra.Command{
		Use:   "metasploit",
		Short: "Collect exploit modules from the Metasploit Framework",
		Example: heredoc.Doc(`
			$ exploitgpt collect metasploit
			$ exploitgpt collect metasploit --skip-sync --repo-dir ~/src/metasploit-framework --limit 100
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := metasploit.Collect(cmd.Context(),
				metasploit.WithRepository(options.repository),
				metasploit.WithRepoDir(options.repoDir),
				metasploit.WithSkipSync(options.skipSync),
				metasploit.WithLimit(options.limit),
				metasploit.WithDir(options.dir),
				metasploit.WithName(options.name),
				metasploit.WithNoProgress(options.noProgress),
			); err != nil {
				return errors.Wrap(err, "collect metasploit")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.repository, "repository", "", options.repository, "metasploit framework git repository")
	cmd.Flags().StringVarP(&options.repoDir, "repo-dir", "", options.repoDir, "local checkout of the repository")
	cmd.Flags().BoolVarP(&options.skipSync, "skip-sync", "", options.skipSync, "use the local checkout as is")
	cmd.Flags().IntVarP(&options.limit, "limit", "l", options.limit, "stop after this many modules (0: no limit)")
	cmd.Flags().StringVarP(&options.dir, "output-dir", "o", options.dir, "output directory")
	cmd.Flags().StringVarP(&options.name, "output-name", "", options.name, "output file name (default: metasploit_<timestamp>.json)")
	cmd.Flags().BoolVarP(&options.noProgress, "no-progress", "", options.noProgress, "disable progress bars")

	return cmd
}
