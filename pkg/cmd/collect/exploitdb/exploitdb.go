package exploitdb

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MaineK00n/exploitgpt/pkg/collect/exploitdb"
	extract "github.com/MaineK00n/exploitgpt/pkg/extract/exploitdb"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		repository string
		repoDir    string
		skipSync   bool
		platform   string
		limit      int
		dir        string
		name       string
		noProgress bool
	}{
		repository: extract.DefaultRepository,
		repoDir:    utilos.RepoDir("exploitdb"),
		dir:        utilos.RawDir("exploitdb"),
	}

	cmd := &cobra.Command{
		Use:   "exploitdb",
		Short: "Collect exploits from the Exploit-DB index",
		Example: heredoc.Doc(`
			$ exploitgpt collect exploitdb
			$ exploitgpt collect exploitdb --skip-sync --repo-dir ~/src/exploitdb --limit 1000
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := exploitdb.Collect(cmd.Context(), types.ExploitKindExploit,
				exploitdb.WithRepository(options.repository),
				exploitdb.WithRepoDir(options.repoDir),
				exploitdb.WithSkipSync(options.skipSync),
				exploitdb.WithPlatform(options.platform),
				exploitdb.WithLimit(options.limit),
				exploitdb.WithDir(options.dir),
				exploitdb.WithName(options.name),
				exploitdb.WithNoProgress(options.noProgress),
			); err != nil {
				return errors.Wrap(err, "collect exploitdb")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.repository, "repository", "", options.repository, "exploitdb git repository")
	cmd.Flags().StringVarP(&options.repoDir, "repo-dir", "", options.repoDir, "local checkout of the repository")
	cmd.Flags().BoolVarP(&options.skipSync, "skip-sync", "", options.skipSync, "use the local checkout as is")
	cmd.Flags().StringVarP(&options.platform, "platform", "p", options.platform, "keep rows whose platform contains this value (case-insensitive)")
	cmd.Flags().IntVarP(&options.limit, "limit", "l", options.limit, "stop after this many records (0: no limit)")
	cmd.Flags().StringVarP(&options.dir, "output-dir", "o", options.dir, "output directory")
	cmd.Flags().StringVarP(&options.name, "output-name", "", options.name, "output file name (default: exploits_<timestamp>.json)")
	cmd.Flags().BoolVarP(&options.noProgress, "no-progress", "", options.noProgress, "disable progress bars")

	return cmd
}
