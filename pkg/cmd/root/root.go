package root

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	collectCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/collect"
	datasetCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/dataset"
	dbCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/db"
	"github.com/MaineK00n/exploitgpt/pkg/cmd/util/config"
	versionCmd "github.com/MaineK00n/exploitgpt/pkg/cmd/version"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmdRoot() *cobra.Command {
	options := struct {
		config string
		debug  bool
	}{
		config: filepath.Join(utilos.UserConfigDir(), "config.yaml"),
		debug:  false,
	}

	cmd := &cobra.Command{
		Use:           "exploitgpt <command>",
		Short:         "Exploit dataset builder: ExploitGPT",
		Long:          "Collect CVEs, Metasploit modules and Exploit-DB entries, link them and build an instruction-tuning dataset",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Bind(cmd, options.config, cmd.Flags().Changed("config")); err != nil {
				return errors.Wrap(err, "bind config")
			}

			level := slog.LevelInfo
			if options.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&options.config, "config", "c", options.config, "config file path")
	cmd.PersistentFlags().BoolVarP(&options.debug, "debug", "d", options.debug, "debug mode")

	cmd.AddCommand(
		collectCmd.NewCmd(),
		datasetCmd.NewCmd(),
		dbCmd.NewCmd(),
		versionCmd.NewCmd(),
	)

	return cmd
}
