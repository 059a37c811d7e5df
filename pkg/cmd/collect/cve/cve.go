package cve

import (
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/MaineK00n/exploitgpt/pkg/collect/cve"
	"github.com/MaineK00n/exploitgpt/pkg/nvd"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

func NewCmd() *cobra.Command {
	options := struct {
		year       int
		severity   string
		pageSize   int
		maxResults int
		baseURL    string
		apiKey     string
		interval   time.Duration
		retryWait  time.Duration
		maxRetries int
		dir        string
		name       string
		noProgress bool
	}{
		pageSize:   2000,
		baseURL:    nvd.DefaultBaseURL,
		interval:   6 * time.Second,
		retryWait:  10 * time.Second,
		maxRetries: 5,
		dir:        utilos.RawDir("cve"),
	}

	cmd := &cobra.Command{
		Use:   "cve",
		Short: "Collect CVEs from the NVD CVE API 2.0",
		Example: heredoc.Doc(`
			$ exploitgpt collect cve
			$ exploitgpt collect cve --year 2021 --severity CRITICAL --max-results 500
			$ EXPLOITGPT_COLLECT_CVE_API_KEY=xxxx exploitgpt collect cve --interval 600ms
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := cve.Collect(cmd.Context(),
				cve.WithYear(options.year),
				cve.WithSeverity(options.severity),
				cve.WithPageSize(options.pageSize),
				cve.WithMaxResults(options.maxResults),
				cve.WithBaseURL(options.baseURL),
				cve.WithAPIKey(options.apiKey),
				cve.WithInterval(options.interval),
				cve.WithRetryWait(options.retryWait),
				cve.WithMaxRetries(options.maxRetries),
				cve.WithDir(options.dir),
				cve.WithName(options.name),
				cve.WithNoProgress(options.noProgress),
			); err != nil {
				return errors.Wrap(err, "collect cve")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&options.year, "year", "y", options.year, "publication year to collect (default: all years)")
	cmd.Flags().StringVarP(&options.severity, "severity", "s", options.severity, "cvss v3 severity filter (accepts: [LOW, MEDIUM, HIGH, CRITICAL])")
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nvd.Severities, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().IntVarP(&options.pageSize, "page-size", "", options.pageSize, "results per page")
	cmd.Flags().IntVarP(&options.maxResults, "max-results", "m", options.maxResults, "stop after this many records (0: no limit)")
	cmd.Flags().StringVarP(&options.baseURL, "base-url", "", options.baseURL, "nvd cve api endpoint")
	cmd.Flags().StringVarP(&options.apiKey, "api-key", "", options.apiKey, "nvd api key")
	cmd.Flags().DurationVarP(&options.interval, "interval", "", options.interval, "delay between pages")
	cmd.Flags().DurationVarP(&options.retryWait, "retry-wait", "", options.retryWait, "wait before retrying a rate limited page")
	cmd.Flags().IntVarP(&options.maxRetries, "max-retries", "", options.maxRetries, "retries of a rate limited page")
	cmd.Flags().StringVarP(&options.dir, "output-dir", "o", options.dir, "output directory")
	cmd.Flags().StringVarP(&options.name, "output-name", "", options.name, "output file name (default: cves_<timestamp>.json)")
	cmd.Flags().BoolVarP(&options.noProgress, "no-progress", "", options.noProgress, "disable progress bars")

	return cmd
}
