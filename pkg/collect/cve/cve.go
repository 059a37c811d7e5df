package cve

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	progressbar "github.com/schollz/progressbar/v3"

	"github.com/MaineK00n/exploitgpt/pkg/collect"
	"github.com/MaineK00n/exploitgpt/pkg/extract"
	nvdExtract "github.com/MaineK00n/exploitgpt/pkg/extract/nvd"
	"github.com/MaineK00n/exploitgpt/pkg/nvd"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

const Prefix = "cves"

type options struct {
	year       int
	severity   string
	pageSize   int
	maxResults int

	baseURL    string
	apiKey     string
	interval   time.Duration
	retryWait  time.Duration
	maxRetries int

	dir  string
	name string

	noProgress bool
}

type Option interface {
	apply(*options)
}

type yearOption int

func (o yearOption) apply(opts *options) {
	opts.year = int(o)
}

func WithYear(year int) Option {
	return yearOption(year)
}

type severityOption string

func (o severityOption) apply(opts *options) {
	opts.severity = string(o)
}

func WithSeverity(severity string) Option {
	return severityOption(severity)
}

type pageSizeOption int

func (o pageSizeOption) apply(opts *options) {
	opts.pageSize = int(o)
}

func WithPageSize(n int) Option {
	return pageSizeOption(n)
}

type maxResultsOption int

func (o maxResultsOption) apply(opts *options) {
	opts.maxResults = int(o)
}

func WithMaxResults(n int) Option {
	return maxResultsOption(n)
}

type baseURLOption string

func (o baseURLOption) apply(opts *options) {
	opts.baseURL = string(o)
}

func WithBaseURL(u string) Option {
	return baseURLOption(u)
}

type apiKeyOption string

func (o apiKeyOption) apply(opts *options) {
	opts.apiKey = string(o)
}

func WithAPIKey(key string) Option {
	return apiKeyOption(key)
}

type intervalOption time.Duration

func (o intervalOption) apply(opts *options) {
	opts.interval = time.Duration(o)
}

func WithInterval(d time.Duration) Option {
	return intervalOption(d)
}

type retryWaitOption time.Duration

func (o retryWaitOption) apply(opts *options) {
	opts.retryWait = time.Duration(o)
}

func WithRetryWait(d time.Duration) Option {
	return retryWaitOption(d)
}

type maxRetriesOption int

func (o maxRetriesOption) apply(opts *options) {
	opts.maxRetries = int(o)
}

func WithMaxRetries(n int) Option {
	return maxRetriesOption(n)
}

type dirOption string

func (o dirOption) apply(opts *options) {
	opts.dir = string(o)
}

func WithDir(dir string) Option {
	return dirOption(dir)
}

type nameOption string

func (o nameOption) apply(opts *options) {
	opts.name = string(o)
}

// WithName overrides the timestamped output file name.
func WithName(name string) Option {
	return nameOption(name)
}

type noProgressOption bool

func (o noProgressOption) apply(opts *options) {
	opts.noProgress = bool(o)
}

func WithNoProgress(noProgress bool) Option {
	return noProgressOption(noProgress)
}

// Collect fetches CVEs from NVD, extracts them and saves the records as a
// JSON array. Window failures are counted in Stats.Errors and do not fail
// the run.
func Collect(ctx context.Context, opts ...Option) (string, collect.Stats, error) {
	options := &options{
		pageSize:   2000,
		baseURL:    nvd.DefaultBaseURL,
		interval:   6 * time.Second,
		retryWait:  10 * time.Second,
		maxRetries: 5,
		dir:        utilos.RawDir("cve"),
	}
	for _, o := range opts {
		o.apply(options)
	}
	if options.name == "" {
		options.name = collect.Filename(Prefix, time.Now())
	}

	slog.Info("Fetch CVEs", "year", options.year, "severity", options.severity, "max", options.maxResults)
	res, err := nvd.New(
		nvd.WithBaseURL(options.baseURL),
		nvd.WithAPIKey(options.apiKey),
		nvd.WithInterval(options.interval),
		nvd.WithRetryWait(options.retryWait),
		nvd.WithMaxRetries(options.maxRetries),
		nvd.WithNoProgress(options.noProgress),
	).Fetch(ctx, nvd.Query{
		Year:       options.year,
		Severity:   options.severity,
		PageSize:   options.pageSize,
		MaxResults: options.maxResults,
	})
	if err != nil {
		return "", collect.Stats{}, errors.Wrap(err, "fetch cves")
	}
	if res.Failures != nil {
		slog.Warn("Some windows failed", "errors", res.Stats.Errors, "err", res.Failures)
	}

	slog.Info("Extract CVEs", "units", len(res.Units))
	pb := func() *progressbar.ProgressBar {
		if options.noProgress {
			return progressbar.DefaultSilent(int64(len(res.Units)))
		}
		return progressbar.Default(int64(len(res.Units)), "extracting")
	}()
	defer pb.Finish() //nolint:errcheck

	records, es, err := extract.Collect(nvdExtract.Extractor{}, extract.Slice(res.Units), extract.WithProgress(func() { _ = pb.Add(1) }))
	if err != nil {
		return "", collect.Stats{}, errors.Wrap(err, "extract cves")
	}

	stats := collect.Stats{Processed: es.Processed, Errors: es.Errors + res.Stats.Errors}
	path, err := collect.Save(options.dir, options.name, records)
	if err != nil {
		return "", stats, errors.Wrap(err, "save cves")
	}
	if path != "" {
		stats.Saved = len(records)
	}

	slog.Info("Collected CVEs", "processed", stats.Processed, "saved", stats.Saved, "errors", stats.Errors)
	return path, stats, nil
}
