package metasploit

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	progressbar "github.com/schollz/progressbar/v3"

	"github.com/MaineK00n/exploitgpt/pkg/collect"
	"github.com/MaineK00n/exploitgpt/pkg/extract"
	"github.com/MaineK00n/exploitgpt/pkg/extract/metasploit"
	"github.com/MaineK00n/exploitgpt/pkg/util/git"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

const Prefix = "metasploit"

type options struct {
	repository string
	repoDir    string
	skipSync   bool
	limit      int

	dir  string
	name string

	noProgress bool
}

type Option interface {
	apply(*options)
}

type repositoryOption string

func (o repositoryOption) apply(opts *options) {
	opts.repository = string(o)
}

func WithRepository(url string) Option {
	return repositoryOption(url)
}

type repoDirOption string

func (o repoDirOption) apply(opts *options) {
	opts.repoDir = string(o)
}

func WithRepoDir(dir string) Option {
	return repoDirOption(dir)
}

type skipSyncOption bool

func (o skipSyncOption) apply(opts *options) {
	opts.skipSync = bool(o)
}

func WithSkipSync(skip bool) Option {
	return skipSyncOption(skip)
}

type limitOption int

func (o limitOption) apply(opts *options) {
	opts.limit = int(o)
}

func WithLimit(n int) Option {
	return limitOption(n)
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

// Collect syncs the Metasploit Framework checkout, extracts every exploit
// module and saves the records as a JSON array.
func Collect(ctx context.Context, opts ...Option) (string, collect.Stats, error) {
	options := &options{
		repository: metasploit.DefaultRepository,
		repoDir:    utilos.RepoDir("metasploit-framework"),
		dir:        utilos.RawDir("metasploit"),
	}
	for _, o := range opts {
		o.apply(options)
	}
	if options.name == "" {
		options.name = collect.Filename(Prefix, time.Now())
	}

	if !options.skipSync {
		if err := git.Sync(ctx, options.repository, options.repoDir); err != nil {
			return "", collect.Stats{}, errors.Wrap(err, "sync metasploit framework")
		}
	}

	slog.Info("Extract Metasploit modules", "dir", options.repoDir, "limit", options.limit)
	pb := func() *progressbar.ProgressBar {
		if options.noProgress {
			return progressbar.DefaultSilent(-1)
		}
		return progressbar.Default(-1, "parsing modules")
	}()
	defer pb.Finish() //nolint:errcheck

	records, es, err := extract.Collect(metasploit.Extractor{Root: options.repoDir}, metasploit.Walk(options.repoDir), extract.WithLimit(options.limit), extract.WithProgress(func() { _ = pb.Add(1) }))
	if err != nil {
		return "", collect.Stats{}, errors.Wrap(err, "extract modules")
	}

	stats := collect.Stats{Processed: es.Processed, Errors: es.Errors}
	path, err := collect.Save(options.dir, options.name, records)
	if err != nil {
		return "", stats, errors.Wrap(err, "save modules")
	}
	if path != "" {
		stats.Saved = len(records)
	}

	slog.Info("Collected Metasploit modules", "processed", stats.Processed, "saved", stats.Saved, "errors", stats.Errors)
	return path, stats, nil
}
