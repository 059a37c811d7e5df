package exploitdb

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	progressbar "github.com/schollz/progressbar/v3"

	"github.com/MaineK00n/exploitgpt/pkg/collect"
	"github.com/MaineK00n/exploitgpt/pkg/extract"
	"github.com/MaineK00n/exploitgpt/pkg/extract/exploitdb"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/git"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

type options struct {
	repository string
	repoDir    string
	skipSync   bool
	platform   string
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

// WithSkipSync reads the Exploit-DB checkout as is instead of cloning or pulling it first.
func WithSkipSync(skip bool) Option {
	return skipSyncOption(skip)
}

type platformOption string

func (o platformOption) apply(opts *options) {
	opts.platform = string(o)
}

func WithPlatform(platform string) Option {
	return platformOption(platform)
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

// Collect reads the Exploit-DB index for kind, extracts the referenced files
// and saves the records as a JSON array.
func Collect(ctx context.Context, kind types.ExploitKind, opts ...Option) (string, collect.Stats, error) {
	var index, prefix, sub string
	switch kind {
	case types.ExploitKindExploit:
		index, prefix, sub = exploitdb.ExploitsIndex, "exploits", "exploitdb"
	case types.ExploitKindShellcode:
		index, prefix, sub = exploitdb.ShellcodesIndex, "shellcodes", "shellcode"
	default:
		return "", collect.Stats{}, errors.Errorf("unexpected exploit kind. expected: %q, actual: %q", []types.ExploitKind{types.ExploitKindExploit, types.ExploitKindShellcode}, kind)
	}

	options := &options{
		repository: exploitdb.DefaultRepository,
		repoDir:    utilos.RepoDir("exploitdb"),
		dir:        utilos.RawDir(sub),
	}
	for _, o := range opts {
		o.apply(options)
	}
	if options.name == "" {
		options.name = collect.Filename(prefix, time.Now())
	}

	if !options.skipSync {
		if err := git.Sync(ctx, options.repository, options.repoDir); err != nil {
			return "", collect.Stats{}, errors.Wrap(err, "sync exploitdb")
		}
	}

	slog.Info("Extract Exploit-DB entries", "kind", kind, "dir", options.repoDir, "platform", options.platform, "limit", options.limit)
	pb := func() *progressbar.ProgressBar {
		if options.noProgress {
			return progressbar.DefaultSilent(-1)
		}
		return progressbar.Default(-1, "parsing "+prefix)
	}()
	defer pb.Finish() //nolint:errcheck

	var iopts []exploitdb.IndexOption
	if options.platform != "" {
		iopts = append(iopts, exploitdb.WithPlatform(options.platform))
	}
	records, es, err := extract.Collect(
		exploitdb.Extractor{Root: options.repoDir, Kind: kind},
		exploitdb.Index(filepath.Join(options.repoDir, index), iopts...),
		extract.WithLimit(options.limit),
		extract.WithProgress(func() { _ = pb.Add(1) }),
	)
	if err != nil {
		return "", collect.Stats{}, errors.Wrapf(err, "extract %s", prefix)
	}

	stats := collect.Stats{Processed: es.Processed, Errors: es.Errors}
	path, err := collect.Save(options.dir, options.name, records)
	if err != nil {
		return "", stats, errors.Wrapf(err, "save %s", prefix)
	}
	if path != "" {
		stats.Saved = len(records)
	}

	slog.Info("Collected Exploit-DB entries", "kind", kind, "processed", stats.Processed, "saved", stats.Saved, "errors", stats.Errors)
	return path, stats, nil
}
