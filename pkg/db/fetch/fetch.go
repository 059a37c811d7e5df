package fetch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	progressbar "github.com/schollz/progressbar/v3"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/MaineK00n/exploitgpt/pkg/db/common"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

const MediaType = "application/vnd.exploitgpt.db.layer.v1+zstd"

type options struct {
	dbpath    string
	plainHTTP bool

	noProgress bool
	debug      bool
}

type Option interface {
	apply(*options)
}

type dbpathOption string

func (o dbpathOption) apply(opts *options) {
	opts.dbpath = string(o)
}

func WithDBPath(dbpath string) Option {
	return dbpathOption(dbpath)
}

type plainHTTPOption bool

func (o plainHTTPOption) apply(opts *options) {
	opts.plainHTTP = bool(o)
}

func WithPlainHTTP(plainHTTP bool) Option {
	return plainHTTPOption(plainHTTP)
}

type debugOption bool

func (o debugOption) apply(opts *options) {
	opts.debug = bool(o)
}

func WithDebug(debug bool) Option {
	return debugOption(debug)
}

type noProgressOption bool

func (o noProgressOption) apply(opts *options) {
	opts.noProgress = bool(o)
}

func WithNoProgress(noProgress bool) Option {
	return noProgressOption(noProgress)
}

// Fetch downloads a prebuilt boltdb from an OCI repository reference such as
// <registry>/<repository>:<tag>.
func Fetch(ctx context.Context, repository string, opts ...Option) error {
	options := newOptions(opts...)

	slog.Info("Fetch exploitgpt.db", "repository", repository)

	repo, err := remote.NewRepository(repository)
	if err != nil {
		return errors.Wrapf(err, "create client for %s", repository)
	}
	if repo.Reference.Reference == "" {
		return errors.Errorf("unexpected repository format. expected: %q, actual: %q", []string{"<repository>@<digest>", "<repository>:<tag>", "<repository>:<tag>@<digest>"}, repository)
	}
	repo.PlainHTTP = options.plainHTTP

	return fetch(ctx, repo, repo.Reference.Reference, options)
}

// FetchFrom is Fetch reading from an arbitrary OCI target.
func FetchFrom(ctx context.Context, src oras.ReadOnlyTarget, ref string, opts ...Option) error {
	return fetch(ctx, src, ref, newOptions(opts...))
}

func newOptions(opts ...Option) *options {
	options := &options{
		dbpath:     utilos.DBPath(),
		debug:      false,
		noProgress: false,
	}
	for _, o := range opts {
		o.apply(options)
	}
	return options
}

func fetch(ctx context.Context, src oras.ReadOnlyTarget, ref string, options *options) error {
	ms := memory.New()

	manifestDescriptor, err := oras.Copy(ctx, src, ref, ms, ref, oras.DefaultCopyOptions)
	if err != nil {
		return errors.Wrapf(err, "copy from %s", ref)
	}

	r, err := ms.Fetch(ctx, manifestDescriptor)
	if err != nil {
		return errors.Wrap(err, "fetch manifest")
	}
	defer r.Close()

	var manifest ocispec.Manifest
	if err := json.NewDecoder(content.NewVerifyReader(r, manifestDescriptor)).Decode(&manifest); err != nil {
		return errors.Wrap(err, "decode manifest")
	}

	l := func() *ocispec.Descriptor {
		for _, l := range manifest.Layers {
			if l.MediaType == MediaType {
				return &l
			}
		}
		return nil
	}()
	if l == nil {
		return errors.Errorf("not found digest and filename from layers, actual layers: %#v", manifest.Layers)
	}

	lr, err := ms.Fetch(ctx, *l)
	if err != nil {
		return errors.Wrap(err, "fetch content")
	}
	defer lr.Close()

	d, err := zstd.NewReader(content.NewVerifyReader(lr, *l))
	if err != nil {
		return errors.Wrap(err, "new zstd reader")
	}
	defer d.Close()

	pb := func() *progressbar.ProgressBar {
		if options.noProgress {
			return progressbar.DefaultBytesSilent(-1)
		}
		return progressbar.DefaultBytes(-1, "downloading")
	}()
	defer pb.Finish() //nolint:errcheck

	if err := file.Write(options.dbpath, func(w io.Writer) error {
		if _, err := d.WriteTo(io.MultiWriter(w, pb)); err != nil {
			return errors.Wrap(err, "decompress")
		}
		return nil
	}); err != nil {
		return errors.Wrapf(err, "write to %s", options.dbpath)
	}

	c := common.Config{
		Type:  "boltdb",
		Path:  options.dbpath,
		Debug: options.debug,
	}
	dbc, err := c.New()
	if err != nil {
		return errors.Wrapf(err, "new db connection")
	}
	if err := dbc.Open(); err != nil {
		return errors.Wrapf(err, "db open")
	}
	defer dbc.Close() //nolint:errcheck

	metadata, err := dbc.GetMetadata()
	if err != nil || metadata == nil {
		return errors.Wrapf(err, "get metadata")
	}
	if metadata.SchemaVersion != common.SchemaVersion {
		return errors.Errorf("unexpected schema version. expected: %d, actual: %d", common.SchemaVersion, metadata.SchemaVersion)
	}

	metadata.Downloaded = func() *time.Time {
		t := time.Now().UTC()
		return &t
	}()
	if err := dbc.PutMetadata(*metadata); err != nil {
		return errors.Wrapf(err, "put metadata")
	}

	return nil
}
