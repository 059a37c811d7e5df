// Package extract holds the capability shared by every source parser: turn
// one raw unit of a source into one canonical record, or report it absent.
package extract

import (
	"iter"
	"log/slog"

	"github.com/pkg/errors"
)

// Extractor parses a raw unit U into a canonical record R. It never fails for
// malformed input; ok is false when the unit yields no record.
type Extractor[U, R any] interface {
	Extract(U) (record R, ok bool)
}

// Func adapts a plain function to Extractor.
type Func[U, R any] func(U) (R, bool)

func (f Func[U, R]) Extract(u U) (R, bool) {
	return f(u)
}

type Stats struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

type options struct {
	limit    int
	progress func()
}

type Option interface {
	apply(*options)
}

type limitOption int

func (o limitOption) apply(opts *options) {
	opts.limit = int(o)
}

// WithLimit stops collecting once n records were extracted. n <= 0 means no limit.
func WithLimit(n int) Option {
	return limitOption(n)
}

type progressOption func()

func (o progressOption) apply(opts *options) {
	opts.progress = o
}

// WithProgress is called once for every unit consumed.
func WithProgress(fn func()) Option {
	return progressOption(fn)
}

// Collect drains units through e. An error yielded by units is a setup
// failure and aborts the whole collection; absent units are counted and
// skipped.
func Collect[U, R any](e Extractor[U, R], units iter.Seq2[U, error], opts ...Option) ([]R, Stats, error) {
	options := &options{}
	for _, o := range opts {
		o.apply(options)
	}

	var (
		rs    []R
		stats Stats
		n     int
	)
	for u, err := range units {
		n++
		if err != nil {
			return nil, stats, errors.WithStack(err)
		}
		if options.progress != nil {
			options.progress()
		}

		r, ok := e.Extract(u)
		if !ok {
			stats.Errors++
			slog.Debug("skip unit", "position", n)
			continue
		}
		rs = append(rs, r)
		stats.Processed++

		if options.limit > 0 && stats.Processed >= options.limit {
			break
		}
	}
	return rs, stats, nil
}

// Slice yields the elements of us without error, for callers whose units are
// already in memory.
func Slice[U any](us []U) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		for _, u := range us {
			if !yield(u, nil) {
				return
			}
		}
	}
}
