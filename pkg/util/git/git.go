// Package git keeps shallow clones of upstream source repositories.
package git

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

type options struct {
	git string
}

type Option interface {
	apply(*options)
}

type gitOption string

func (o gitOption) apply(opts *options) {
	opts.git = string(o)
}

// WithGit sets the git executable.
func WithGit(path string) Option {
	return gitOption(path)
}

// Sync makes dir a shallow clone of repository, pulling when a clone already
// exists.
func Sync(ctx context.Context, repository, dir string, opts ...Option) error {
	options := &options{
		git: "git",
	}
	for _, o := range opts {
		o.apply(options)
	}

	var args []string
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		slog.Info("Pull repository", "dir", dir)
		args = []string{"-C", dir, "pull", "--ff-only"}
	} else {
		if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
			return errors.Wrapf(err, "mkdir %s", filepath.Dir(dir))
		}
		slog.Info("Clone repository", "repository", repository, "dir", dir)
		args = []string{"clone", "--depth", "1", repository, dir}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, options.git, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "git %v: %s", args, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
