// Package collect holds what the source specific collectors share: run
// statistics and the naming and saving of their JSON array output.
package collect

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/MaineK00n/exploitgpt/pkg/util/file"
)

const timestampLayout = "20060102_150405"

type Stats struct {
	Processed int `json:"processed"`
	Saved     int `json:"saved"`
	Errors    int `json:"errors"`
}

// Filename returns <prefix>_<YYYYmmdd_HHMMSS>.json for t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, t.Format(timestampLayout))
}

// Save writes records as a JSON array to dir/name and returns the path. An
// empty record set is not written and yields an empty path.
func Save[T any](dir, name string, records []T) (string, error) {
	if len(records) == 0 {
		slog.Warn("No records to save", "dir", dir)
		return "", nil
	}

	path := filepath.Join(dir, name)
	if err := file.WriteJSON(path, records); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	slog.Info("Saved records", "path", path, "records", len(records))
	return path, nil
}
