// Package exploitdb extracts exploit and shellcode records from an
// Exploit-DB checkout: a CSV index whose rows point at files in the tree.
package exploitdb

import (
	"encoding/csv"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const (
	DefaultRepository = "https://gitlab.com/exploit-database/exploitdb.git"

	ExploitsIndex   = "files_exploits.csv"
	ShellcodesIndex = "files_shellcodes.csv"
)

// Entry is one row of an index. Column names are matched case-insensitively;
// date is read from "date" or "date_published".
type Entry struct {
	ID          string
	File        string
	Description string
	Date        string
	Author      string
	Platform    string
	Type        string
	Codes       string
}

var aliases = map[string]string{
	"id":             "id",
	"file":           "file",
	"description":    "description",
	"date":           "date",
	"date_published": "date",
	"author":         "author",
	"platform":       "platform",
	"type":           "type",
	"codes":          "codes",
}

type indexOptions struct {
	platform string
}

type IndexOption interface {
	apply(*indexOptions)
}

type platformOption string

func (o platformOption) apply(opts *indexOptions) {
	opts.platform = string(o)
}

// WithPlatform keeps only rows whose platform contains p, ignoring case.
func WithPlatform(p string) IndexOption {
	return platformOption(p)
}

// Index yields the rows of the CSV index at path. A missing or unreadable
// index is yielded as an error; a malformed row is yielded as an empty Entry
// so that it is counted and skipped by the extractor.
func Index(path string, opts ...IndexOption) iter.Seq2[Entry, error] {
	options := &indexOptions{}
	for _, o := range opts {
		o.apply(options)
	}

	return func(yield func(Entry, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Entry{}, errors.Wrapf(err, "open %s", path))
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		header, err := r.Read()
		if err != nil {
			yield(Entry{}, errors.Wrapf(err, "read header of %s", path))
			return
		}
		columns := make(map[string]int, len(header))
		for i, h := range header {
			name, ok := aliases[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))]
			if !ok {
				continue
			}
			if _, dup := columns[name]; !dup {
				columns[name] = i
			}
		}
		for _, c := range []string{"id", "file"} {
			if _, ok := columns[c]; !ok {
				yield(Entry{}, errors.Errorf("unexpected header of %s. expected: %q column, actual: %q", path, c, header))
				return
			}
		}

		for {
			row, err := r.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					slog.Debug("skip malformed row", "path", path, "line", perr.Line, "err", perr.Err)
					if !yield(Entry{}, nil) {
						return
					}
					continue
				}
				yield(Entry{}, errors.Wrapf(err, "read %s", path))
				return
			}

			get := func(name string) string {
				i, ok := columns[name]
				if !ok || i >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[i])
			}
			e := Entry{
				ID:          get("id"),
				File:        get("file"),
				Description: get("description"),
				Date:        get("date"),
				Author:      get("author"),
				Platform:    get("platform"),
				Type:        get("type"),
				Codes:       get("codes"),
			}
			if options.platform != "" && !strings.Contains(strings.ToLower(e.Platform), strings.ToLower(options.platform)) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Extractor reads the file an index row refers to. Root is the checkout the
// file paths are relative to.
type Extractor struct {
	Root string
	Kind types.ExploitKind
}

func (e Extractor) Extract(entry Entry) (types.ExploitRecord, bool) {
	if entry.ID == "" || entry.File == "" {
		return types.ExploitRecord{}, false
	}

	// rows pointing outside the checkout are treated as absent files
	name := filepath.FromSlash(entry.File)
	if !filepath.IsLocal(name) {
		return types.ExploitRecord{}, false
	}

	bs, err := os.ReadFile(filepath.Join(e.Root, name))
	if err != nil {
		return types.ExploitRecord{}, false
	}
	content, err := decode(bs)
	if err != nil {
		return types.ExploitRecord{}, false
	}

	return types.ExploitRecord{
		ID:          entry.ID,
		Kind:        e.Kind,
		Name:        entry.Description,
		Description: entry.Description,
		Date:        entry.Date,
		Author:      entry.Author,
		Platform:    entry.Platform,
		Type:        entry.Type,
		Codes:       entry.Codes,
		Content:     content,
		Source:      types.SourceExploitDB,
		Language:    Language(entry.File),
	}, true
}

// decode returns bs as UTF-8 text, reading it as ISO-8859-1 when it is not
// valid UTF-8.
func decode(bs []byte) (string, error) {
	if utf8.Valid(bs) {
		return string(bs), nil
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(bs)
	if err != nil {
		return "", errors.Wrap(err, "decode latin-1")
	}
	return string(s), nil
}

var languages = map[string]string{
	".asm":  "asm",
	".c":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".cs":   "csharp",
	".go":   "go",
	".htm":  "html",
	".html": "html",
	".java": "java",
	".js":   "javascript",
	".lua":  "lua",
	".php":  "php",
	".pl":   "perl",
	".ps1":  "powershell",
	".py":   "python",
	".rb":   "ruby",
	".sh":   "shell",
	".txt":  "text",
}

// Language guesses the source language of file from its extension.
func Language(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	if l, ok := languages[ext]; ok {
		return l
	}
	return strings.TrimPrefix(ext, ".")
}
