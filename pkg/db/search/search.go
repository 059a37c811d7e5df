package search

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	db "github.com/MaineK00n/exploitgpt/pkg/db/common"
	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/link"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
)

type options struct {
	dbtype string
	dbpath string
	dbopts db.DBOptions
	output io.Writer

	debug bool
}

type Option interface {
	apply(*options)
}

type dbtypeOption string

func (o dbtypeOption) apply(opts *options) {
	opts.dbtype = string(o)
}

func WithDBType(dbtype string) Option {
	return dbtypeOption(dbtype)
}

type dbpathOption string

func (o dbpathOption) apply(opts *options) {
	opts.dbpath = string(o)
}

func WithDBPath(dbpath string) Option {
	return dbpathOption(dbpath)
}

type dboptsOption db.DBOptions

func (o dboptsOption) apply(opts *options) {
	opts.dbopts = db.DBOptions(o)
}

func WithDBOptions(dbopts db.DBOptions) Option {
	return dboptsOption(dbopts)
}

type outputOption struct{ w io.Writer }

func (o outputOption) apply(opts *options) {
	opts.output = o.w
}

func WithOutput(w io.Writer) Option {
	return outputOption{w: w}
}

type debugOption bool

func (o debugOption) apply(opts *options) {
	opts.debug = bool(o)
}

func WithDebug(debug bool) Option {
	return debugOption(debug)
}

// Search prints matching records as indented JSON.
//
//	vulnerability: queries are CVE ids
//	exploits:      queries are <kind> [<CVE ID>...]; without ids every record of kind is printed
func Search(searchType dbTypes.SearchType, queries []string, opts ...Option) error {
	options := &options{
		dbtype: "boltdb",
		dbpath: utilos.DBPath(),
		dbopts: db.DBOptions{BoltDB: &bolt.Options{ReadOnly: true}},
		output: os.Stdout,
		debug:  false,
	}
	for _, o := range opts {
		o.apply(options)
	}

	dbc, err := (&db.Config{
		Type:    options.dbtype,
		Path:    options.dbpath,
		Debug:   options.debug,
		Options: options.dbopts,
	}).New()
	if err != nil {
		return errors.Wrap(err, "new db connection")
	}
	if err := dbc.Open(); err != nil {
		return errors.Wrap(err, "open db")
	}
	defer dbc.Close() //nolint:errcheck

	slog.Info("Get Metadata")
	meta, err := dbc.GetMetadata()
	if err != nil || meta == nil {
		return errors.Wrap(err, "get metadata")
	}
	if meta.SchemaVersion < db.SchemaVersion {
		return errors.Errorf("schema version is old. expected: %d, actual: %d", db.SchemaVersion, meta.SchemaVersion)
	}

	e := json.NewEncoder(options.output)
	e.SetIndent("", "  ")
	e.SetEscapeHTML(false)
	switch searchType {
	case dbTypes.SearchVulnerability:
		if len(queries) == 0 {
			return errors.Errorf("unexpected vulnerability search queries. expected: %q, actual: %q", []string{"<CVE ID>..."}, queries)
		}
		for _, id := range queries {
			slog.Info("Get Vulnerability", "id", id)
			v, err := dbc.GetVulnerability(id)
			if err != nil {
				return errors.Wrapf(err, "get vulnerability %s", id)
			}
			if err := e.Encode(v); err != nil {
				return errors.Wrapf(err, "encode %s", id)
			}
		}
		return nil
	case dbTypes.SearchExploits:
		if len(queries) == 0 {
			return errors.Errorf("unexpected exploits search queries. expected: %q, actual: %q", []string{"<kind>", "<CVE ID>..."}, queries)
		}
		kind := types.ExploitKind(queries[0])
		if kind != types.ExploitKindExploit && kind != types.ExploitKindShellcode {
			return errors.Errorf("unexpected exploit kind. expected: %q, actual: %q", []types.ExploitKind{types.ExploitKindExploit, types.ExploitKindShellcode}, kind)
		}

		slog.Info("Get Exploits", "kind", kind, "cves", queries[1:])
		for r, err := range dbc.GetExploits(kind) {
			if err != nil {
				return errors.Wrapf(err, "get exploits %s", kind)
			}
			if len(queries) > 1 && !slices.ContainsFunc(link.Candidates(r), func(id string) bool {
				return slices.Contains(queries[1:], id)
			}) {
				continue
			}
			if err := e.Encode(r); err != nil {
				return errors.Wrapf(err, "encode %s", r.ID)
			}
		}
		return nil
	default:
		return errors.Errorf("unexpected search type. expected: %q, actual: %q", []dbTypes.SearchType{dbTypes.SearchVulnerability, dbTypes.SearchExploits}, searchType)
	}
}
