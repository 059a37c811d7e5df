package add

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	db "github.com/MaineK00n/exploitgpt/pkg/db/common"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
	"github.com/MaineK00n/exploitgpt/pkg/version"
)

type Type string

const (
	TypeVulnerability Type = "vulnerability"
	TypeExploit       Type = "exploit"
)

type options struct {
	dbtype string
	dbpath string
	dbopts db.DBOptions

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

type debugOption bool

func (o debugOption) apply(opts *options) {
	opts.debug = bool(o)
}

func WithDebug(debug bool) Option {
	return debugOption(debug)
}

// Add imports a JSON array written by a collect command into the db.
func Add(t Type, path string, opts ...Option) error {
	options := &options{
		dbtype: "boltdb",
		dbpath: utilos.DBPath(),
		dbopts: db.DBOptions{BoltDB: bolt.DefaultOptions},
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
	if meta.SchemaVersion != db.SchemaVersion {
		return errors.Errorf("unexpected schema version. expected: %d, actual: %d", db.SchemaVersion, meta.SchemaVersion)
	}

	switch t {
	case TypeVulnerability:
		var rs []types.VulnerabilityRecord
		if err := file.ReadJSON(path, &rs); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		slog.Info("Put Vulnerabilities", "path", path, "records", len(rs))
		if err := dbc.PutVulnerabilities(rs); err != nil {
			return errors.Wrap(err, "put vulnerabilities")
		}
	case TypeExploit:
		var rs []types.ExploitRecord
		if err := file.ReadJSON(path, &rs); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		slog.Info("Put Exploits", "path", path, "records", len(rs))
		if err := dbc.PutExploits(rs); err != nil {
			return errors.Wrap(err, "put exploits")
		}
	default:
		return errors.Errorf("unexpected add type. expected: %q, actual: %q", []Type{TypeVulnerability, TypeExploit}, t)
	}

	slog.Info("Put Metadata")
	meta.CreatedBy = version.String()
	meta.LastModified = time.Now().UTC()
	if err := dbc.PutMetadata(*meta); err != nil {
		return errors.Wrap(err, "put metadata")
	}

	return nil
}
