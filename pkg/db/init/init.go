package init

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	db "github.com/MaineK00n/exploitgpt/pkg/db/common"
	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
	"github.com/MaineK00n/exploitgpt/pkg/version"
)

type options struct {
	dbtype string
	dbpath string
	dbopts db.DBOptions

	createdBy string
	runID     string

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

type createdByOption string

func (o createdByOption) apply(opts *options) {
	opts.createdBy = string(o)
}

// WithCreatedBy overrides the creator recorded in the metadata.
func WithCreatedBy(createdBy string) Option {
	return createdByOption(createdBy)
}

type runIDOption string

func (o runIDOption) apply(opts *options) {
	opts.runID = string(o)
}

// WithRunID overrides the generated run id recorded in the metadata.
func WithRunID(runID string) Option {
	return runIDOption(runID)
}

type debugOption bool

func (o debugOption) apply(opts *options) {
	opts.debug = bool(o)
}

func WithDebug(debug bool) Option {
	return debugOption(debug)
}

// Init wipes the db, recreates its layout and stores fresh metadata, which
// is returned.
func Init(opts ...Option) (dbTypes.Metadata, error) {
	options := &options{
		dbtype:    "boltdb",
		dbpath:    utilos.DBPath(),
		dbopts:    db.DBOptions{BoltDB: bolt.DefaultOptions},
		createdBy: version.String(),
		runID:     uuid.NewString(),
		debug:     false,
	}
	for _, o := range opts {
		o.apply(options)
	}

	switch options.dbtype {
	case "boltdb", "pebble", "sqlite3":
		if err := os.MkdirAll(filepath.Dir(options.dbpath), 0755); err != nil {
			return dbTypes.Metadata{}, errors.Wrapf(err, "mkdir %s", filepath.Dir(options.dbpath))
		}
	}

	dbc, err := (&db.Config{
		Type:    options.dbtype,
		Path:    options.dbpath,
		Debug:   options.debug,
		Options: options.dbopts,
	}).New()
	if err != nil {
		return dbTypes.Metadata{}, errors.Wrap(err, "new db connection")
	}
	if err := dbc.Open(); err != nil {
		return dbTypes.Metadata{}, errors.Wrap(err, "open db")
	}
	defer dbc.Close() //nolint:errcheck

	slog.Info("Delete All Data", "dbtype", options.dbtype, "dbpath", options.dbpath)
	if err := dbc.DeleteAll(); err != nil {
		return dbTypes.Metadata{}, errors.Wrap(err, "delete all")
	}

	slog.Info("Initialize DB")
	if err := dbc.Initialize(); err != nil {
		return dbTypes.Metadata{}, errors.Wrap(err, "initialize")
	}

	meta := dbTypes.Metadata{
		SchemaVersion: db.SchemaVersion,
		CreatedBy:     options.createdBy,
		LastModified:  time.Now().UTC(),
		RunID:         options.runID,
	}
	slog.Info("Put Metadata", "run_id", meta.RunID)
	if err := dbc.PutMetadata(meta); err != nil {
		return dbTypes.Metadata{}, errors.Wrap(err, "put metadata")
	}

	return meta, nil
}
