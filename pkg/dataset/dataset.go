// Package dataset links collected vulnerabilities and exploits and writes the
// train/validation/test partitions together with a metadata.json summary.
package dataset

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	db "github.com/MaineK00n/exploitgpt/pkg/db/common"
	"github.com/MaineK00n/exploitgpt/pkg/format"
	"github.com/MaineK00n/exploitgpt/pkg/link"
	"github.com/MaineK00n/exploitgpt/pkg/split"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
	utilos "github.com/MaineK00n/exploitgpt/pkg/util/os"
	"github.com/MaineK00n/exploitgpt/pkg/version"
)

const MetadataFile = "metadata.json"

type Stats struct {
	CVEs        int `json:"cves_loaded"`
	Exploits    int `json:"exploits_loaded"`
	Metasploit  int `json:"metasploit_loaded"`
	Shellcodes  int `json:"shellcodes_loaded"`
	LinkedPairs int `json:"linked_pairs"`
	Examples    int `json:"examples"`
	Train       int `json:"train"`
	Validation  int `json:"validation"`
	Test        int `json:"test"`
}

type Metadata struct {
	RunID      string    `json:"run_id"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Input      string    `json:"input"`
	Seed       uint64    `json:"seed"`
	TrainRatio float64   `json:"train_ratio"`
	ValRatio   float64   `json:"validation_ratio"`
	Stats      Stats     `json:"stats"`
}

type options struct {
	cves       string
	exploits   string
	metasploit string
	shellcodes string

	fromDB bool
	dbtype string
	dbpath string
	dbopts db.DBOptions
	debug  bool

	trainRatio float64
	valRatio   float64
	seed       uint64
	dir        string
}

type Option interface {
	apply(*options)
}

type cvesOption string

func (o cvesOption) apply(opts *options) {
	opts.cves = string(o)
}

func WithCVEs(path string) Option {
	return cvesOption(path)
}

type exploitsOption string

func (o exploitsOption) apply(opts *options) {
	opts.exploits = string(o)
}

func WithExploits(path string) Option {
	return exploitsOption(path)
}

type metasploitOption string

func (o metasploitOption) apply(opts *options) {
	opts.metasploit = string(o)
}

func WithMetasploit(path string) Option {
	return metasploitOption(path)
}

type shellcodesOption string

func (o shellcodesOption) apply(opts *options) {
	opts.shellcodes = string(o)
}

func WithShellcodes(path string) Option {
	return shellcodesOption(path)
}

type fromDBOption bool

func (o fromDBOption) apply(opts *options) {
	opts.fromDB = bool(o)
}

// WithFromDB reads every input from the intermediate db instead of files.
func WithFromDB(fromDB bool) Option {
	return fromDBOption(fromDB)
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

type trainRatioOption float64

func (o trainRatioOption) apply(opts *options) {
	opts.trainRatio = float64(o)
}

func WithTrainRatio(ratio float64) Option {
	return trainRatioOption(ratio)
}

type valRatioOption float64

func (o valRatioOption) apply(opts *options) {
	opts.valRatio = float64(o)
}

func WithValRatio(ratio float64) Option {
	return valRatioOption(ratio)
}

type seedOption uint64

func (o seedOption) apply(opts *options) {
	opts.seed = uint64(o)
}

func WithSeed(seed uint64) Option {
	return seedOption(seed)
}

type dirOption string

func (o dirOption) apply(opts *options) {
	opts.dir = string(o)
}

func WithDir(dir string) Option {
	return dirOption(dir)
}

type inputs struct {
	cves       []types.VulnerabilityRecord
	exploits   []types.ExploitRecord
	metasploit []types.ExploitRecord
	shellcodes []types.ExploitRecord
}

func Build(opts ...Option) (Metadata, error) {
	options := &options{
		dbtype:     "boltdb",
		dbpath:     utilos.DBPath(),
		dbopts:     db.DBOptions{BoltDB: bolt.DefaultOptions},
		trainRatio: split.DefaultTrainRatio,
		valRatio:   split.DefaultValRatio,
		dir:        utilos.DatasetDir(),
	}
	for _, o := range opts {
		o.apply(options)
	}

	var (
		in    inputs
		input string
		err   error
	)
	if options.fromDB {
		input = options.dbtype
		in, err = loadDB(options)
	} else {
		input = "file"
		in, err = loadFiles(options)
	}
	if err != nil {
		return Metadata{}, errors.Wrap(err, "load inputs")
	}
	slog.Info("Loaded inputs", "cves", len(in.cves), "exploits", len(in.exploits), "metasploit", len(in.metasploit), "shellcodes", len(in.shellcodes))

	slog.Info("Link CVEs to exploits")
	pairs := link.Link(link.NewMap(in.cves), append(append([]types.ExploitRecord{}, in.exploits...), in.metasploit...))

	slog.Info("Format examples", "pairs", len(pairs), "shellcodes", len(in.shellcodes))
	examples := format.Format(pairs, in.shellcodes)

	slog.Info("Split examples", "examples", len(examples), "seed", options.seed)
	parts, err := split.Split(examples, options.trainRatio, options.valRatio, split.NewRand(options.seed))
	if err != nil {
		return Metadata{}, errors.Wrap(err, "split")
	}
	if err := split.Save(options.dir, parts); err != nil {
		return Metadata{}, errors.Wrap(err, "save partitions")
	}

	meta := Metadata{
		RunID:      uuid.NewString(),
		CreatedBy:  version.String(),
		CreatedAt:  time.Now().UTC(),
		Input:      input,
		Seed:       options.seed,
		TrainRatio: options.trainRatio,
		ValRatio:   options.valRatio,
		Stats: Stats{
			CVEs:        len(in.cves),
			Exploits:    len(in.exploits),
			Metasploit:  len(in.metasploit),
			Shellcodes:  len(in.shellcodes),
			LinkedPairs: len(pairs),
			Examples:    len(examples),
			Train:       len(parts.Train),
			Validation:  len(parts.Validation),
			Test:        len(parts.Test),
		},
	}
	if err := file.WriteJSON(filepath.Join(options.dir, MetadataFile), meta); err != nil {
		return Metadata{}, errors.Wrap(err, "write metadata")
	}

	return meta, nil
}

func loadFiles(options *options) (inputs, error) {
	if options.cves == "" || options.exploits == "" {
		return inputs{}, errors.New("cves and exploits files are required unless reading from the db")
	}

	var in inputs
	if err := file.ReadJSON(options.cves, &in.cves); err != nil {
		return inputs{}, errors.Wrap(err, "read cves")
	}
	if err := file.ReadJSON(options.exploits, &in.exploits); err != nil {
		return inputs{}, errors.Wrap(err, "read exploits")
	}
	if options.metasploit != "" {
		if err := file.ReadJSON(options.metasploit, &in.metasploit); err != nil {
			return inputs{}, errors.Wrap(err, "read metasploit modules")
		}
	}
	if options.shellcodes != "" {
		if err := file.ReadJSON(options.shellcodes, &in.shellcodes); err != nil {
			return inputs{}, errors.Wrap(err, "read shellcodes")
		}
	}
	return in, nil
}

func loadDB(options *options) (inputs, error) {
	dbc, err := (&db.Config{
		Type:    options.dbtype,
		Path:    options.dbpath,
		Debug:   options.debug,
		Options: options.dbopts,
	}).New()
	if err != nil {
		return inputs{}, errors.Wrap(err, "new db connection")
	}
	if err := dbc.Open(); err != nil {
		return inputs{}, errors.Wrap(err, "open db")
	}
	defer dbc.Close() //nolint:errcheck

	meta, err := dbc.GetMetadata()
	if err != nil || meta == nil {
		return inputs{}, errors.Wrap(err, "get metadata")
	}
	if meta.SchemaVersion != db.SchemaVersion {
		return inputs{}, errors.Errorf("unexpected schema version. expected: %d, actual: %d", db.SchemaVersion, meta.SchemaVersion)
	}

	var in inputs
	for r, err := range dbc.GetVulnerabilities() {
		if err != nil {
			return inputs{}, errors.Wrap(err, "get vulnerabilities")
		}
		in.cves = append(in.cves, r)
	}
	for r, err := range dbc.GetExploits(types.ExploitKindExploit) {
		if err != nil {
			return inputs{}, errors.Wrap(err, "get exploits")
		}
		switch r.Source {
		case types.SourceMetasploit:
			in.metasploit = append(in.metasploit, r)
		default:
			in.exploits = append(in.exploits, r)
		}
	}
	for r, err := range dbc.GetExploits(types.ExploitKindShellcode) {
		if err != nil {
			return inputs{}, errors.Wrap(err, "get shellcodes")
		}
		in.shellcodes = append(in.shellcodes, r)
	}
	return in, nil
}
