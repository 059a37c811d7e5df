package common

import (
	"iter"

	"github.com/pkg/errors"
	"github.com/redis/rueidis"
	bolt "go.etcd.io/bbolt"
	"gorm.io/gorm"

	"github.com/MaineK00n/exploitgpt/pkg/db/common/boltdb"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/pebble"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/rdb"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/redis"
	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const (
	SchemaVersion = 0
)

var DBTypes = []string{"boltdb", "pebble", "redis", "sqlite3", "mysql", "postgres"}

type DB interface {
	Open() error
	Close() error

	GetMetadata() (*dbTypes.Metadata, error)
	PutMetadata(dbTypes.Metadata) error

	GetVulnerability(string) (*types.VulnerabilityRecord, error)
	GetVulnerabilities() iter.Seq2[types.VulnerabilityRecord, error]
	PutVulnerabilities([]types.VulnerabilityRecord) error

	GetExploits(types.ExploitKind) iter.Seq2[types.ExploitRecord, error]
	PutExploits([]types.ExploitRecord) error

	DeleteAll() error
	Initialize() error
}

type Config struct {
	Type    string
	Path    string
	Debug   bool
	Options DBOptions
}

type DBOptions struct {
	BoltDB *bolt.Options
	Redis  *rueidis.ClientOption
	RDB    []gorm.Option
}

func (c *Config) New() (DB, error) {
	switch c.Type {
	case "boltdb":
		return &boltdb.Connection{Config: &boltdb.Config{Path: c.Path, Options: c.Options.BoltDB}}, nil
	case "pebble":
		return &pebble.Connection{Config: &pebble.Config{Path: c.Path}}, nil
	case "redis":
		conf := c.Options.Redis
		if conf == nil {
			conf = &rueidis.ClientOption{InitAddress: []string{c.Path}}
		}
		return &redis.Connection{Config: conf}, nil
	case "sqlite3", "mysql", "postgres":
		return &rdb.Connection{Config: &rdb.Config{Type: c.Type, Path: c.Path, Debug: c.Debug, Options: c.Options.RDB}}, nil
	default:
		return nil, errors.Errorf("%s is not support dbtype", c.Type)
	}
}
