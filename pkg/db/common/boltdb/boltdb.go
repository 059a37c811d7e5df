package boltdb

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/util"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

// boltdb: metadata:db -> dbTypes.Metadata

// boltdb: vulnerability:<CVE ID> -> types.VulnerabilityRecord

// boltdb: exploit:<kind>:<source>:<Exploit ID> -> types.ExploitRecord

type Config struct {
	Path    string
	Options *bolt.Options
}

type Connection struct {
	Config *Config

	conn *bolt.DB
}

func (c *Connection) Open() error {
	if c.Config == nil {
		return errors.New("connection config is not set")
	}

	db, err := bolt.Open(c.Config.Path, 0600, c.Config.Options)
	if err != nil {
		return errors.WithStack(err)
	}
	c.conn = db
	return nil
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Connection) GetMetadata() (*dbTypes.Metadata, error) {
	var v dbTypes.Metadata
	if err := c.conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(metadataBucket))
		if b == nil {
			return errors.Errorf("bucket:%q is not exists", metadataBucket)
		}

		bs := b.Get([]byte("db"))
		if len(bs) == 0 {
			return errors.Wrapf(dbTypes.ErrNotFound, "metadata:db")
		}
		if err := util.Unmarshal(bs, false, &v); err != nil {
			return errors.Wrap(err, "unmarshal metadata:db")
		}

		return nil
	}); err != nil {
		return nil, errors.WithStack(err)
	}
	return &v, nil
}

func (c *Connection) PutMetadata(metadata dbTypes.Metadata) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return errors.Wrapf(err, "create bucket:%q if not exists", metadataBucket)
		}

		bs, err := util.Marshal(metadata, false)
		if err != nil {
			return errors.Wrap(err, "marshal metadata")
		}

		if err := b.Put([]byte("db"), bs); err != nil {
			return errors.Wrap(err, "put metadata:db")
		}

		return nil
	})
}

func (c *Connection) GetVulnerability(id string) (*types.VulnerabilityRecord, error) {
	var v types.VulnerabilityRecord
	if err := c.conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(vulnerabilityBucket))
		if b == nil {
			return errors.Errorf("bucket:%q is not exists", vulnerabilityBucket)
		}

		bs := b.Get([]byte(id))
		if len(bs) == 0 {
			return errors.Wrapf(dbTypes.ErrNotFound, "vulnerability:%s", id)
		}
		if err := util.Unmarshal(bs, true, &v); err != nil {
			return errors.Wrapf(err, "unmarshal vulnerability:%s", id)
		}

		return nil
	}); err != nil {
		return nil, errors.WithStack(err)
	}
	return &v, nil
}

func (c *Connection) GetVulnerabilities() iter.Seq2[types.VulnerabilityRecord, error] {
	return func(yield func(types.VulnerabilityRecord, error) bool) {
		if err := c.conn.View(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(vulnerabilityBucket))
			if b == nil {
				return errors.Errorf("bucket:%q is not exists", vulnerabilityBucket)
			}

			cur := b.Cursor()
			for k, bs := cur.First(); k != nil; k, bs = cur.Next() {
				var v types.VulnerabilityRecord
				if err := util.Unmarshal(bs, true, &v); err != nil {
					return errors.Wrapf(err, "unmarshal vulnerability:%s", k)
				}
				if !yield(v, nil) {
					return nil
				}
			}
			return nil
		}); err != nil {
			yield(types.VulnerabilityRecord{}, errors.WithStack(err))
		}
	}
}

func (c *Connection) PutVulnerabilities(records []types.VulnerabilityRecord) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(vulnerabilityBucket))
		if err != nil {
			return errors.Wrapf(err, "create bucket:%q if not exists", vulnerabilityBucket)
		}

		for _, r := range records {
			if r.ID == "" {
				return errors.New("vulnerability id is empty")
			}

			if bs := b.Get([]byte(r.ID)); len(bs) > 0 {
				var prev types.VulnerabilityRecord
				if err := util.Unmarshal(bs, true, &prev); err != nil {
					return errors.Wrapf(err, "unmarshal vulnerability:%s", r.ID)
				}
				r = types.Merge(prev, r)
			}

			bs, err := util.Marshal(r, true)
			if err != nil {
				return errors.Wrapf(err, "marshal vulnerability:%s", r.ID)
			}
			if err := b.Put([]byte(r.ID), bs); err != nil {
				return errors.Wrapf(err, "put vulnerability:%s", r.ID)
			}
		}

		return nil
	})
}

func (c *Connection) GetExploits(kind types.ExploitKind) iter.Seq2[types.ExploitRecord, error] {
	return func(yield func(types.ExploitRecord, error) bool) {
		if err := c.conn.View(func(tx *bolt.Tx) error {
			eb := tx.Bucket([]byte(exploitBucket))
			if eb == nil {
				return errors.Errorf("bucket:%q is not exists", exploitBucket)
			}

			kb := eb.Bucket([]byte(kind))
			if kb == nil {
				return nil
			}

			kc := kb.Cursor()
			for source, v := kc.First(); source != nil; source, v = kc.Next() {
				if v != nil {
					continue
				}
				sc := kb.Bucket(source).Cursor()
				for k, bs := sc.First(); k != nil; k, bs = sc.Next() {
					var e types.ExploitRecord
					if err := util.Unmarshal(bs, true, &e); err != nil {
						return errors.Wrapf(err, "unmarshal %s", fmt.Sprintf("exploit:%s:%s:%s", kind, source, k))
					}
					if !yield(e, nil) {
						return nil
					}
				}
			}
			return nil
		}); err != nil {
			yield(types.ExploitRecord{}, errors.WithStack(err))
		}
	}
}

func (c *Connection) PutExploits(records []types.ExploitRecord) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		eb, err := tx.CreateBucketIfNotExists([]byte(exploitBucket))
		if err != nil {
			return errors.Wrapf(err, "create bucket:%q if not exists", exploitBucket)
		}

		for _, r := range records {
			if r.Kind == "" || r.Source == "" || r.ID == "" {
				return errors.Errorf("unexpected exploit key. expected: %q, actual: %q", []string{"<kind>", "<source>", "<id>"}, []string{string(r.Kind), r.Source, r.ID})
			}

			kb, err := eb.CreateBucketIfNotExists([]byte(r.Kind))
			if err != nil {
				return errors.Wrapf(err, "create bucket:%q if not exists", fmt.Sprintf("exploit:%s", r.Kind))
			}
			sb, err := kb.CreateBucketIfNotExists([]byte(r.Source))
			if err != nil {
				return errors.Wrapf(err, "create bucket:%q if not exists", fmt.Sprintf("exploit:%s:%s", r.Kind, r.Source))
			}

			bs, err := util.Marshal(r, true)
			if err != nil {
				return errors.Wrapf(err, "marshal %s", fmt.Sprintf("exploit:%s:%s:%s", r.Kind, r.Source, r.ID))
			}
			if err := sb.Put([]byte(r.ID), bs); err != nil {
				return errors.Wrapf(err, "put %s", fmt.Sprintf("exploit:%s:%s:%s", r.Kind, r.Source, r.ID))
			}
		}

		return nil
	})
}

func (c *Connection) DeleteAll() error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		var ns [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			ns = append(ns, name)
			return nil
		}); err != nil {
			return errors.Wrap(err, "foreach root")
		}

		for _, n := range ns {
			if err := tx.DeleteBucket(n); err != nil {
				return errors.Wrapf(err, "delete bucket:%q", n)
			}
		}

		return nil
	})
}

func (c *Connection) Initialize() error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		for _, n := range []string{metadataBucket, vulnerabilityBucket, exploitBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(n)); err != nil {
				return errors.Wrapf(err, "create bucket:%q if not exists", n)
			}
		}
		return nil
	})
}
