package pebble

import (
	"iter"
	"strings"

	pebble "github.com/cockroachdb/pebble/v2"
	"github.com/pkg/errors"

	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/util"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

// pebble: metadata#db -> dbTypes.Metadata

// pebble: vulnerability#<CVE ID> -> types.VulnerabilityRecord

// pebble: exploit#<kind>#<source>#<Exploit ID> -> types.ExploitRecord

const KEY_DELEM = "#"

type Config struct {
	Path    string
	Options *pebble.Options
}

type Connection struct {
	Config *Config

	conn *pebble.DB
}

func (c *Connection) Open() error {
	if c.Config == nil {
		return errors.New("connection config is not set")
	}

	opts := c.Config.Options
	if opts == nil {
		opts = &pebble.Options{}
	}

	db, err := pebble.Open(c.Config.Path, opts)
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
	if err := c.getValue(key("metadata", "db"), false, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

func (c *Connection) PutMetadata(metadata dbTypes.Metadata) error {
	return c.setValue(key("metadata", "db"), false, metadata)
}

func (c *Connection) GetVulnerability(id string) (*types.VulnerabilityRecord, error) {
	var v types.VulnerabilityRecord
	if err := c.getValue(key("vulnerability", id), true, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

func (c *Connection) GetVulnerabilities() iter.Seq2[types.VulnerabilityRecord, error] {
	return func(yield func(types.VulnerabilityRecord, error) bool) {
		if err := c.scan(key("vulnerability", ""), func(k string, bs []byte) (bool, error) {
			var v types.VulnerabilityRecord
			if err := util.Unmarshal(bs, true, &v); err != nil {
				return false, errors.Wrapf(err, "unmarshal %s", k)
			}
			return yield(v, nil), nil
		}); err != nil {
			yield(types.VulnerabilityRecord{}, err)
		}
	}
}

func (c *Connection) PutVulnerabilities(records []types.VulnerabilityRecord) error {
	for _, r := range records {
		if r.ID == "" {
			return errors.New("vulnerability id is empty")
		}

		var prev types.VulnerabilityRecord
		switch err := c.getValue(key("vulnerability", r.ID), true, &prev); {
		case err == nil:
			r = types.Merge(prev, r)
		case errors.Is(err, dbTypes.ErrNotFound):
		default:
			return errors.Wrapf(err, "get vulnerability %s", r.ID)
		}

		if err := c.setValue(key("vulnerability", r.ID), true, r); err != nil {
			return errors.Wrapf(err, "put vulnerability %s", r.ID)
		}
	}
	return nil
}

func (c *Connection) GetExploits(kind types.ExploitKind) iter.Seq2[types.ExploitRecord, error] {
	return func(yield func(types.ExploitRecord, error) bool) {
		if err := c.scan(key("exploit", string(kind), ""), func(k string, bs []byte) (bool, error) {
			var e types.ExploitRecord
			if err := util.Unmarshal(bs, true, &e); err != nil {
				return false, errors.Wrapf(err, "unmarshal %s", k)
			}
			return yield(e, nil), nil
		}); err != nil {
			yield(types.ExploitRecord{}, err)
		}
	}
}

func (c *Connection) PutExploits(records []types.ExploitRecord) error {
	b := c.conn.NewBatch()
	defer b.Close()

	for _, r := range records {
		if r.Kind == "" || r.Source == "" || r.ID == "" {
			return errors.Errorf("unexpected exploit key. expected: %q, actual: %q", []string{"<kind>", "<source>", "<id>"}, []string{string(r.Kind), r.Source, r.ID})
		}

		k := key("exploit", string(r.Kind), r.Source, r.ID)
		bs, err := util.Marshal(r, true)
		if err != nil {
			return errors.Wrapf(err, "marshal %s", k)
		}
		if err := b.Set([]byte(k), bs, nil); err != nil {
			return errors.Wrapf(err, "set %s", k)
		}
	}

	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	return nil
}

func (c *Connection) DeleteAll() error {
	if err := c.conn.DeleteRange([]byte{0x00}, []byte{0xff}, pebble.Sync); err != nil {
		return errors.Wrap(err, "delete range")
	}
	return nil
}

func (c *Connection) Initialize() error {
	return nil
}

func key(parts ...string) string {
	return strings.Join(parts, KEY_DELEM)
}

func (c *Connection) getValue(k string, compress bool, ref any) error {
	bs, closer, err := c.conn.Get([]byte(k))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return errors.Wrapf(dbTypes.ErrNotFound, "get %s", k)
		}
		return errors.Wrapf(err, "get %s", k)
	}
	defer closer.Close() //nolint:errcheck

	if err := util.Unmarshal(bs, compress, ref); err != nil {
		return errors.Wrapf(err, "unmarshal %s", k)
	}

	return nil
}

func (c *Connection) setValue(k string, compress bool, value any) error {
	bs, err := util.Marshal(value, compress)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", k)
	}

	if err := c.conn.Set([]byte(k), bs, pebble.NoSync); err != nil {
		return errors.Wrapf(err, "set %s", k)
	}

	return nil
}

// scan calls fn for every entry whose key starts with prefix, in key order,
// until fn returns false or an error.
func (c *Connection) scan(prefix string, fn func(string, []byte) (bool, error)) error {
	it, err := c.conn.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound([]byte(prefix)),
	})
	if err != nil {
		return errors.Wrapf(err, "new iter %s", prefix)
	}
	defer it.Close() //nolint:errcheck

	for it.First(); it.Valid(); it.Next() {
		bs, err := it.ValueAndErr()
		if err != nil {
			return errors.Wrapf(err, "value %s", it.Key())
		}
		next, err := fn(string(it.Key()), bs)
		if err != nil {
			return errors.WithStack(err)
		}
		if !next {
			return nil
		}
	}
	if err := it.Error(); err != nil {
		return errors.Wrapf(err, "iterate %s", prefix)
	}
	return nil
}

func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
