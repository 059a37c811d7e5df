package redis

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/pkg/errors"
	"github.com/redis/rueidis"

	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/util"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

// redis: HASH KEY: "metadata" FIELD: "db" VALUE: dbTypes.Metadata

// redis: HASH KEY: "vulnerability" FIELD: <CVE ID> VALUE: types.VulnerabilityRecord

// redis: SET KEY: "exploit#<kind>" MEMBER: <source>

// redis: HASH KEY: "exploit#<kind>#<source>" FIELD: <Exploit ID> VALUE: types.ExploitRecord

type Connection struct {
	Config *rueidis.ClientOption

	conn rueidis.Client
}

func (c *Connection) Open() error {
	if c.Config == nil {
		return errors.New("connection config is not set")
	}

	client, err := rueidis.NewClient(*c.Config)
	if err != nil {
		return errors.WithStack(err)
	}
	c.conn = client
	return nil
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	c.conn.Close()
	return nil
}

func (c *Connection) GetMetadata() (*dbTypes.Metadata, error) {
	bs, err := c.conn.Do(context.TODO(), c.conn.B().Hget().Key("metadata").Field("db").Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, errors.Wrapf(dbTypes.ErrNotFound, "HGET %s %s", "metadata", "db")
		}
		return nil, errors.Wrapf(err, "HGET %s %s", "metadata", "db")
	}

	var v dbTypes.Metadata
	if err := util.Unmarshal(bs, false, &v); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", "metadata -> db")
	}

	return &v, nil
}

func (c *Connection) PutMetadata(metadata dbTypes.Metadata) error {
	bs, err := util.Marshal(metadata, false)
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}

	if err := c.conn.Do(context.TODO(), c.conn.B().Hset().Key("metadata").FieldValue().FieldValue("db", string(bs)).Build()).Error(); err != nil {
		return errors.Wrapf(err, "HSET %s %s %q", "metadata", "db", string(bs))
	}

	return nil
}

func (c *Connection) GetVulnerability(id string) (*types.VulnerabilityRecord, error) {
	bs, err := c.conn.Do(context.TODO(), c.conn.B().Hget().Key("vulnerability").Field(id).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, errors.Wrapf(dbTypes.ErrNotFound, "HGET %s %s", "vulnerability", id)
		}
		return nil, errors.Wrapf(err, "HGET %s %s", "vulnerability", id)
	}

	var v types.VulnerabilityRecord
	if err := util.Unmarshal(bs, true, &v); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", fmt.Sprintf("vulnerability -> %s", id))
	}

	return &v, nil
}

func (c *Connection) GetVulnerabilities() iter.Seq2[types.VulnerabilityRecord, error] {
	return func(yield func(types.VulnerabilityRecord, error) bool) {
		m, err := c.conn.Do(context.TODO(), c.conn.B().Hgetall().Key("vulnerability").Build()).AsStrMap()
		if err != nil {
			yield(types.VulnerabilityRecord{}, errors.Wrapf(err, "HGETALL %s", "vulnerability"))
			return
		}

		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		for _, id := range ids {
			var v types.VulnerabilityRecord
			if err := util.Unmarshal([]byte(m[id]), true, &v); err != nil {
				yield(types.VulnerabilityRecord{}, errors.Wrapf(err, "unmarshal %s", fmt.Sprintf("vulnerability -> %s", id)))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (c *Connection) PutVulnerabilities(records []types.VulnerabilityRecord) error {
	ctx := context.TODO()

	for _, r := range records {
		if r.ID == "" {
			return errors.New("vulnerability id is empty")
		}

		prev, err := c.GetVulnerability(r.ID)
		switch {
		case err == nil:
			r = types.Merge(*prev, r)
		case errors.Is(err, dbTypes.ErrNotFound):
		default:
			return errors.Wrapf(err, "get vulnerability %s", r.ID)
		}

		bs, err := util.Marshal(r, true)
		if err != nil {
			return errors.Wrapf(err, "marshal vulnerability %s", r.ID)
		}
		if err := c.conn.Do(ctx, c.conn.B().Hset().Key("vulnerability").FieldValue().FieldValue(r.ID, string(bs)).Build()).Error(); err != nil {
			return errors.Wrapf(err, "HSET %s %s", "vulnerability", r.ID)
		}
	}

	return nil
}

func (c *Connection) GetExploits(kind types.ExploitKind) iter.Seq2[types.ExploitRecord, error] {
	return func(yield func(types.ExploitRecord, error) bool) {
		ctx := context.TODO()

		sources, err := c.conn.Do(ctx, c.conn.B().Smembers().Key(fmt.Sprintf("exploit#%s", kind)).Build()).AsStrSlice()
		if err != nil {
			yield(types.ExploitRecord{}, errors.Wrapf(err, "SMEMBERS %s", fmt.Sprintf("exploit#%s", kind)))
			return
		}
		slices.Sort(sources)

		for _, source := range sources {
			key := fmt.Sprintf("exploit#%s#%s", kind, source)
			m, err := c.conn.Do(ctx, c.conn.B().Hgetall().Key(key).Build()).AsStrMap()
			if err != nil {
				yield(types.ExploitRecord{}, errors.Wrapf(err, "HGETALL %s", key))
				return
			}

			ids := make([]string, 0, len(m))
			for id := range m {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			for _, id := range ids {
				var e types.ExploitRecord
				if err := util.Unmarshal([]byte(m[id]), true, &e); err != nil {
					yield(types.ExploitRecord{}, errors.Wrapf(err, "unmarshal %s", fmt.Sprintf("%s -> %s", key, id)))
					return
				}
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

func (c *Connection) PutExploits(records []types.ExploitRecord) error {
	ctx := context.TODO()

	for _, r := range records {
		if r.Kind == "" || r.Source == "" || r.ID == "" {
			return errors.Errorf("unexpected exploit key. expected: %q, actual: %q", []string{"<kind>", "<source>", "<id>"}, []string{string(r.Kind), r.Source, r.ID})
		}

		bs, err := util.Marshal(r, true)
		if err != nil {
			return errors.Wrapf(err, "marshal exploit %s", r.ID)
		}

		key := fmt.Sprintf("exploit#%s#%s", r.Kind, r.Source)
		for _, resp := range c.conn.DoMulti(ctx,
			c.conn.B().Sadd().Key(fmt.Sprintf("exploit#%s", r.Kind)).Member(r.Source).Build(),
			c.conn.B().Hset().Key(key).FieldValue().FieldValue(r.ID, string(bs)).Build(),
		) {
			if err := resp.Error(); err != nil {
				return errors.Wrapf(err, "put %s %s", key, r.ID)
			}
		}
	}

	return nil
}

func (c *Connection) DeleteAll() error {
	if err := c.conn.Do(context.TODO(), c.conn.B().Flushdb().Build()).Error(); err != nil {
		return errors.Wrap(err, "FLUSHDB")
	}

	return nil
}

func (c *Connection) Initialize() error {
	return nil
}
