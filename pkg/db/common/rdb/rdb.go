package rdb

import (
	"iter"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/db/common/util"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const batchSize = 500

type Config struct {
	Type    string
	Path    string
	Debug   bool
	Options []gorm.Option
}

type Connection struct {
	Config *Config

	conn *gorm.DB
}

func (c *Connection) Open() error {
	if c.Config == nil {
		return errors.New("connection config is not set")
	}

	opts := append([]gorm.Option{&gorm.Config{
		Logger: func() logger.Interface {
			if c.Config.Debug {
				return logger.Default.LogMode(logger.Info)
			}
			return logger.Default.LogMode(logger.Silent)
		}(),
	}}, c.Config.Options...)

	switch c.Config.Type {
	case "sqlite3":
		db, err := gorm.Open(sqlite.Open(c.Config.Path), opts...)
		if err != nil {
			return errors.WithStack(err)
		}
		c.conn = db
		return nil
	case "mysql":
		db, err := gorm.Open(mysql.Open(c.Config.Path), opts...)
		if err != nil {
			return errors.WithStack(err)
		}
		c.conn = db
		return nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(c.Config.Path), opts...)
		if err != nil {
			return errors.WithStack(err)
		}
		c.conn = db
		return nil
	default:
		return errors.Errorf("%s is not support rdb dbtype", c.Config.Type)
	}
}

func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	db, err := c.conn.DB()
	if err != nil {
		return errors.Wrap(err, "get *sql.DB")
	}
	return db.Close()
}

func (c *Connection) GetMetadata() (*dbTypes.Metadata, error) {
	var m metadata
	if err := c.conn.Take(&m, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(dbTypes.ErrNotFound, "metadata")
		}
		return nil, errors.Wrap(err, "take metadata")
	}
	return &dbTypes.Metadata{
		SchemaVersion: m.SchemaVersion,
		CreatedBy:     m.CreatedBy,
		LastModified:  m.LastModified,
		RunID:         m.RunID,
		Downloaded:    m.Downloaded,
	}, nil
}

func (c *Connection) PutMetadata(m dbTypes.Metadata) error {
	if err := c.conn.Save(&metadata{
		ID:            1,
		SchemaVersion: m.SchemaVersion,
		CreatedBy:     m.CreatedBy,
		LastModified:  m.LastModified,
		RunID:         m.RunID,
		Downloaded:    m.Downloaded,
	}).Error; err != nil {
		return errors.Wrap(err, "save metadata")
	}
	return nil
}

func (c *Connection) GetVulnerability(id string) (*types.VulnerabilityRecord, error) {
	var row vulnerability
	if err := c.conn.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(dbTypes.ErrNotFound, "vulnerability %s", id)
		}
		return nil, errors.Wrapf(err, "take vulnerability %s", id)
	}

	var v types.VulnerabilityRecord
	if err := util.Unmarshal(row.Data, true, &v); err != nil {
		return nil, errors.Wrapf(err, "unmarshal vulnerability %s", id)
	}
	return &v, nil
}

func (c *Connection) GetVulnerabilities() iter.Seq2[types.VulnerabilityRecord, error] {
	return func(yield func(types.VulnerabilityRecord, error) bool) {
		rows, err := c.conn.Model(&vulnerability{}).Order("id").Rows()
		if err != nil {
			yield(types.VulnerabilityRecord{}, errors.Wrap(err, "select vulnerabilities"))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row vulnerability
			if err := c.conn.ScanRows(rows, &row); err != nil {
				yield(types.VulnerabilityRecord{}, errors.Wrap(err, "scan vulnerability"))
				return
			}

			var v types.VulnerabilityRecord
			if err := util.Unmarshal(row.Data, true, &v); err != nil {
				yield(types.VulnerabilityRecord{}, errors.Wrapf(err, "unmarshal vulnerability %s", row.ID))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(types.VulnerabilityRecord{}, errors.Wrap(err, "iterate vulnerabilities"))
		}
	}
}

func (c *Connection) PutVulnerabilities(records []types.VulnerabilityRecord) error {
	return c.conn.Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			if r.ID == "" {
				return errors.New("vulnerability id is empty")
			}

			var prev vulnerability
			switch err := tx.Where("id = ?", r.ID).Take(&prev).Error; {
			case err == nil:
				var v types.VulnerabilityRecord
				if err := util.Unmarshal(prev.Data, true, &v); err != nil {
					return errors.Wrapf(err, "unmarshal vulnerability %s", r.ID)
				}
				r = types.Merge(v, r)
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return errors.Wrapf(err, "take vulnerability %s", r.ID)
			}

			bs, err := util.Marshal(r, true)
			if err != nil {
				return errors.Wrapf(err, "marshal vulnerability %s", r.ID)
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&vulnerability{ID: r.ID, Data: bs}).Error; err != nil {
				return errors.Wrapf(err, "upsert vulnerability %s", r.ID)
			}
		}
		return nil
	})
}

func (c *Connection) GetExploits(kind types.ExploitKind) iter.Seq2[types.ExploitRecord, error] {
	return func(yield func(types.ExploitRecord, error) bool) {
		rows, err := c.conn.Model(&exploit{}).Where("kind = ?", string(kind)).Order("source").Order("id").Rows()
		if err != nil {
			yield(types.ExploitRecord{}, errors.Wrapf(err, "select exploits %s", kind))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row exploit
			if err := c.conn.ScanRows(rows, &row); err != nil {
				yield(types.ExploitRecord{}, errors.Wrap(err, "scan exploit"))
				return
			}

			var e types.ExploitRecord
			if err := util.Unmarshal(row.Data, true, &e); err != nil {
				yield(types.ExploitRecord{}, errors.Wrapf(err, "unmarshal exploit %s/%s/%s", row.Kind, row.Source, row.ID))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(types.ExploitRecord{}, errors.Wrap(err, "iterate exploits"))
		}
	}
}

func (c *Connection) PutExploits(records []types.ExploitRecord) error {
	rows := make([]exploit, 0, len(records))
	idx := make(map[[3]string]int, len(records))
	for _, r := range records {
		if r.Kind == "" || r.Source == "" || r.ID == "" {
			return errors.Errorf("unexpected exploit key. expected: %q, actual: %q", []string{"<kind>", "<source>", "<id>"}, []string{string(r.Kind), r.Source, r.ID})
		}

		bs, err := util.Marshal(r, true)
		if err != nil {
			return errors.Wrapf(err, "marshal exploit %s", r.ID)
		}
		row := exploit{Kind: string(r.Kind), Source: r.Source, ID: r.ID, Data: bs}
		if i, ok := idx[[3]string{row.Kind, row.Source, row.ID}]; ok {
			rows[i] = row
			continue
		}
		idx[[3]string{row.Kind, row.Source, row.ID}] = len(rows)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := c.conn.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, batchSize).Error; err != nil {
		return errors.Wrap(err, "upsert exploits")
	}
	return nil
}

func (c *Connection) DeleteAll() error {
	if err := c.conn.Migrator().DropTable(&metadata{}, &vulnerability{}, &exploit{}); err != nil {
		return errors.Wrap(err, "drop tables")
	}
	return nil
}

func (c *Connection) Initialize() error {
	if err := c.conn.AutoMigrate(&metadata{}, &vulnerability{}, &exploit{}); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
