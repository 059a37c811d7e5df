package rdb

import "time"

type metadata struct {
	ID            uint `gorm:"primaryKey"`
	SchemaVersion uint
	CreatedBy     string
	LastModified  time.Time
	RunID         string `gorm:"size:36"`
	Downloaded    *time.Time
}

func (metadata) TableName() string {
	return "metadata"
}

type vulnerability struct {
	ID   string `gorm:"primaryKey;size:32"`
	Data []byte
}

func (vulnerability) TableName() string {
	return "vulnerabilities"
}

type exploit struct {
	Kind   string `gorm:"primaryKey;size:16"`
	Source string `gorm:"primaryKey;size:32"`
	ID     string `gorm:"primaryKey;size:255"`
	Data   []byte
}

func (exploit) TableName() string {
	return "exploits"
}
