package types

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

type SearchType string

const (
	SearchVulnerability SearchType = "vulnerability"
	SearchExploits      SearchType = "exploits"
)

type Metadata struct {
	SchemaVersion uint       `json:"schema_version,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	LastModified  time.Time  `json:"last_modified,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	Downloaded    *time.Time `json:"downloaded,omitempty"`
}
