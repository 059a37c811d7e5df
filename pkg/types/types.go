package types

import (
	"encoding/json"
)

type ExploitKind string

const (
	ExploitKindExploit   ExploitKind = "exploit"
	ExploitKindShellcode ExploitKind = "shellcode"
)

const (
	SourceMetasploit = "metasploit"
	SourceExploitDB  = "exploit-db"
)

type Reference struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

type VulnerabilityRecord struct {
	ID               string          `json:"cve_id"`
	Description      string          `json:"description"`
	Published        Time            `json:"published_date"`
	LastModified     Time            `json:"last_modified"`
	CVSSScore        *float64        `json:"cvss_score"`
	Severity         string          `json:"severity,omitempty"`
	CWEIDs           []string        `json:"cwe_ids"`
	References       []Reference     `json:"references"`
	AffectedProducts []string        `json:"affected_products,omitempty"`
	RawData          json.RawMessage `json:"raw_data,omitempty"`
}

// Merge picks the representation to keep when prev and next share an identifier.
// The later last_modified wins. Equal or unknown timestamps go to next.
func Merge(prev, next VulnerabilityRecord) VulnerabilityRecord {
	if !prev.LastModified.IsZero() && !next.LastModified.IsZero() && prev.LastModified.After(next.LastModified.Time) {
		return prev
	}
	return next
}

type ExploitRecord struct {
	ID          string      `json:"id"`
	Kind        ExploitKind `json:"kind,omitempty"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description"`
	Date        string      `json:"date,omitempty"`
	Author      string      `json:"author,omitempty"`
	Platform    string      `json:"platform"`
	Type        string      `json:"type,omitempty"`
	CVEIDs      []string    `json:"cve_ids,omitempty"`
	Codes       string      `json:"codes,omitempty"`
	Content     string      `json:"content"`
	Source      string      `json:"source"`
	Language    string      `json:"language,omitempty"`
}

type LinkedPair struct {
	CVEID          string   `json:"cve_id"`
	CVEDescription string   `json:"cve_description"`
	CVSSScore      *float64 `json:"cvss_score"`
	ExploitID      string   `json:"exploit_id"`
	ExploitType    string   `json:"exploit_type"`
	Platform       string   `json:"platform"`
	ExploitCode    string   `json:"exploit_code"`
	Source         string   `json:"source"`
}

type TrainingExample struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Source      string `json:"source"`
}
