// Package link joins exploit records to the vulnerabilities they reference.
package link

import (
	"regexp"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

var reCVE = regexp.MustCompile(`CVE-\d{4}-\d+`)

// Map indexes vulnerability records by CVE id.
type Map map[string]types.VulnerabilityRecord

// NewMap builds a Map from records, resolving duplicate ids with types.Merge
// in input order.
func NewMap(records []types.VulnerabilityRecord) Map {
	m := make(Map, len(records))
	for _, r := range records {
		if prev, ok := m[r.ID]; ok {
			m[r.ID] = types.Merge(prev, r)
			continue
		}
		m[r.ID] = r
	}
	return m
}

// Candidates returns the CVE ids an exploit claims: its explicit ids when
// present, otherwise every id mentioned in its codes.
func Candidates(e types.ExploitRecord) []string {
	if len(e.CVEIDs) > 0 {
		return e.CVEIDs
	}
	return reCVE.FindAllString(e.Codes, -1)
}

// Link emits one pair per candidate id found in m, in exploit order and then
// candidate order. Ids missing from m are dropped.
func Link(m Map, exploits []types.ExploitRecord) []types.LinkedPair {
	var pairs []types.LinkedPair
	for _, e := range exploits {
		for _, id := range Candidates(e) {
			v, ok := m[id]
			if !ok {
				continue
			}
			pairs = append(pairs, types.LinkedPair{
				CVEID:          v.ID,
				CVEDescription: v.Description,
				CVSSScore:      v.CVSSScore,
				ExploitID:      e.ID,
				ExploitType:    e.Type,
				Platform:       e.Platform,
				ExploitCode:    e.Content,
				Source:         e.Source,
			})
		}
	}
	return pairs
}
