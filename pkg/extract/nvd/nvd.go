package nvd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/knqyf263/go-cpe/common"
	"github.com/knqyf263/go-cpe/naming"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

const (
	lang         = "en"
	weaknessPrfx = "CWE-"
)

type vulnerability struct {
	CVE cve `json:"cve"`
}

type cve struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	LastModified string `json:"lastModified"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CvssMetricV31 []cvssMetric `json:"cvssMetricV31"`
		CvssMetricV30 []cvssMetric `json:"cvssMetricV30"`
		CvssMetricV2  []cvssMetric `json:"cvssMetricV2"`
	} `json:"metrics"`
	Weaknesses []struct {
		Description []struct {
			Lang  string `json:"lang"`
			Value string `json:"value"`
		} `json:"description"`
	} `json:"weaknesses"`
	Configurations []struct {
		Nodes []struct {
			CpeMatch []struct {
				Vulnerable bool   `json:"vulnerable"`
				Criteria   string `json:"criteria"`
			} `json:"cpeMatch"`
		} `json:"nodes"`
	} `json:"configurations"`
	References []struct {
		URL    string `json:"url"`
		Source string `json:"source"`
	} `json:"references"`
}

type cvssMetric struct {
	CvssData struct {
		Version      string   `json:"version"`
		VectorString string   `json:"vectorString"`
		BaseScore    *float64 `json:"baseScore"`
		BaseSeverity string   `json:"baseSeverity"`
	} `json:"cvssData"`
	BaseSeverity string `json:"baseSeverity"`
}

// Extractor turns one element of the NVD "vulnerabilities" array into a
// canonical vulnerability record.
type Extractor struct{}

func (Extractor) Extract(raw json.RawMessage) (types.VulnerabilityRecord, bool) {
	var v vulnerability
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Debug("failed to decode vulnerability", "err", err)
		return types.VulnerabilityRecord{}, false
	}
	if v.CVE.ID == "" {
		slog.Debug("vulnerability without cve.id")
		return types.VulnerabilityRecord{}, false
	}

	published, err := types.ParseTime(v.CVE.Published)
	if err != nil {
		slog.Debug("failed to parse published", "id", v.CVE.ID, "err", err)
		return types.VulnerabilityRecord{}, false
	}
	modified, err := types.ParseTime(v.CVE.LastModified)
	if err != nil {
		slog.Debug("failed to parse lastModified", "id", v.CVE.ID, "err", err)
		return types.VulnerabilityRecord{}, false
	}

	score, severity := severity(v.CVE)

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, payload(raw)); err != nil {
		slog.Debug("failed to compact payload", "id", v.CVE.ID, "err", err)
		return types.VulnerabilityRecord{}, false
	}

	return types.VulnerabilityRecord{
		ID:               v.CVE.ID,
		Description:      description(v.CVE),
		Published:        published,
		LastModified:     modified,
		CVSSScore:        score,
		Severity:         severity,
		CWEIDs:           weaknesses(v.CVE),
		References:       references(v.CVE),
		AffectedProducts: products(v.CVE),
		RawData:          compacted.Bytes(),
	}, true
}

// payload returns the inner "cve" object, kept on the record for provenance.
func payload(raw json.RawMessage) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	if c, ok := m["cve"]; ok {
		return c
	}
	return raw
}

func description(c cve) string {
	for _, d := range c.Descriptions {
		if d.Lang == lang {
			return d.Value
		}
	}
	return ""
}

func severity(c cve) (*float64, string) {
	for _, ms := range [][]cvssMetric{c.Metrics.CvssMetricV31, c.Metrics.CvssMetricV30, c.Metrics.CvssMetricV2} {
		if len(ms) == 0 {
			continue
		}
		m := ms[0]

		sev := m.CvssData.BaseSeverity
		if sev == "" {
			sev = m.BaseSeverity
		}
		score := m.CvssData.BaseScore
		if score == nil {
			if s, ok := vectorScore(m.CvssData.VectorString); ok {
				score = &s
			}
		}
		if sev == "" && score != nil {
			sev = rating(m.CvssData.VectorString, *score)
		}
		return score, sev
	}
	return nil, ""
}

func vectorScore(vector string) (float64, bool) {
	switch {
	case strings.HasPrefix(vector, "CVSS:3.1/"):
		v, err := gocvss31.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return v.BaseScore(), true
	case strings.HasPrefix(vector, "CVSS:3.0/"):
		v, err := gocvss30.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return v.BaseScore(), true
	case vector != "":
		v, err := gocvss20.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return v.BaseScore(), true
	default:
		return 0, false
	}
}

func rating(vector string, score float64) string {
	if !strings.HasPrefix(vector, "CVSS:3") {
		return ""
	}
	r, err := gocvss31.Rating(score)
	if err != nil {
		return ""
	}
	return r
}

func weaknesses(c cve) []string {
	ids := []string{}
	for _, w := range c.Weaknesses {
		for _, d := range w.Description {
			if strings.HasPrefix(d.Value, weaknessPrfx) {
				ids = append(ids, d.Value)
			}
		}
	}
	return ids
}

func references(c cve) []types.Reference {
	rs := make([]types.Reference, 0, len(c.References))
	for _, r := range c.References {
		rs = append(rs, types.Reference{URL: r.URL, Source: r.Source})
	}
	return rs
}

func products(c cve) []string {
	var ps []string
	for _, conf := range c.Configurations {
		for _, n := range conf.Nodes {
			for _, m := range n.CpeMatch {
				if !m.Vulnerable || m.Criteria == "" {
					continue
				}
				wfn, err := naming.UnbindFS(m.Criteria)
				if err != nil {
					slog.Debug("failed to unbind a formatted string to WFN", "input", m.Criteria)
					continue
				}
				p := fmt.Sprintf("%s:%s", wfn.GetString(common.AttributeVendor), wfn.GetString(common.AttributeProduct))
				if !slices.Contains(ps, p) {
					ps = append(ps, p)
				}
			}
		}
	}
	return ps
}
