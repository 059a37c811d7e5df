package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"

	"github.com/MaineK00n/exploitgpt/pkg/db/common"
	dbTypes "github.com/MaineK00n/exploitgpt/pkg/db/common/types"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

func TestConfig_New(t *testing.T) {
	tests := []struct {
		name    string
		dbtype  string
		wantErr bool
	}{
		{name: "boltdb", dbtype: "boltdb"},
		{name: "pebble", dbtype: "pebble"},
		{name: "redis", dbtype: "redis"},
		{name: "sqlite3", dbtype: "sqlite3"},
		{name: "mysql", dbtype: "mysql"},
		{name: "postgres", dbtype: "postgres"},
		{name: "unknown", dbtype: "leveldb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&common.Config{Type: tt.dbtype, Path: "path"}).New()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func mustTime(t *testing.T, s string) types.Time {
	t.Helper()
	tm, err := types.ParseTime(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return tm
}

func TestDB(t *testing.T) {
	type backend struct {
		dbtype string
		path   func(t *testing.T) string
	}
	backends := []backend{
		{dbtype: "boltdb", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "exploitgpt.db") }},
		{dbtype: "pebble", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "exploitgpt") }},
		{dbtype: "sqlite3", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "exploitgpt.sqlite3") }},
	}
	if addr := os.Getenv("EXPLOITGPT_TEST_REDIS_ADDR"); addr != "" {
		backends = append(backends, backend{dbtype: "redis", path: func(*testing.T) string { return addr }})
	}

	score := 10.0
	older := types.VulnerabilityRecord{ID: "CVE-2021-44228", Description: "older", LastModified: mustTime(t, "2021-12-10T10:15:09.143"), CWEIDs: []string{}, References: []types.Reference{}}
	newer := types.VulnerabilityRecord{ID: "CVE-2021-44228", Description: "Apache Log4j2 JNDI", CVSSScore: &score, Severity: "CRITICAL", LastModified: mustTime(t, "2023-11-07T03:39:36.747"), CWEIDs: []string{"CWE-502"}, References: []types.Reference{{URL: "https://logging.apache.org", Source: "security@apache.org"}}}
	other := types.VulnerabilityRecord{ID: "CVE-2017-0144", Description: "EternalBlue", CWEIDs: []string{}, References: []types.Reference{}}

	msf := types.ExploitRecord{ID: "modules/exploits/windows/smb/ms17_010_eternalblue.rb", Kind: types.ExploitKindExploit, Name: "MS17-010", Platform: "win", Type: "metasploit_module", CVEIDs: []string{"CVE-2017-0144"}, Content: "class MetasploitModule", Source: types.SourceMetasploit, Language: "ruby"}
	edb := types.ExploitRecord{ID: "50592", Kind: types.ExploitKindExploit, Description: "Log4j", Platform: "java", Type: "remote", Codes: "CVE-2021-44228", Content: "import requests", Source: types.SourceExploitDB, Language: "python"}
	sc := types.ExploitRecord{ID: "13241", Kind: types.ExploitKindShellcode, Description: "execve", Platform: "linux_x86", Type: "shellcode", Content: "\\x31\\xc0", Source: types.SourceExploitDB, Language: "c"}

	for _, b := range backends {
		t.Run(b.dbtype, func(t *testing.T) {
			dbc, err := (&common.Config{Type: b.dbtype, Path: b.path(t)}).New()
			if err != nil {
				t.Fatalf("Config.New() error = %v", err)
			}
			if err := dbc.Open(); err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer dbc.Close() //nolint:errcheck

			if err := dbc.DeleteAll(); err != nil {
				t.Fatalf("DeleteAll() error = %v", err)
			}
			if err := dbc.Initialize(); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			meta := dbTypes.Metadata{SchemaVersion: common.SchemaVersion, CreatedBy: "exploitgpt test", LastModified: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), RunID: "4b1f5c0e-9f6a-4f43-9f5e-0f0d5f1c2b3a"}
			if err := dbc.PutMetadata(meta); err != nil {
				t.Fatalf("PutMetadata() error = %v", err)
			}
			gotMeta, err := dbc.GetMetadata()
			if err != nil {
				t.Fatalf("GetMetadata() error = %v", err)
			}
			if diff := cmp.Diff(meta, *gotMeta, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
				t.Errorf("GetMetadata(). (-expected +got):\n%s", diff)
			}

			if err := dbc.PutVulnerabilities([]types.VulnerabilityRecord{newer, other}); err != nil {
				t.Fatalf("PutVulnerabilities() error = %v", err)
			}
			if err := dbc.PutVulnerabilities([]types.VulnerabilityRecord{older}); err != nil {
				t.Fatalf("PutVulnerabilities() error = %v", err)
			}

			got, err := dbc.GetVulnerability("CVE-2021-44228")
			if err != nil {
				t.Fatalf("GetVulnerability() error = %v", err)
			}
			if diff := cmp.Diff(newer, *got); diff != "" {
				t.Errorf("GetVulnerability(). stale record replaced newer one (-expected +got):\n%s", diff)
			}

			if _, err := dbc.GetVulnerability("CVE-2099-0001"); !errors.Is(err, dbTypes.ErrNotFound) {
				t.Errorf("GetVulnerability(). expected: %v, actual: %v", dbTypes.ErrNotFound, err)
			}

			var vs []types.VulnerabilityRecord
			for v, err := range dbc.GetVulnerabilities() {
				if err != nil {
					t.Fatalf("GetVulnerabilities() error = %v", err)
				}
				vs = append(vs, v)
			}
			if diff := cmp.Diff([]types.VulnerabilityRecord{other, newer}, vs); diff != "" {
				t.Errorf("GetVulnerabilities(). (-expected +got):\n%s", diff)
			}

			if err := dbc.PutExploits([]types.ExploitRecord{msf, edb, sc, edb}); err != nil {
				t.Fatalf("PutExploits() error = %v", err)
			}
			if err := dbc.PutExploits([]types.ExploitRecord{{ID: "1", Source: "exploit-db"}}); err == nil {
				t.Error("PutExploits() expected error for record without kind")
			}

			for kind, want := range map[types.ExploitKind][]types.ExploitRecord{
				types.ExploitKindExploit:   {edb, msf},
				types.ExploitKindShellcode: {sc},
			} {
				var es []types.ExploitRecord
				for e, err := range dbc.GetExploits(kind) {
					if err != nil {
						t.Fatalf("GetExploits() error = %v", err)
					}
					es = append(es, e)
				}
				if diff := cmp.Diff(want, es); diff != "" {
					t.Errorf("GetExploits(%s). (-expected +got):\n%s", kind, diff)
				}
			}

			for range dbc.GetExploits(types.ExploitKindExploit) {
				break
			}

			if err := dbc.DeleteAll(); err != nil {
				t.Fatalf("DeleteAll() error = %v", err)
			}
		})
	}
}
