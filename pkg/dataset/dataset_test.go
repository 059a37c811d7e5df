package dataset_test

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MaineK00n/exploitgpt/pkg/dataset"
	"github.com/MaineK00n/exploitgpt/pkg/db/add"
	dbInit "github.com/MaineK00n/exploitgpt/pkg/db/init"
	"github.com/MaineK00n/exploitgpt/pkg/split"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
)

func fixtures(t *testing.T) (cves, exploits, metasploit, shellcodes string) {
	t.Helper()

	dir := t.TempDir()
	score := 10.0
	cves = filepath.Join(dir, "cves.json")
	if err := file.WriteJSON(cves, []types.VulnerabilityRecord{
		{ID: "CVE-2021-44228", Description: "Log4Shell", CVSSScore: &score},
		{ID: "CVE-2017-0144", Description: "EternalBlue"},
	}); err != nil {
		t.Fatalf("write cves: %v", err)
	}
	exploits = filepath.Join(dir, "exploits.json")
	if err := file.WriteJSON(exploits, []types.ExploitRecord{
		{ID: "50592", Kind: types.ExploitKindExploit, Platform: "java", Type: "remote", Codes: "CVE-2021-44228;OSVDB-1", Content: "poc", Source: types.SourceExploitDB},
		{ID: "1", Kind: types.ExploitKindExploit, Platform: "linux", Type: "local", Codes: "CVE-1999-0001", Content: "unlinked", Source: types.SourceExploitDB},
	}); err != nil {
		t.Fatalf("write exploits: %v", err)
	}
	metasploit = filepath.Join(dir, "metasploit.json")
	if err := file.WriteJSON(metasploit, []types.ExploitRecord{
		{ID: "modules/exploits/windows/smb/ms17_010_eternalblue.rb", Kind: types.ExploitKindExploit, Platform: "win", Type: "metasploit_module", CVEIDs: []string{"CVE-2017-0144"}, Content: "class MetasploitModule", Source: types.SourceMetasploit},
	}); err != nil {
		t.Fatalf("write metasploit: %v", err)
	}
	shellcodes = filepath.Join(dir, "shellcodes.json")
	if err := file.WriteJSON(shellcodes, []types.ExploitRecord{
		{ID: "13241", Kind: types.ExploitKindShellcode, Platform: "linux_x86", Type: "shellcode", Description: "execve", Content: "char sc[];", Source: types.SourceExploitDB},
	}); err != nil {
		t.Fatalf("write shellcodes: %v", err)
	}
	return cves, exploits, metasploit, shellcodes
}

func countLines(t *testing.T, path string) int {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	n := 0
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		n++
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return n
}

func TestBuild(t *testing.T) {
	cves, exploits, metasploit, shellcodes := fixtures(t)

	dbpath := filepath.Join(t.TempDir(), "exploitgpt.db")
	if _, err := dbInit.Init(dbInit.WithDBType("boltdb"), dbInit.WithDBPath(dbpath)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for _, f := range []struct {
		t    add.Type
		path string
	}{
		{t: add.TypeVulnerability, path: cves},
		{t: add.TypeExploit, path: exploits},
		{t: add.TypeExploit, path: metasploit},
		{t: add.TypeExploit, path: shellcodes},
	} {
		if err := add.Add(f.t, f.path, add.WithDBType("boltdb"), add.WithDBPath(dbpath)); err != nil {
			t.Fatalf("Add(%s) error = %v", f.path, err)
		}
	}

	tests := []struct {
		name    string
		opts    []dataset.Option
		want    dataset.Stats
		wantErr bool
	}{
		{
			name: "files",
			opts: []dataset.Option{dataset.WithCVEs(cves), dataset.WithExploits(exploits), dataset.WithMetasploit(metasploit), dataset.WithShellcodes(shellcodes)},
			want: dataset.Stats{CVEs: 2, Exploits: 2, Metasploit: 1, Shellcodes: 1, LinkedPairs: 2, Examples: 3, Train: 2, Validation: 0, Test: 1},
		},
		{
			name: "files without optional inputs",
			opts: []dataset.Option{dataset.WithCVEs(cves), dataset.WithExploits(exploits)},
			want: dataset.Stats{CVEs: 2, Exploits: 2, LinkedPairs: 1, Examples: 1, Train: 0, Validation: 0, Test: 1},
		},
		{
			name: "db",
			opts: []dataset.Option{dataset.WithFromDB(true), dataset.WithDBType("boltdb"), dataset.WithDBPath(dbpath)},
			want: dataset.Stats{CVEs: 2, Exploits: 2, Metasploit: 1, Shellcodes: 1, LinkedPairs: 2, Examples: 3, Train: 2, Validation: 0, Test: 1},
		},
		{
			name:    "missing exploits file",
			opts:    []dataset.Option{dataset.WithCVEs(cves)},
			wantErr: true,
		},
		{
			name:    "invalid ratio",
			opts:    []dataset.Option{dataset.WithCVEs(cves), dataset.WithExploits(exploits), dataset.WithTrainRatio(0.9), dataset.WithValRatio(0.2)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			got, err := dataset.Build(append(tt.opts, dataset.WithDir(dir), dataset.WithSeed(42))...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, err := os.Stat(filepath.Join(dir, dataset.MetadataFile)); !os.IsNotExist(err) {
					t.Errorf("Build() expected no %s, got err = %v", dataset.MetadataFile, err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got.Stats); diff != "" {
				t.Errorf("Build(). (-expected +got):\n%s", diff)
			}
			if got.Seed != 42 || got.RunID == "" {
				t.Errorf("Build(). unexpected metadata: %+v", got)
			}

			var saved dataset.Metadata
			if err := file.ReadJSON(filepath.Join(dir, dataset.MetadataFile), &saved); err != nil {
				t.Fatalf("ReadJSON() error = %v", err)
			}
			if diff := cmp.Diff(got.Stats, saved.Stats); diff != "" {
				t.Errorf("metadata.json. (-expected +got):\n%s", diff)
			}

			for name, want := range map[string]int{split.TrainFile: tt.want.Train, split.ValidationFile: tt.want.Validation, split.TestFile: tt.want.Test} {
				if n := countLines(t, filepath.Join(dir, name)); n != want {
					t.Errorf("%s. expected: %d lines, actual: %d", name, want, n)
				}
			}
		})
	}
}
