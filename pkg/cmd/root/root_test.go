package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MaineK00n/exploitgpt/pkg/cmd/root"
	"github.com/MaineK00n/exploitgpt/pkg/dataset"
	"github.com/MaineK00n/exploitgpt/pkg/types"
	"github.com/MaineK00n/exploitgpt/pkg/util/file"
)

func TestNewCmdRoot_DatasetBuild(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("EXPLOITGPT_DATASET_BUILD_SEED", "7")

	conf := filepath.Join(home, "config", "exploitgpt", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(conf), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(conf, []byte("dataset:\n  build:\n    train-ratio: 0.5\n    val-ratio: 0.25\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	in := t.TempDir()
	cves := filepath.Join(in, "cves.json")
	if err := file.WriteJSON(cves, []types.VulnerabilityRecord{{ID: "CVE-2021-44228", Description: "Log4Shell"}}); err != nil {
		t.Fatalf("write cves: %v", err)
	}
	exploits := filepath.Join(in, "exploits.json")
	if err := file.WriteJSON(exploits, []types.ExploitRecord{{ID: "50592", Kind: types.ExploitKindExploit, Codes: "CVE-2021-44228", Content: "poc", Source: types.SourceExploitDB}}); err != nil {
		t.Fatalf("write exploits: %v", err)
	}

	out := t.TempDir()
	cmd := root.NewCmdRoot()
	cmd.SetArgs([]string{"dataset", "build", "--cves", cves, "--exploits", exploits, "--output-dir", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var meta dataset.Metadata
	if err := file.ReadJSON(filepath.Join(out, dataset.MetadataFile), &meta); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if meta.Seed != 7 || meta.TrainRatio != 0.5 || meta.ValRatio != 0.25 {
		t.Errorf("metadata. expected: seed=7 train=0.5 val=0.25, actual: seed=%d train=%v val=%v", meta.Seed, meta.TrainRatio, meta.ValRatio)
	}
	if meta.Stats.LinkedPairs != 1 {
		t.Errorf("metadata. expected: 1 linked pair, actual: %d", meta.Stats.LinkedPairs)
	}
}

func TestNewCmdRoot_MissingConfig(t *testing.T) {
	cmd := root.NewCmdRoot()
	cmd.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() expected error for an explicit missing config")
	}
}
