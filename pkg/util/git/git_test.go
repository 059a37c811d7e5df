package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/MaineK00n/exploitgpt/pkg/util/git"
)

func TestSync(t *testing.T) {
	bin, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git is not installed")
	}

	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "modules", "exploits"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "modules", "exploits", "a.rb"), []byte("'Name' => 'a'\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, args := range [][]string{
		{"init", "-q"},
		{"add", "."},
		{"-c", "user.name=test", "-c", "user.email=test@example.com", "commit", "-q", "-m", "init"},
	} {
		cmd := exec.Command(bin, args...)
		cmd.Dir = src
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	dst := filepath.Join(t.TempDir(), "repos", "metasploit-framework")
	for range 2 {
		if err := git.Sync(context.Background(), "file://"+src, dst, git.WithGit(bin)); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "modules", "exploits", "a.rb")); err != nil {
		t.Errorf("Sync(). file not checked out: %v", err)
	}
}

func TestSync_Failure(t *testing.T) {
	bin, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git is not installed")
	}
	if err := git.Sync(context.Background(), "file://"+filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "dst"), git.WithGit(bin)); err == nil {
		t.Error("Sync() expected error for missing repository")
	}
}
