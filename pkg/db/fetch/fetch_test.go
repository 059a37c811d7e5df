package fetch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	"github.com/MaineK00n/exploitgpt/pkg/db/common"
	"github.com/MaineK00n/exploitgpt/pkg/db/fetch"
	dbInit "github.com/MaineK00n/exploitgpt/pkg/db/init"
)

func push(t *testing.T, mediaType string, payload []byte) (*memory.Store, string) {
	t.Helper()
	ctx := context.Background()

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("new zstd writer: %v", err)
	}
	compressed := zw.EncodeAll(payload, nil)
	_ = zw.Close()

	store := memory.New()
	layer := content.NewDescriptorFromBytes(mediaType, compressed)
	if err := store.Push(ctx, layer, bytes.NewReader(compressed)); err != nil {
		t.Fatalf("push layer: %v", err)
	}
	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, "application/vnd.exploitgpt.db", oras.PackManifestOptions{Layers: []ocispec.Descriptor{layer}})
	if err != nil {
		t.Fatalf("pack manifest: %v", err)
	}
	if err := store.Tag(ctx, manifest, "latest"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	return store, "latest"
}

func TestFetchFrom(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.db")
	if _, err := dbInit.Init(dbInit.WithDBPath(src)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	payload, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	store, ref := push(t, fetch.MediaType, payload)

	dst := filepath.Join(t.TempDir(), "cache", "exploitgpt.db")
	if err := fetch.FetchFrom(context.Background(), store, ref, fetch.WithDBPath(dst), fetch.WithNoProgress(true)); err != nil {
		t.Fatalf("FetchFrom() error = %v", err)
	}

	dbc, err := (&common.Config{Type: "boltdb", Path: dst}).New()
	if err != nil {
		t.Fatalf("Config.New() error = %v", err)
	}
	if err := dbc.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer dbc.Close() //nolint:errcheck

	meta, err := dbc.GetMetadata()
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.Downloaded == nil {
		t.Error("GetMetadata(). expected: downloaded timestamp, actual: nil")
	}
	if meta.RunID == "" {
		t.Error("GetMetadata(). expected: run id carried over from the source db")
	}
}

func TestFetchFrom_MissingLayer(t *testing.T) {
	store, ref := push(t, "application/vnd.example.other+zstd", []byte("payload"))

	dst := filepath.Join(t.TempDir(), "exploitgpt.db")
	if err := fetch.FetchFrom(context.Background(), store, ref, fetch.WithDBPath(dst), fetch.WithNoProgress(true)); err == nil {
		t.Fatal("FetchFrom() expected error for manifest without db layer")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("FetchFrom() left a db file behind: %v", err)
	}
}
