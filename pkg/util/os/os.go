package os

import (
	"os"
	"path/filepath"
)

const appName = "exploitgpt"

// UserConfigDir is where the default config.yaml lives.
func UserConfigDir() string {
	d, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(d, appName)
}

// UserCacheDir is the root of every default path: the db, source checkouts,
// collected records and datasets.
func UserCacheDir() string {
	d, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(d, appName)
}

func DBPath() string {
	return filepath.Join(UserCacheDir(), appName+".db")
}

// RawDir holds the JSON arrays written by a collector.
func RawDir(source string) string {
	return filepath.Join(UserCacheDir(), "raw", source)
}

// RepoDir holds the git checkout of a source repository.
func RepoDir(name string) string {
	return filepath.Join(UserCacheDir(), "repos", name)
}

func DatasetDir() string {
	return filepath.Join(UserCacheDir(), "dataset")
}
