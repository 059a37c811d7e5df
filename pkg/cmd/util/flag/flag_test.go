package flag_test

import (
	"testing"

	"github.com/spf13/cobra"

	utilflag "github.com/MaineK00n/exploitgpt/pkg/cmd/util/flag"
)

func TestDBType_Set(t *testing.T) {
	tests := []struct {
		name    string
		v       string
		want    utilflag.DBType
		wantErr bool
	}{
		{name: "boltdb", v: "boltdb", want: utilflag.DBTypeBoltDB},
		{name: "pebble", v: "pebble", want: utilflag.DBTypePebble},
		{name: "postgres", v: "postgres", want: utilflag.DBTypePostgreSQL},
		{name: "unknown", v: "leveldb", want: utilflag.DBTypeBoltDB, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utilflag.DBTypeBoltDB
			if err := got.Set(tt.v); (err != nil) != tt.wantErr {
				t.Errorf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Set(). expected: %q, actual: %q", tt.want, got)
			}
		})
	}
}

func TestDebug(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().Bool("debug", false, "")
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)

	var got bool
	child.Run = func(cmd *cobra.Command, _ []string) { got = utilflag.Debug(cmd) }
	root.SetArgs([]string{"child", "--debug"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !got {
		t.Error("Debug(). expected: true, actual: false")
	}
}
