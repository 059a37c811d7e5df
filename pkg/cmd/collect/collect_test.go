package collect_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MaineK00n/exploitgpt/pkg/cmd/collect"
)

func TestNewCmd_SyncFlags(t *testing.T) {
	tests := []struct {
		name string
		want map[string]bool
	}{
		{
			name: "metasploit",
			want: map[string]bool{"skip-sync": true, "sync": false},
		},
		{
			name: "exploitdb",
			want: map[string]bool{"skip-sync": true, "sync": false},
		},
		{
			name: "shellcode",
			want: map[string]bool{"skip-sync": true, "sync": false},
		},
	}
	cmd := collect.NewCmd()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.name})
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			got := make(map[string]bool, len(tt.want))
			for name := range tt.want {
				got[name] = sub.Flags().Lookup(name) != nil
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Flags(). (-expected +got):\n%s", diff)
			}
			if f := sub.Flags().Lookup("skip-sync"); f != nil && f.DefValue != "false" {
				t.Errorf("skip-sync default. expected: %q, actual: %q", "false", f.DefValue)
			}
		})
	}
}
