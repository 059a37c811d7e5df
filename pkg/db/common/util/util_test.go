package util_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MaineK00n/exploitgpt/pkg/db/common/util"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

func TestMarshal(t *testing.T) {
	type args struct {
		v        any
		compress bool
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{
			name: "plain",
			args: args{v: types.TrainingExample{Instruction: "<script>", Source: "shellcode"}},
			want: []byte("{\"instruction\":\"<script>\",\"input\":\"\",\"output\":\"\",\"source\":\"shellcode\"}"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := util.Marshal(tt.args.v, tt.args.compress)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Marshal(). (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	score := 9.8
	in := types.VulnerabilityRecord{
		ID:          "CVE-2021-44228",
		Description: "Apache Log4j2 <=2.14.1 JNDI features",
		CVSSScore:   &score,
		CWEIDs:      []string{"CWE-502"},
		References:  []types.Reference{{URL: "https://logging.apache.org/log4j/2.x/security.html", Source: "security@apache.org"}},
	}

	for _, compress := range []bool{false, true} {
		bs, err := util.Marshal(in, compress)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if compress && !bytes.HasPrefix(bs, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
			t.Errorf("Marshal(). expected zstd frame, actual: %q", bs)
		}

		var got types.VulnerabilityRecord
		if err := util.Unmarshal(bs, compress, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if diff := cmp.Diff(in, got); diff != "" {
			t.Errorf("Unmarshal(compress=%v). (-expected +got):\n%s", compress, diff)
		}
	}

	var got types.VulnerabilityRecord
	if err := util.Unmarshal([]byte("not zstd"), true, &got); err == nil {
		t.Error("Unmarshal() expected error for broken payload")
	}
}
