package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MaineK00n/exploitgpt/pkg/types"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "nvd",
			in:   "2024-01-02T03:04:05.678",
			want: time.Date(2024, 1, 2, 3, 4, 5, 678000000, time.UTC),
		},
		{
			name: "rfc3339",
			in:   "2024-01-02T03:04:05+09:00",
			want: time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC),
		},
		{
			name: "empty",
			in:   "",
		},
		{
			name:    "garbage",
			in:      "yesterday",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTime() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("ParseTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTime_JSON(t *testing.T) {
	var v struct {
		T types.Time `json:"t"`
	}
	if err := json.Unmarshal([]byte(`{"t":"2024-05-06T07:08:09.010"}`), &v); err != nil {
		t.Fatalf("unmarshal. error = %v", err)
	}
	bs, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal. error = %v", err)
	}
	if diff := cmp.Diff(`{"t":"2024-05-06T07:08:09.010"}`, string(bs)); diff != "" {
		t.Errorf("Time JSON. (-expected +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	older := types.Time{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := types.Time{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		prev types.VulnerabilityRecord
		next types.VulnerabilityRecord
		want string
	}{
		{
			name: "next is newer",
			prev: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "prev", LastModified: older},
			next: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "next", LastModified: newer},
			want: "next",
		},
		{
			name: "prev is newer",
			prev: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "prev", LastModified: newer},
			next: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "next", LastModified: older},
			want: "prev",
		},
		{
			name: "tie goes to next",
			prev: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "prev", LastModified: newer},
			next: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "next", LastModified: newer},
			want: "next",
		},
		{
			name: "unknown goes to next",
			prev: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "prev", LastModified: newer},
			next: types.VulnerabilityRecord{ID: "CVE-2024-0001", Description: "next"},
			want: "next",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := types.Merge(tt.prev, tt.next); got.Description != tt.want {
				t.Errorf("Merge() = %q, want %q", got.Description, tt.want)
			}
		})
	}
}
