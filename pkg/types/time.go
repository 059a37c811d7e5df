package types

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const TimeLayout = "2006-01-02T15:04:05.000"

var layouts = []string{
	time.RFC3339Nano,
	TimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time accepts the zone-less timestamps served by NVD as well as RFC 3339.
// Zone-less values are read as UTC.
type Time struct {
	time.Time
}

func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, nil
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return Time{Time: t.UTC()}, nil
		}
	}
	return Time{}, errors.Errorf("unexpected time format. expected: %q, actual: %q", layouts, s)
}

func (t Time) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*t = Time{}
		return nil
	}
	p, err := ParseTime(strings.Trim(s, `"`))
	if err != nil {
		return errors.WithStack(err)
	}
	*t = p
	return nil
}
