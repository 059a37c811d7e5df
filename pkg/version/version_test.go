package version_test

import (
	"strings"
	"testing"

	"github.com/MaineK00n/exploitgpt/pkg/version"
)

func TestString(t *testing.T) {
	if got := version.String(); !strings.HasPrefix(got, version.Name+" ") {
		t.Errorf("String(). expected prefix: %q, actual: %q", version.Name+" ", got)
	}

	version.Version, version.Revision = "v0.1.0", "abc1234"
	t.Cleanup(func() { version.Version, version.Revision = "", "" })
	if got := version.String(); got != "exploitgpt v0.1.0 abc1234" {
		t.Errorf("String(). expected: %q, actual: %q", "exploitgpt v0.1.0 abc1234", got)
	}
}
