package version_test

import (
	"strings"
	"testing"

	"github.com/mlemrecords/mlem/version"
)

func TestBanner(t *testing.T) {
	got := version.Banner("meter")
	if !strings.HasPrefix(got, "Mlem Meter v") || !strings.Contains(got, version.BuildType) {
		t.Fatalf("Banner(\"meter\") = %q", got)
	}
}
