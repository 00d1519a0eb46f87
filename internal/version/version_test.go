package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if v == "" {
		t.Fatal("expected a non-empty version")
	}
	if strings.TrimSpace(v) != v {
		t.Errorf("version %q has surrounding whitespace", v)
	}
	if UserAgent() != "toolroute/"+v {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
