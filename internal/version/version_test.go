package version

import (
	"runtime"
	"strings"

	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()

	if !strings.HasPrefix(info, "sipstream ") {
		t.Errorf("expected info to start with the binary name, got %q", info)
	}
	if !strings.Contains(info, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("expected platform in info, got %q", info)
	}
}

func TestAccessorsNonEmpty(t *testing.T) {
	if Short() == "" {
		t.Error("expected a resolved version")
	}
	if CommitHash() == "" {
		t.Error("expected a resolved commit")
	}
	if BuildDate() == "" {
		t.Error("expected a resolved build date")
	}
}
