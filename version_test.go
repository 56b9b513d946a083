package keyscope_test

import (
	"testing"

	keyscope "github.com/felixgeelhaar/keyscope"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if keyscope.GetVersion() != keyscope.Version {
		t.Errorf("GetVersion() = %s, want %s", keyscope.GetVersion(), keyscope.Version)
	}
	if keyscope.Version == "" {
		t.Error("Version should not be empty")
	}
}
