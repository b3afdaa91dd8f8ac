package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo_VCSFallback(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.25.3",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := fromBuildInfo(bi, true)
	if info.GitCommit != "0123456" {
		t.Errorf("GitCommit = %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" || info.GoVersion != "go1.25.3" || !info.Dirty {
		t.Errorf("unexpected info %+v", info)
	}
	if got := info.String(); got != "dev (0123456-dirty)" {
		t.Errorf("String = %q", got)
	}
}

func TestFromBuildInfo_LdflagsWin(t *testing.T) {
	oldV, oldC := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldV, oldC })
	Version, GitCommit = "1.2.0", "abc1234"

	info := fromBuildInfo(&debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}}}, true)
	if info.Version != "1.2.0" || info.GitCommit != "abc1234" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestFromBuildInfo_Unavailable(t *testing.T) {
	info := fromBuildInfo(nil, false)
	if info.Version != Version || info.String() != Version {
		t.Errorf("unexpected info %+v", info)
	}
}
