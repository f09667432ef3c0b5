package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, tag, commit, dirty string) {
	t.Helper()
	old := []string{Version, GitTag, GitCommit, GitDirty}
	Version, GitTag, GitCommit, GitDirty = version, tag, commit, dirty
	t.Cleanup(func() {
		Version, GitTag, GitCommit, GitDirty = old[0], old[1], old[2], old[3]
	})
}

func TestInfo(t *testing.T) {
	withBuild(t, "0.3.0", "", "unknown", "")
	assert.Equal(t, "0.3.0", Info())
	assert.Equal(t, "0.3.0", Full())
	assert.Equal(t, "pagechat/0.3.0", UserAgent())
}

func TestInfo_PrefersTagAndMarksDirty(t *testing.T) {
	withBuild(t, "0.3.0", "v0.3.1", "0123456789abcdef", "true")
	assert.Equal(t, "v0.3.1-dirty", Info())
	assert.Equal(t, "v0.3.1-dirty (0123456)", Full())
	assert.True(t, GetBuildInfo().GitDirty)
}

func TestFull_ShortCommit(t *testing.T) {
	withBuild(t, "dev", "", "abc", "")
	assert.Equal(t, "dev (abc)", Full())
}
