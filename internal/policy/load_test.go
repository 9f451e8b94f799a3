package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPathSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "before_resolution.rego")
	require.NoError(t, os.WriteFile(path, []byte(denyRequiredBriefRego), 0o644))

	policies, err := LoadPath(path)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, path, policies[0].Path)
	assert.Equal(t, denyRequiredBriefRego, policies[0].Source)
}

func TestLoadPathDirectoryWalksRecursively(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rego"), []byte(denyRequiredBriefRego), 0o644))
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.rego"), []byte(adviceStabilityRego), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("not a policy"), 0o644))

	policies, err := LoadPath(dir)
	require.NoError(t, err)
	require.Len(t, policies, 2, "only .rego files are loaded, and non-.rego files are skipped")
}

func TestLoadPathMissingPathErrors(t *testing.T) {
	_, err := LoadPath(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
