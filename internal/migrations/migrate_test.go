package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_rooms.up.sql",
		"000001_create_rooms.down.sql",
		"000007_add_index.up.sql",
		"000009_broken.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	assert.Equal(t, int64(7), LatestVersion(dir))
}

func TestLatestVersionMissingDir(t *testing.T) {
	assert.Zero(t, LatestVersion(filepath.Join(t.TempDir(), "missing")))
}

func TestLatestVersionRepoMigrations(t *testing.T) {
	assert.Equal(t, int64(1), LatestVersion("../../migrations"))
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	assert.Error(t, RunMigrations("", "../../migrations"))
}
