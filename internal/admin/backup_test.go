package admin

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanOld(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	b := NewBackuper("postgres://unused", dir, zap.NewNop())
	b.now = func() time.Time { return now }

	files := map[string]time.Time{
		"autobackup_20260301_030000.dump": now.AddDate(0, -2, 0),
		"backup_20260320_120000.dump":     now.AddDate(0, 0, -42),
		"autobackup_20260430_030000.dump": now.AddDate(0, 0, -1),
		"notes.txt":                       now.AddDate(-1, 0, 0),
	}
	for name, mtime := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	removed, err := b.CleanOld(backupRetention)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	var names []string
	for _, f := range left {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"autobackup_20260430_030000.dump", "notes.txt"}, names)
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/admin_rates gas 1"))
	assert.False(t, IsCommand("/start"))
	assert.False(t, IsCommand("admin_rates"))
}
