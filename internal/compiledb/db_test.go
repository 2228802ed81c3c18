package compiledb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	return New(NewRecogniser().IsSource)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("int main() {}\n"), 0644))
}

func TestAddOneEntryPerSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.c"))
	touch(t, filepath.Join(dir, "b.c"))

	db := newTestDB(t)
	added := db.Add(dir, []string{"gcc", "-c", "a.c", "b.c"})
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, db.Len())
}

func TestAddNoSources(t *testing.T) {
	db := newTestDB(t)
	added := db.Add(t.TempDir(), []string{"gcc", "--version"})
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, db.Len())
}

func TestAddLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.c"))

	db := newTestDB(t)
	db.Add(dir, []string{"gcc", "-c", "a.c"})
	// Same source captured again, absolute this time: the keys collide
	// and the later capture replaces the earlier one.
	abs := filepath.Join(dir, "a.c")
	db.Add(dir, []string{"gcc", "-O2", "-c", abs})

	require.Equal(t, 1, db.Len())

	out := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, db.Save(out))

	fresh := newTestDB(t)
	require.NoError(t, fresh.Load(out))
	require.Equal(t, 1, fresh.Len())
	for _, entry := range fresh.entries {
		assert.Equal(t, []string{"gcc", "-O2", "-c", abs}, entry.Arguments)
		assert.Equal(t, abs, entry.File)
	}
}

func TestKeyFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.c"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "a.c"), filepath.Join(dir, "link.c")))

	db := newTestDB(t)
	db.Add(dir, []string{"gcc", "-c", "a.c"})
	db.Add(dir, []string{"gcc", "-c", "link.c"})

	// Both argv spellings resolve to the same file.
	assert.Equal(t, 1, db.Len())
}

func TestKeyFallbackWhenMissing(t *testing.T) {
	dir := t.TempDir()

	db := newTestDB(t)
	// The source never existed; canonicalisation cannot resolve it, but
	// the entry is still recorded under the absolute join.
	db.Add(dir, []string{"gcc", "-c", "ghost.c"})
	assert.Equal(t, 1, db.Len())

	_, ok := db.entries[filepath.Join(dir, "ghost.c")]
	assert.True(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Load(filepath.Join(t.TempDir(), "compile_commands.json")))
	assert.Equal(t, 0, db.Len())
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	db := newTestDB(t)
	assert.Error(t, db.Load(path))
}

func TestLoadPrunesStaleEntries(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "kept.c"))
	touch(t, filepath.Join(dir, "gone.c"))

	db := newTestDB(t)
	db.Add(dir, []string{"gcc", "-c", "kept.c", "gone.c"})

	out := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, db.Save(out))
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.c")))

	fresh := newTestDB(t)
	require.NoError(t, fresh.Load(out))
	require.Equal(t, 1, fresh.Len())
	for _, entry := range fresh.entries {
		assert.Equal(t, "kept.c", entry.File)
	}
}

func TestSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")

	db := newTestDB(t)
	require.NoError(t, db.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.c"))
	touch(t, filepath.Join(dir, "b.cpp"))

	db := newTestDB(t)
	db.Add(dir, []string{"gcc", "-c", "a.c"})
	db.Add(dir, []string{"g++", "-std=c++20", "-c", "b.cpp"})

	first := filepath.Join(dir, "first.json")
	require.NoError(t, db.Save(first))

	reloaded := newTestDB(t)
	require.NoError(t, reloaded.Load(first))

	second := filepath.Join(dir, "second.json")
	require.NoError(t, reloaded.Save(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b), "save/load/save must be byte-identical")
}

func TestMergePreservesPriorEntries(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "old.c"))
	touch(t, filepath.Join(dir, "new.c"))

	out := filepath.Join(dir, "compile_commands.json")

	db := newTestDB(t)
	db.Add(dir, []string{"gcc", "-c", "old.c"})
	require.NoError(t, db.Save(out))

	merged := newTestDB(t)
	require.NoError(t, merged.Load(out))
	merged.Add(dir, []string{"gcc", "-c", "new.c"})
	require.NoError(t, merged.Save(out))

	final := newTestDB(t)
	require.NoError(t, final.Load(out))
	assert.Equal(t, 2, final.Len())
}
