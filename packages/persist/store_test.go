package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"json": func(t *testing.T) Store {
			return NewFile(filepath.Join(t.TempDir(), "sheet.json"), JSON)
		},
		"yaml": func(t *testing.T) Store {
			return NewFile(filepath.Join(t.TempDir(), "sheet.yaml"), YAML)
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "sheet.db"))
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := NewBadger(InMemoryBadgerConfig())
			require.NoError(t, err)
			return s
		},
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := Snapshot{
		Version: "v1",
		Cells: []Record{
			{Name: "C1", Contents: "=B1+A1"},
			{Name: "B1", Contents: "= a1 * 2"},
			{Name: "A1", Contents: "5.0"},
			{Name: "D1", Contents: "hello: world\n\"quoted\""},
		},
	}

	for name, open := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			require.NoError(t, store.Save(ctx, snap))
			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, snap, got)

			// saving again replaces rather than appends
			smaller := Snapshot{Version: "v2", Cells: []Record{{Name: "Z9", Contents: "1"}}}
			require.NoError(t, store.Save(ctx, smaller))
			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, smaller, got)

			empty := Snapshot{Version: "v3", Cells: []Record{}}
			require.NoError(t, store.Save(ctx, empty))
			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, empty, got)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, open := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			_, err := store.Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, ErrReadWrite)
		})
	}
}

func TestFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFile(path, JSON).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadWrite)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFile_SaveToMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "sheet.json")

	err := NewFile(path, JSON).Save(context.Background(), Snapshot{Version: "v"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadWrite)
}

func TestFile_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.json")
	store := NewFile(path, JSON)
	require.NoError(t, store.Save(context.Background(), Snapshot{
		Version: "default",
		Cells:   []Record{{Name: "A1", Contents: "5"}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"default","cells":[{"name":"A1","contents":"5"}]}`, string(data))
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sheet.sqlite")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, Snapshot{Version: "v", Cells: []Record{{Name: "A1", Contents: "1"}}}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Version)
	assert.Equal(t, []Record{{Name: "A1", Contents: "1"}}, got.Cells)
}

func TestKindFor(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		path    string
		want    Kind
		wantErr bool
	}{
		{"a.json", KindJSON, false},
		{"a.YAML", KindYAML, false},
		{"a.yml", KindYAML, false},
		{"a.db", KindSQLite, false},
		{"a.sqlite", KindSQLite, false},
		{"a.badger", KindBadger, false},
		{dir, KindBadger, false},
		{"a.txt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := KindFor(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrReadWrite)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)
	require.NoError(t, s.Close())

	s, err = Open(KindSQLite, filepath.Join(dir, "a.data"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open("csv", filepath.Join(dir, "a.csv"))
	assert.ErrorIs(t, err, ErrReadWrite)
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	snap := Snapshot{Version: "v1", Cells: []Record{{Name: "A1", Contents: "1"}}}

	for _, name := range []string{"sheet.json", "sheet.yaml", "sheet.db", "sheet.badger"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			store, err := OpenReadOnly("", path)
			if err == nil {
				// file stores only notice on load
				_, err = store.Load(ctx)
				store.Close()
			}
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, ErrReadWrite)
			assert.NoFileExists(t, path)
			assert.NoDirExists(t, path)

			writable, err := Open("", path)
			require.NoError(t, err)
			require.NoError(t, writable.Save(ctx, snap))
			require.NoError(t, writable.Close())

			store, err = OpenReadOnly("", path)
			require.NoError(t, err)
			defer store.Close()
			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestReadOnlyStoresRefuseSave(t *testing.T) {
	ctx := context.Background()
	snap := Snapshot{Version: "v1", Cells: []Record{{Name: "A1", Contents: "1"}}}

	for _, name := range []string{"sheet.db", "sheet.badger"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writable, err := Open("", path)
			require.NoError(t, err)
			require.NoError(t, writable.Save(ctx, snap))
			require.NoError(t, writable.Close())

			store, err := OpenReadOnly("", path)
			require.NoError(t, err)
			defer store.Close()
			err = store.Save(ctx, Snapshot{Version: "v2"})
			assert.ErrorIs(t, err, ErrReadOnly)
			assert.ErrorIs(t, err, ErrReadWrite)
		})
	}
}

func TestReadOnlyBadgerLeavesDirectoryAlone(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sheet.badger")
	writable, err := Open(KindBadger, path)
	require.NoError(t, err)
	require.NoError(t, writable.Save(ctx, Snapshot{Version: "v1", Cells: []Record{}}))
	require.NoError(t, writable.Close())

	before := dirState(t, path)
	for i := 0; i < 3; i++ {
		store, err := OpenReadOnly(KindBadger, path)
		require.NoError(t, err)
		_, err = store.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
	assert.Equal(t, before, dirState(t, path))
}

// dirState maps every file in dir to its size and modification time
func dirState(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	state := make(map[string]string, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		require.NoError(t, err)
		state[e.Name()] = fmt.Sprintf("%d %s", info.Size(), info.ModTime())
	}
	return state
}
