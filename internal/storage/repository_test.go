package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "room8.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, ok, err := repo.Get(ctx, KeyExpenses)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, KeyExpenses, []byte(`[1]`)))
	require.NoError(t, repo.Put(ctx, KeyExpenses, []byte(`[1,2]`)))

	data, ok, err := repo.Get(ctx, KeyExpenses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(data))

	require.NoError(t, repo.Delete(ctx, KeyExpenses))
	_, ok, err = repo.Get(ctx, KeyExpenses)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRepositoryPutManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.PutMany(ctx, map[string][]byte{
		KeyChores:      []byte(`["a"]`),
		KeyCompletions: []byte(`["b"]`),
	}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := repo.PutMany(cancelled, map[string][]byte{
		KeyChores:      []byte(`["changed"]`),
		KeyCompletions: []byte(`["changed"]`),
	})
	require.Error(t, err)

	chores, _, _ := repo.Get(ctx, KeyChores)
	completions, _, _ := repo.Get(ctx, KeyCompletions)
	assert.Equal(t, `["a"]`, string(chores))
	assert.Equal(t, `["b"]`, string(completions))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	_, path := newTestRepo(t)

	require.NoError(t, RunMigrations(path))

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, version)
}

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestLoadCollectionFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	assert.Empty(t, LoadCollection[item](ctx, repo, KeyRoommates), "absent key")

	require.NoError(t, repo.Put(ctx, KeyRoommates, []byte(`{not json`)))
	got := LoadCollection[item](ctx, repo, KeyRoommates)
	assert.NotNil(t, got)
	assert.Empty(t, got, "malformed document")

	require.NoError(t, repo.Put(ctx, KeyRoommates, []byte(`null`)))
	assert.NotNil(t, LoadCollection[item](ctx, repo, KeyRoommates))
}

func TestSaveAndLoadCollection(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	want := []item{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Ben"}}
	require.NoError(t, SaveCollection(ctx, repo, KeyRoommates, want))

	assert.Equal(t, want, LoadCollection[item](ctx, repo, KeyRoommates))

	data, err := EncodeCollection[item](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestReadCollectionReportsReadErrors(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.Close())

	_, err := ReadCollection[item](ctx, repo, KeyChores)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyChores)

	assert.Empty(t, LoadCollection[item](ctx, repo, KeyChores), "lenient load swallows the error")
}

type checkedItem struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

func (c checkedItem) Validate() error {
	if c.Kind != "daily" && c.Kind != "weekly" {
		return errors.New("unknown kind")
	}
	return nil
}

func TestDecodeCollectionSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	doc := `[{"id":"1","kind":"daily"},{"id":"2","kind":"fortnightly"},{"id":"3","kind":"weekly"}]`
	require.NoError(t, repo.Put(ctx, KeyChores, []byte(doc)))

	got, err := ReadCollection[checkedItem](ctx, repo, KeyChores)
	require.NoError(t, err)
	assert.Equal(t, []checkedItem{{ID: "1", Kind: "daily"}, {ID: "3", Kind: "weekly"}}, got)

	got = DecodeCollection[checkedItem](ctx, KeyChores, []byte(`[{"id":"2","kind":"yearly"}]`))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
