package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	vars := map[string]interface{}{
		"a": 1,
		"s": "text",
		"b": true,
		"f": 1.5,
		"m": map[string]interface{}{"x": 2},
	}
	require.NoError(t, s.Put(ctx, "main", vars))

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, vars, got)

	require.NoError(t, s.Put(ctx, "main", map[string]interface{}{"a": 5}))
	got, err = s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 5}, got)
}

func TestStore_Errors(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.Delete(ctx, "missing"), ErrNotFound))
	assert.True(t, errors.Is(s.Put(ctx, "", nil), ErrInvalidName))

	_, err = s.Run(ctx, "missing", "a = 1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "beta", nil))
	require.NoError(t, s.Put(ctx, "alpha", map[string]interface{}{"a": 1}))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "beta", infos[1].Name)
	assert.False(t, infos[0].CreatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, "alpha"))
	infos, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "beta", infos[0].Name)

	got, err := s.Get(ctx, "beta")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Run(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "counter", map[string]interface{}{
		"a": 3,
		"p": map[string]interface{}{"x": 0},
	}))

	out, err := s.Run(ctx, "counter", "a = a + 1")
	require.NoError(t, err)
	assert.Equal(t, 4, out["a"])

	out, err = s.Run(ctx, "counter", "if (a > 3) { p.x = a } else { p.x = 0 }")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 4}, out["p"])

	got, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 4, "p": map[string]interface{}{"x": 4}}, got)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), infos[0].Runs)
}

func TestStore_FailedRunLeavesSession(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "main", map[string]interface{}{"a": 1}))

	_, err := s.Run(ctx, "main", "a = a + missing")
	require.Error(t, err)
	assert.Equal(t, "UndefinedNameError", minijs.ErrorKind(err))

	_, err = s.Run(ctx, "main", "a = (")
	require.Error(t, err)
	assert.Equal(t, "SyntaxError", minijs.ErrorKind(err))

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1}, got)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), infos[0].Runs)
}

func TestStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "main", map[string]interface{}{"a": "kept"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "kept"}, got)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 3, Normalize(float64(3)))
	assert.Equal(t, 2.5, Normalize(2.5))
	assert.Equal(t, "x", Normalize("x"))
	assert.Equal(t, map[string]interface{}{"n": 1, "f": 0.5}, Normalize(map[string]interface{}{"n": 1.0, "f": 0.5}))
	assert.Equal(t, 9007199254740993, Normalize(json.Number("9007199254740993")))
	assert.Equal(t, 0.25, Normalize(json.Number("0.25")))
	assert.Equal(t, 7, Normalize(int64(7)))
}

func TestStore_LargeIntegersRoundTrip(t *testing.T) {
	st := openMemory(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "big", map[string]interface{}{"n": int64(1) << 60}))

	out, err := st.Run(ctx, "big", "n = n + 1")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"n": 1<<60 + 1}, out)

	stored, err := st.Get(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"n": 1<<60 + 1}, stored)
}
