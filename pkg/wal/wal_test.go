package wal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID  int    `json:"id"`
	Msg string `json:"msg"`
}

func readRecords(t *testing.T, w *WAL) []record {
	t.Helper()
	var out []record
	err := w.ReadAll(func(raw []byte) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestWAL_WriteAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(record{ID: 1, Msg: "a"}))
	require.NoError(t, w.Write(record{ID: 2, Msg: "b"}))

	assert.Equal(t, []record{{1, "a"}, {2, "b"}}, readRecords(t, w))

	// 讀取後仍寫在檔尾
	require.NoError(t, w.Write(record{ID: 3, Msg: "c"}))
	assert.Len(t, readRecords(t, w), 3)
}

func TestWAL_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.wal")
	w, err := NewWAL(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(record{ID: 1}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(record{ID: 2}), ErrClosed)

	w, err = NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, []record{{ID: 1}}, readRecords(t, w))
}

func TestWAL_SkipsTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.wal")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":1}\n\n{\"id\":2,\"msg\":\"par"), 0o600))

	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, []record{{ID: 1}}, readRecords(t, w))
}

func TestWAL_CorruptMiddleRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.wal")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":1}\nnot-json\n{\"id\":3}\n"), 0o600))

	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	err = w.ReadAll(func([]byte) error { return nil })
	assert.ErrorContains(t, err, "line 2")
}
