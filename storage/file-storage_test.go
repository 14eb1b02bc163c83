package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStorage_Lifecycle(t *testing.T) {
	s := NewStorage(afero.NewMemMapFs())
	loc := "tasks/abc/123-report.pdf"

	w, err := s.Create(loc)
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err := s.Exists(loc)
	require.NoError(t, err)
	assert.True(t, ok)

	r, size, err := s.Open(loc)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int64(5), size)

	require.NoError(t, s.Remove(loc))
	require.NoError(t, s.Remove(loc), "removing twice is tolerated")

	_, _, err = s.Open(loc)
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestAferoStorage_RejectsTraversal(t *testing.T) {
	s := NewStorage(afero.NewMemMapFs())

	_, err := s.Create("../etc/passwd")
	assert.Error(t, err)
	_, err = s.Create("tasks/../../etc/passwd")
	assert.Error(t, err)
	_, err = s.Create("")
	assert.Error(t, err)
}

func TestAferoStorage_DotsInsideNames(t *testing.T) {
	s := NewStorage(afero.NewMemMapFs())
	loc := "tasks/abc/123-release..notes.txt"

	w, err := s.Create(loc)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err := s.Exists(loc)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Remove(loc))
}

func TestNewDiskStorage(t *testing.T) {
	root := t.TempDir()
	s, err := NewDiskStorage(root)
	require.NoError(t, err)

	w, err := s.Create("tasks/t1/file.txt")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err := afero.Exists(afero.NewOsFs(), root+"/tasks/t1/file.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}
