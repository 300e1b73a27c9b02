package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

func TestLetSetUnset(t *testing.T) {
	s := New("/")

	require.NoError(t, s.Let("x", value.Integer(1)))
	v, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, value.Integer(1), v)

	err := s.Let("x", value.Integer(2))
	assert.True(t, errs.Is(err, errs.CodeArgument))

	require.NoError(t, s.Set("x", value.Text("two")))
	v, _ = s.Lookup("x")
	assert.Equal(t, value.Text("two"), v)

	require.NoError(t, s.Unset("x"))
	_, ok = s.Lookup("x")
	assert.False(t, ok)

	assert.Error(t, s.Set("x", value.Integer(3)))
	assert.Error(t, s.Unset("x"))
}

func TestVarsReturnsCopy(t *testing.T) {
	s := New("/")
	require.NoError(t, s.Let("a", value.Bool(true)))

	vars := s.Vars()
	vars["b"] = value.Bool(false)

	_, ok := s.Lookup("b")
	assert.False(t, ok)
}

func TestChdir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))

	s := New(root)

	require.NoError(t, s.Chdir("sub"))
	assert.Equal(t, filepath.Join(root, "sub"), s.Cwd())

	require.NoError(t, s.Chdir(".."))
	assert.Equal(t, filepath.Clean(root), s.Cwd())

	assert.Error(t, s.Chdir("missing"))
	assert.Error(t, s.Chdir("file.txt"))
	assert.Equal(t, filepath.Clean(root), s.Cwd())
}
