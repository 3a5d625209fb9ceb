package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dopd.pid")

	p, err := Acquire(path)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, path, p.Path())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(contents))
}

func TestAcquireRewritesStaleContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dopd.pid")
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0600))

	p, err := Acquire(path)
	require.NoError(t, err)
	defer p.Close()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(contents))
}

func TestCloseLeavesFileInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dopd.pid")

	p, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err, "PID file should remain after shutdown")
}
