package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireNaming(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "dead_trees.geojson")

	h, err := Acquire(base)
	require.NoError(t, err)
	defer Release(h, false)

	assert.Equal(t, dir, filepath.Dir(h.Dir), "workspace should be a sibling of the output")
	assert.True(t, strings.HasPrefix(filepath.Base(h.Dir), "dead_trees_scratch_"),
		"name should combine the output stem with a scratch marker, got %s", h.Dir)

	info, err := os.Stat(h.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAcquireUnique(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out.geojson")

	a, err := Acquire(base)
	require.NoError(t, err)
	defer Release(a, false)

	b, err := Acquire(base)
	require.NoError(t, err)
	defer Release(b, false)

	assert.NotEqual(t, a.Dir, b.Dir, "concurrent runs must not share a workspace")
}

func TestAcquireMissingParent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nope", "out.geojson")
	_, err := Acquire(base)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	h := &Handle{Dir: "/scratch"}
	assert.Equal(t, filepath.Join("/scratch", "classified.tif"), h.Path("classified.tif"))
}

func TestReleaseRemoves(t *testing.T) {
	h, err := Acquire(filepath.Join(t.TempDir(), "out.geojson"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(h.Path("artifact.tif"), []byte("x"), 0644))

	Release(h, false)

	_, statErr := os.Stat(h.Dir)
	assert.True(t, os.IsNotExist(statErr), "workspace should be deleted")

	// Releasing again is a no-op.
	Release(h, false)
}

func TestReleaseRetains(t *testing.T) {
	h, err := Acquire(filepath.Join(t.TempDir(), "out.geojson"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(h.Path("artifact.tif"), []byte("x"), 0644))

	Release(h, true)

	_, statErr := os.Stat(h.Path("artifact.tif"))
	assert.NoError(t, statErr, "retained workspace should keep its artifacts")

	// A retained handle stays released; a second call must not delete it.
	Release(h, false)
	_, statErr = os.Stat(h.Dir)
	assert.NoError(t, statErr)
}

func TestReleaseNil(t *testing.T) {
	assert.NotPanics(t, func() { Release(nil, false) })
}
