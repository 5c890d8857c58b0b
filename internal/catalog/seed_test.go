package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	seed := `
providers:
  - name: shutterstock
    active: true
    url_pattern: 'shutterstock\.com/image-photo/[\w-]*?(\d+)'
    id_pattern: '\d{6,12}'
    currency_unit: USD
  - name: depositphotos
    active: false
    id_pattern: 'dp\d+'
    currency_unit: EUR
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	snap, err := LoadSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	p, ok := snap.Get("shutterstock")
	require.True(t, ok)
	assert.True(t, p.Active)
	assert.Equal(t, "USD", p.CurrencyUnit)

	p, ok = snap.Get("depositphotos")
	require.True(t, ok)
	assert.False(t, p.Active)
}

func TestLoadSeedFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("providers: []"), 0o644))
	_, err = LoadSeedFile(empty)
	assert.ErrorContains(t, err, "no providers")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("providers: {not a list"), 0o644))
	_, err = LoadSeedFile(bad)
	assert.Error(t, err)
}
