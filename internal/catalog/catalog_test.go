package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviders() []Provider {
	return []Provider{
		{
			Name:         "shutterstock",
			Active:       true,
			URLPattern:   `shutterstock\.com/(?:image-photo|image-vector)/[\w-]*?(\d+)`,
			IDPattern:    `\d{6,12}`,
			CurrencyUnit: "USD",
		},
		{
			Name:         "istock",
			Active:       true,
			URLPattern:   `istockphoto\.com/\w+/[\w-]+-gm(\d+)`,
			IDPattern:    `gm\d+|\d{9}`,
			CurrencyUnit: "USD",
		},
		{
			Name:         "depositphotos",
			Active:       false,
			URLPattern:   `depositphotos\.com/(\d+)/`,
			IDPattern:    `dp\d+`,
			CurrencyUnit: "EUR",
		},
	}
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(testProviders())
	require.NoError(t, err)
	return snap
}

func TestGetCaseInsensitive(t *testing.T) {
	t.Parallel()
	snap := testSnapshot(t)

	for _, name := range []string{"shutterstock", "Shutterstock", "SHUTTERSTOCK"} {
		p, ok := snap.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, "shutterstock", p.Name)
	}

	_, ok := snap.Get("unknownsite")
	assert.False(t, ok)
}

func TestProvidersDeterministicOrder(t *testing.T) {
	t.Parallel()
	snap := testSnapshot(t)

	names := []string{}
	for _, p := range snap.Providers() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"depositphotos", "istock", "shutterstock"}, names)
}

func TestMatchURL(t *testing.T) {
	t.Parallel()
	snap := testSnapshot(t)

	tests := []struct {
		name     string
		url      string
		wantSite string
		wantID   string
		wantOK   bool
	}{
		{
			name:     "shutterstock photo",
			url:      "https://www.shutterstock.com/image-photo/beach-sunset-1234567",
			wantSite: "shutterstock",
			wantID:   "1234567",
			wantOK:   true,
		},
		{
			name:     "istock",
			url:      "https://www.istockphoto.com/photo/city-skyline-gm482931723",
			wantSite: "istock",
			wantID:   "482931723",
			wantOK:   true,
		},
		{
			name:     "inactive provider still identified",
			url:      "https://depositphotos.com/98765432/stock-photo-cat.html",
			wantSite: "depositphotos",
			wantID:   "98765432",
			wantOK:   true,
		},
		{
			name:   "unrelated url",
			url:    "https://example.com/some/page",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, id, ok := snap.MatchURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantSite, p.Name)
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestMatchBareID(t *testing.T) {
	t.Parallel()
	snap := testSnapshot(t)

	// gm-prefixed ids belong to istock alone.
	p, ok, ambiguous := snap.MatchBareID("gm482931723")
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "istock", p.Name)

	// A 9-digit id matches both shutterstock and istock patterns.
	_, ok, ambiguous = snap.MatchBareID("123456789")
	assert.False(t, ok)
	assert.True(t, ambiguous)

	// A 6-digit id is distinguishable: only shutterstock allows it.
	p, ok, ambiguous = snap.MatchBareID("123456")
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "shutterstock", p.Name)

	// An id matching only an inactive provider is still identified so the
	// parser can report "provider inactive".
	p, ok, ambiguous = snap.MatchBareID("dp12345")
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "depositphotos", p.Name)
}

func TestValidID(t *testing.T) {
	t.Parallel()
	snap := testSnapshot(t)

	p, _ := snap.Get("shutterstock")
	assert.True(t, p.ValidID("1234567"))
	assert.False(t, p.ValidID("12"))
	assert.False(t, p.ValidID("abc"))
	assert.False(t, p.ValidID(""))

	// A provider without an id pattern accepts any non-empty id.
	loose := Provider{Name: "loose", Active: true}
	snapLoose, err := NewSnapshot([]Provider{loose})
	require.NoError(t, err)
	lp, _ := snapLoose.Get("loose")
	assert.True(t, lp.ValidID("anything-goes"))
	assert.False(t, lp.ValidID(""))
}

func TestNewSnapshotRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewSnapshot([]Provider{{Name: ""}})
	assert.Error(t, err)

	_, err = NewSnapshot([]Provider{{Name: "a", IDPattern: `[unclosed`}})
	assert.Error(t, err)

	_, err = NewSnapshot([]Provider{{Name: "dup"}, {Name: "DUP"}})
	assert.ErrorContains(t, err, "duplicate")
}
