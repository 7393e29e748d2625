package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/model"
)

func TestFeatureKey(t *testing.T) {
	a := FeatureKey([]byte("bill"), model.DeclaredInvoice, "text/plain")
	b := FeatureKey([]byte("bill"), model.DeclaredInvoice, "text/plain")
	c := FeatureKey([]byte("bill"), model.DeclaredOther, "text/plain")
	d := FeatureKey([]byte("bill2"), model.DeclaredInvoice, "text/plain")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "declared type is part of the key")
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, keyVersion)
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{Enabled: false}))
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{Enabled: true}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}))
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	v := []byte("abc")
	require.NoError(t, c.Set("k", v, 0))
	v[0] = 'z'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Clear())
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := FeatureKey([]byte("x"), model.DeclaredOther, "text/plain")
	require.NoError(t, c.Set(key, []byte("payload"), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, c.Set(key, []byte("stale"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)
	_, err := os.Stat(c.path(key))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")

	require.NoError(t, c.Delete(key), "deleting a missing key is fine")
}

func TestDiskCache_CorruptFile(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	path := c.path("bad")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	require.NoError(t, disk.Set("k", []byte("v"), 0))

	lc := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := lc.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	mem := lc.memory.(*MemoryCache)
	assert.Equal(t, 1, mem.Len())

	require.NoError(t, lc.Delete("k"))
	_, ok = lc.Get("k")
	assert.False(t, ok)
}

func TestFeatureStore(t *testing.T) {
	store := NewFeatureStore(NewMemoryCache(time.Minute, time.Minute), 0)

	f := model.NewEmptyFeatures("doc-1", model.DeclaredInvoice, "application/pdf")
	f.WordCount = 42
	f.ExtractedAmts = []float64{500, 520}
	f.ExtractedDates = []time.Time{time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)}

	store.Put("k", f, "")
	got, failure, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, f, got)
	assert.Empty(t, failure)

	empty := model.NewEmptyFeatures("doc-2", model.DeclaredMedicalReport, "application/pdf")
	store.Put("failed", empty, "(application/pdf via pdf): open pdf: not a PDF file")
	got, failure, ok = store.Get("failed")
	require.True(t, ok)
	assert.Equal(t, empty, got)
	assert.Equal(t, "(application/pdf via pdf): open pdf: not a PDF file", failure)

	var nilStore *FeatureStore
	_, _, ok = nilStore.Get("k")
	assert.False(t, ok)
	nilStore.Put("k", f, "")

	disabled := NewFeatureStore(nil, 0)
	_, _, ok = disabled.Get("k")
	assert.False(t, ok)
}
