package urlsrc_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/depforge/depforge/pkg/cache"
	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/source/urlsrc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/archive.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
	return httptest.NewServer(mux)
}

func TestDriverDedupeResolveAndFetchNewEntry(t *testing.T) {
	body := []byte("some archive bytes")
	srv := newTestServer(t, body)
	defer srv.Close()

	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	dep := depgraph.Dependency{Alias: "lib", Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: srv.URL + "/archive.tar.gz"}}

	result := driver.DedupeResolveAndFetch(context.Background(), dep, nil)
	require.Equal(t, depgraph.OutcomeNewEntry, result.Outcome)
	assert.Empty(t, result.ChildDeps)
	assert.Equal(t, digest, result.Entry.Source.Integrity)
	assert.NotEmpty(t, result.Path)
}

func TestDriverDedupeResolveAndFetchChecksumMismatch(t *testing.T) {
	body := []byte("some archive bytes")
	srv := newTestServer(t, body)
	defer srv.Close()

	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	dep := depgraph.Dependency{Alias: "lib", Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: srv.URL + "/archive.tar.gz"}}
	entries := []depgraph.ResolutionEntry{
		{Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: dep.Source.URL, Integrity: "deadbeef"}},
	}

	result := driver.DedupeResolveAndFetch(context.Background(), dep, entries)
	require.Equal(t, depgraph.OutcomeErr, result.Outcome)
	require.Error(t, result.Err)
}

func TestDriverDedupeResolveAndFetchRejectsInvalidURL(t *testing.T) {
	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	dep := depgraph.Dependency{Alias: "lib", Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: "ftp://example.com/a"}}

	result := driver.DedupeResolveAndFetch(context.Background(), dep, nil)
	require.Equal(t, depgraph.OutcomeErr, result.Outcome)
}

func TestDriverLockfileRoundTrip(t *testing.T) {
	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	entry, err := driver.DeserializeLockfileEntry([]string{"https://example.com/a.tar.gz", "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "url https://example.com/a.tar.gz abc123", driver.SerializeResolution(entry))
}

func TestDriverDeserializeLockfileEntryRejectsWrongFieldCount(t *testing.T) {
	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	_, err := driver.DeserializeLockfileEntry([]string{"https://example.com/a.tar.gz"})
	assert.Error(t, err)
}

func TestDriverFindResolution(t *testing.T) {
	driver := urlsrc.NewDriver(t.TempDir(), cache.NewNullCache(), cache.NewDefaultKeyer())
	entries := []depgraph.ResolutionEntry{
		{Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: "https://example.com/a.tar.gz"}},
	}
	idx, ok := driver.FindResolution(depgraph.SourceDescriptor{URL: "https://example.com/a.tar.gz"}, entries)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = driver.FindResolution(depgraph.SourceDescriptor{URL: "https://example.com/b.tar.gz"}, entries)
	assert.False(t, ok)
}
