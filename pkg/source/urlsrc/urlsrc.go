// Package urlsrc implements the "url" source driver: a dependency fetched
// from an arbitrary HTTP(S) URL and verified against a SHA-256 integrity
// hash, with no registry metadata to consult for child dependencies — a url
// dependency is always a leaf.
package urlsrc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/depforge/depforge/pkg/cache"
	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/depforge/depforge/pkg/httputil"
)

// Driver implements depgraph.Driver for the url source kind.
type Driver struct {
	client   *httputil.Client
	cacheDir string
}

// NewDriver returns a urlsrc.Driver storing downloaded archives under
// cacheDir.
func NewDriver(cacheDir string, backend cache.Cache, keyer cache.Keyer) *Driver {
	return &Driver{
		client:   httputil.NewClient(backend, keyer, "urlsrc", cache.TTLArchive, nil),
		cacheDir: cacheDir,
	}
}

func (d *Driver) Name() depgraph.SourceKind { return depgraph.SourceURL }

func (d *Driver) DeserializeLockfileEntry(fields []string) (depgraph.ResolutionEntry, error) {
	if len(fields) != 2 {
		return depgraph.ResolutionEntry{}, fmt.Errorf("url: expected \"url sha256\", got %d fields", len(fields))
	}
	return depgraph.ResolutionEntry{
		Source: depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: fields[0], Integrity: fields[1]},
	}, nil
}

func (d *Driver) SerializeResolution(entry depgraph.ResolutionEntry) string {
	return fmt.Sprintf("url %s %s", entry.Source.URL, entry.Source.Integrity)
}

func (d *Driver) FindResolution(desc depgraph.SourceDescriptor, entries []depgraph.ResolutionEntry) (int, bool) {
	for i, e := range entries {
		if e.Source.URL == desc.URL {
			return i, true
		}
	}
	return -1, false
}

func (d *Driver) DedupeResolveAndFetch(ctx context.Context, dep depgraph.Dependency, entries []depgraph.ResolutionEntry) depgraph.RowResult {
	if err := ferrors.ValidateURL(dep.Source.URL); err != nil {
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: ferrors.AsExplained(err)}
	}

	if idx, ok := d.FindResolution(dep.Source, entries); ok {
		entry := entries[idx]
		if entry.DepIdx != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeCopyDeps, ResIdx: idx}
		}
		path, digest, err := d.download(ctx, dep.Source.URL)
		if err != nil {
			return errResult(err)
		}
		if entry.Source.Integrity != "" && digest != entry.Source.Integrity {
			return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: ferrors.AsExplained(ferrors.New(
				ferrors.ErrCodeNetwork, "checksum mismatch for %s: lockfile has %s, download has %s", dep.Source.URL, entry.Source.Integrity, digest))}
		}
		return depgraph.RowResult{Outcome: depgraph.OutcomeFillResolution, ResIdx: idx, Path: path}
	}

	path, digest, err := d.download(ctx, dep.Source.URL)
	if err != nil {
		return errResult(err)
	}
	if dep.Source.Integrity != "" && digest != dep.Source.Integrity {
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: ferrors.AsExplained(ferrors.New(
			ferrors.ErrCodeNetwork, "checksum mismatch for %s: manifest has %s, download has %s", dep.Source.URL, dep.Source.Integrity, digest))}
	}
	resolved := dep.Source
	resolved.Integrity = digest
	return depgraph.RowResult{Outcome: depgraph.OutcomeNewEntry, Entry: depgraph.ResolutionEntry{Source: resolved}, Path: path}
}

func (d *Driver) download(ctx context.Context, rawURL string) (path, digest string, err error) {
	body, err := d.client.GetBytes(ctx, rawURL, false)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(body)
	digest = hex.EncodeToString(sum[:])
	path = filepath.Join(d.cacheDir, digest)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", "", ferrors.Wrap(ferrors.ErrCodeInternal, err, "creating cache dir %s", path)
	}
	name := filepath.Base(rawURL)
	if name == "" || name == "." || name == "/" {
		name = "content"
	}
	if err := os.WriteFile(filepath.Join(path, name), body, 0o644); err != nil {
		return "", "", ferrors.Wrap(ferrors.ErrCodeInternal, err, "writing downloaded content to %s", path)
	}
	return path, digest, nil
}

func (d *Driver) ResolutionToCachePath(entry depgraph.ResolutionEntry) (string, bool) {
	if entry.Path == "" {
		return "", false
	}
	return entry.Path, true
}

func errResult(err error) depgraph.RowResult {
	return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: err}
}

var _ depgraph.Driver = (*Driver)(nil)
