// Package pkgsrc implements the "pkg" source driver: dependencies hosted on
// a module registry and identified by user/name/version, resolved and
// fetched the way pkg/integrations/goproxy's Go-module-proxy client talked
// to proxy.golang.org — a metadata lookup followed by an archive download,
// both cached and retried through pkg/httputil.
package pkgsrc

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

// manifest is the per-version metadata a registry returns: the archive's
// integrity hash and its own direct dependencies.
type manifest struct {
	SHA256       string   `json:"sha256"`
	Dependencies []depRef `json:"dependencies"`
}

type depRef struct {
	Alias   string `json:"alias"`
	User    string `json:"user"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (m manifest) childDeps() []depgraph.Dependency {
	deps := make([]depgraph.Dependency, 0, len(m.Dependencies))
	for _, r := range m.Dependencies {
		deps = append(deps, depgraph.Dependency{
			Alias:  r.Alias,
			Source: depgraph.SourceDescriptor{Kind: depgraph.SourcePkg, User: r.User, Name: r.Name, Version: r.Version},
		})
	}
	return deps
}

// Driver implements depgraph.Driver for the pkg source kind.
type Driver struct {
	client   *httputil.Client
	cacheDir string
	baseURL  string
}

// NewDriver returns a pkgsrc.Driver hitting baseURL (a registry root, e.g.
// "https://registry.example.com") and storing downloaded archives under
// cacheDir.
func NewDriver(baseURL, cacheDir string, backend cache.Cache, keyer cache.Keyer) *Driver {
	return &Driver{
		client:   httputil.NewClient(backend, keyer, "pkgsrc", cache.TTLModule, nil),
		cacheDir: cacheDir,
		baseURL:  baseURL,
	}
}

func (d *Driver) Name() depgraph.SourceKind { return depgraph.SourcePkg }

func (d *Driver) DeserializeLockfileEntry(fields []string) (depgraph.ResolutionEntry, error) {
	if len(fields) != 4 {
		return depgraph.ResolutionEntry{}, fmt.Errorf("pkg: expected \"user name version sha256\", got %d fields", len(fields))
	}
	return depgraph.ResolutionEntry{
		Source: depgraph.SourceDescriptor{
			Kind: depgraph.SourcePkg, User: fields[0], Name: fields[1], Version: fields[2], Integrity: fields[3],
		},
	}, nil
}

func (d *Driver) SerializeResolution(entry depgraph.ResolutionEntry) string {
	s := entry.Source
	return fmt.Sprintf("pkg %s %s %s %s", s.User, s.Name, s.Version, s.Integrity)
}

func (d *Driver) FindResolution(desc depgraph.SourceDescriptor, entries []depgraph.ResolutionEntry) (int, bool) {
	for i, e := range entries {
		if e.Source.User == desc.User && e.Source.Name == desc.Name && e.Source.Version == desc.Version {
			return i, true
		}
	}
	return -1, false
}

func (d *Driver) DedupeResolveAndFetch(ctx context.Context, dep depgraph.Dependency, entries []depgraph.ResolutionEntry) depgraph.RowResult {
	if idx, ok := d.FindResolution(dep.Source, entries); ok {
		entry := entries[idx]
		if entry.DepIdx != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeCopyDeps, ResIdx: idx}
		}

		m, archivePath, err := d.resolve(ctx, dep.Source)
		if err != nil {
			return errResult(err)
		}
		if entry.Source.Integrity != "" && m.SHA256 != entry.Source.Integrity {
			return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: ferrors.AsExplained(ferrors.New(
				ferrors.ErrCodeNetwork, "checksum mismatch for %s/%s@%s: lockfile has %s, registry has %s",
				dep.Source.User, dep.Source.Name, dep.Source.Version, entry.Source.Integrity, m.SHA256))}
		}
		return depgraph.RowResult{Outcome: depgraph.OutcomeFillResolution, ResIdx: idx, Path: archivePath, ChildDeps: m.childDeps()}
	}

	m, archivePath, err := d.resolve(ctx, dep.Source)
	if err != nil {
		return errResult(err)
	}
	resolved := dep.Source
	resolved.Integrity = m.SHA256
	return depgraph.RowResult{
		Outcome:   depgraph.OutcomeNewEntry,
		Entry:     depgraph.ResolutionEntry{Source: resolved},
		Path:      archivePath,
		ChildDeps: m.childDeps(),
	}
}

func (d *Driver) resolve(ctx context.Context, desc depgraph.SourceDescriptor) (manifest, string, error) {
	metaURL := fmt.Sprintf("%s/%s/%s/@v/%s.info", d.baseURL, desc.User, desc.Name, desc.Version)
	var m manifest
	if err := d.client.GetJSON(ctx, metaURL, false, &m); err != nil {
		if ferrors.Is(err, ferrors.ErrCodeNotFound) {
			return manifest{}, "", ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeNotFound, err,
				"package %s/%s@%s not found", desc.User, desc.Name, desc.Version))
		}
		return manifest{}, "", err
	}

	archiveURL := fmt.Sprintf("%s/%s/%s/@v/%s.tar.gz", d.baseURL, desc.User, desc.Name, desc.Version)
	body, err := d.client.GetBytes(ctx, archiveURL, false)
	if err != nil {
		return manifest{}, "", err
	}

	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])
	if m.SHA256 != "" && digest != m.SHA256 {
		return manifest{}, "", ferrors.AsExplained(ferrors.New(ferrors.ErrCodeNetwork,
			"archive checksum mismatch for %s/%s@%s: expected %s, got %s", desc.User, desc.Name, desc.Version, m.SHA256, digest))
	}
	if m.SHA256 == "" {
		m.SHA256 = digest
	}

	path := filepath.Join(d.cacheDir, fmt.Sprintf("%s-%s-%s-%s", desc.User, desc.Name, desc.Version, digest[:12]))
	if err := writeArchive(path, "archive.tar.gz", body); err != nil {
		return manifest{}, "", err
	}
	return m, path, nil
}

// writeArchive materializes the fetched archive bytes under a cache
// directory named after the resolution entry, so Path always points at
// content that actually exists on disk rather than a name the caller must
// take on faith.
func writeArchive(dir, filename string, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "creating cache dir %s", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), body, 0o644); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "writing cached archive to %s", dir)
	}
	return nil
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
