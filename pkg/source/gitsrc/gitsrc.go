// Package gitsrc implements the "git" source driver: a dependency on a
// commit, branch or tag in a remote repository, fetched with a single-branch
// clone via go-git rather than shelling out to the git binary. Child dependencies, if
// any, come from the same depforge.local.json manifest shape localsrc reads,
// checked out alongside the rest of the repository.
package gitsrc

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// manifestFile mirrors localsrc's child-dependency manifest; a git
// dependency that vendors other dependencies declares them the same way.
const manifestFile = "depforge.local.json"

type localManifest struct {
	Dependencies []struct {
		Alias string `json:"alias"`
		Path  string `json:"path"`
	} `json:"dependencies"`
}

// Driver implements depgraph.Driver for the git source kind. CacheDir holds
// one checkout directory per repo+ref pair.
type Driver struct {
	CacheDir string
}

// NewDriver returns a gitsrc.Driver checking out repositories under
// cacheDir.
func NewDriver(cacheDir string) *Driver {
	return &Driver{CacheDir: cacheDir}
}

func (d *Driver) Name() depgraph.SourceKind { return depgraph.SourceGit }

func (d *Driver) DeserializeLockfileEntry(fields []string) (depgraph.ResolutionEntry, error) {
	if len(fields) != 2 {
		return depgraph.ResolutionEntry{}, fmt.Errorf("git: expected \"repo commit\", got %d fields", len(fields))
	}
	return depgraph.ResolutionEntry{
		Source: depgraph.SourceDescriptor{Kind: depgraph.SourceGit, Repo: fields[0], Ref: fields[1]},
	}, nil
}

func (d *Driver) SerializeResolution(entry depgraph.ResolutionEntry) string {
	return fmt.Sprintf("git %s %s", entry.Source.Repo, entry.Source.Ref)
}

func (d *Driver) FindResolution(desc depgraph.SourceDescriptor, entries []depgraph.ResolutionEntry) (int, bool) {
	for i, e := range entries {
		if e.Source.Repo == desc.Repo && e.Source.Ref == desc.Ref {
			return i, true
		}
	}
	return -1, false
}

func (d *Driver) DedupeResolveAndFetch(ctx context.Context, dep depgraph.Dependency, entries []depgraph.ResolutionEntry) depgraph.RowResult {
	if dep.Source.Repo == "" {
		return errResult(ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput, "git dependency %q has no repo", dep.Alias)))
	}
	if dep.Source.Ref == "" {
		return errResult(ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput, "git dependency %q has no ref", dep.Alias)))
	}

	if idx, ok := d.FindResolution(dep.Source, entries); ok {
		entry := entries[idx]
		if entry.DepIdx != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeCopyDeps, ResIdx: idx}
		}
		path, children, err := d.checkout(ctx, dep.Source)
		if err != nil {
			return errResult(err)
		}
		return depgraph.RowResult{Outcome: depgraph.OutcomeFillResolution, ResIdx: idx, Path: path, ChildDeps: children}
	}

	path, children, err := d.checkout(ctx, dep.Source)
	if err != nil {
		return errResult(err)
	}
	return depgraph.RowResult{
		Outcome:   depgraph.OutcomeNewEntry,
		Entry:     depgraph.ResolutionEntry{Source: dep.Source},
		Path:      path,
		ChildDeps: children,
	}
}

// checkout clones desc.Repo at desc.Ref into a deterministic cache
// directory, if not already present, and reads its manifest for child
// dependencies.
func (d *Driver) checkout(ctx context.Context, desc depgraph.SourceDescriptor) (string, []depgraph.Dependency, error) {
	dir := d.checkoutPath(desc)

	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return "", nil, err
		}
		if err := d.clone(ctx, desc, dir); err != nil {
			return "", nil, err
		}
	}

	children, err := loadChildren(dir)
	if err != nil {
		return "", nil, err
	}
	return dir, children, nil
}

func (d *Driver) clone(ctx context.Context, desc depgraph.SourceDescriptor, dir string) error {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          desc.Repo,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "cloning %s failed", desc.Repo))
	}

	wt, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(dir)
		return err
	}

	hash, err := resolveHash(repo, desc.Ref)
	if err != nil {
		_ = os.RemoveAll(dir)
		return ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeNotFound, err, "ref %q not found in %s", desc.Ref, desc.Repo))
	}

	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		_ = os.RemoveAll(dir)
		return ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeInternal, err, "checkout of %s@%s failed", desc.Repo, desc.Ref))
	}
	return nil
}

// resolveHash accepts either a full commit hash or a branch/tag name in
// desc.Ref. The resolved commit is used only for the checkout: resolution
// entries and lockfile lines keep Ref exactly as the manifest declared it,
// so a branch or tag ref is not pinned to the commit it resolved to.
func resolveHash(repo *git.Repository, ref string) (plumbing.Hash, error) {
	if plumbing.IsHash(ref) {
		return plumbing.NewHash(ref), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *resolved, nil
}

func (d *Driver) checkoutPath(desc depgraph.SourceDescriptor) string {
	sum := sha1.Sum([]byte(desc.Repo + "@" + desc.Ref))
	return filepath.Join(d.CacheDir, hex.EncodeToString(sum[:])[:16])
}

func loadChildren(dir string) ([]depgraph.Dependency, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m localManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid %s in %s", manifestFile, dir))
	}

	deps := make([]depgraph.Dependency, 0, len(m.Dependencies))
	for _, child := range m.Dependencies {
		deps = append(deps, depgraph.Dependency{
			Alias:  child.Alias,
			Source: depgraph.SourceDescriptor{Kind: depgraph.SourceLocal, Path: filepath.Join(dir, child.Path)},
		})
	}
	return deps, nil
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
