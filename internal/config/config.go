// Package config loads a project's depforge.toml manifest: the direct and
// build-time dependency lists that seed an engine run, plus any exported
// sub-packages the generated build graph should describe. This is the
// "project manifest loader" spec.md places out of scope (§1 OUT OF SCOPE);
// this package gives it a minimal concrete form, grounded on the teacher's
// own TOML manifest parsing (pkg/deps/rust/cargo.go, pkg/deps/python/poetry.go).
package config

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/ferrors"
)

// ManifestName is the default manifest filename (the --manifest flag's
// default); Load itself reads whatever path it is given.
const ManifestName = "depforge.toml"

// rawManifest mirrors depforge.toml's on-disk shape. Dependency sources are
// decoded from a flat table rather than a tagged union since TOML has no
// native sum type; Kind picks which of the other fields apply.
type rawManifest struct {
	Deps      map[string]rawDep `toml:"deps"`
	BuildDeps map[string]rawDep `toml:"build-deps"`
	Exports   []rawExport       `toml:"exports"`
}

type rawDep struct {
	Source    string `toml:"source"`
	User      string `toml:"user"`
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	Path      string `toml:"path"`
	URL       string `toml:"url"`
	Integrity string `toml:"integrity"`
	Repo      string `toml:"repo"`
	Ref       string `toml:"ref"`
}

type rawExport struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// Load reads and parses the manifest at path into a depgraph.Project. The
// map keys in the [deps]/[build-deps] tables become each dependency's alias;
// TOML table iteration is unordered, so Load sorts aliases before building
// the dependency lists, making Seed's resulting dep_idx assignment
// deterministic across runs of the same manifest.
func Load(path string) (depgraph.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return depgraph.Project{}, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "reading manifest %s", path)
	}

	var raw rawManifest
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return depgraph.Project{}, ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "parsing manifest %s", path))
	}

	deps, err := toDependencies(raw.Deps)
	if err != nil {
		return depgraph.Project{}, err
	}
	buildDeps, err := toDependencies(raw.BuildDeps)
	if err != nil {
		return depgraph.Project{}, err
	}

	exports := make([]depgraph.Export, 0, len(raw.Exports))
	for _, ex := range raw.Exports {
		exports = append(exports, depgraph.Export{Name: ex.Name, Path: ex.Path})
	}

	return depgraph.Project{Deps: deps, BuildDeps: buildDeps, Exports: exports}, nil
}

func toDependencies(raw map[string]rawDep) ([]depgraph.Dependency, error) {
	aliases := sortedKeys(raw)
	deps := make([]depgraph.Dependency, 0, len(aliases))
	for _, alias := range aliases {
		d := raw[alias]
		desc, err := toDescriptor(alias, d)
		if err != nil {
			return nil, err
		}
		deps = append(deps, depgraph.Dependency{Alias: alias, Source: desc})
	}
	return deps, nil
}

func toDescriptor(alias string, d rawDep) (depgraph.SourceDescriptor, error) {
	switch depgraph.SourceKind(d.Source) {
	case depgraph.SourcePkg:
		if d.User == "" || d.Name == "" || d.Version == "" {
			return depgraph.SourceDescriptor{}, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput,
				"dependency %q: pkg source requires user, name, and version", alias))
		}
		return depgraph.SourceDescriptor{Kind: depgraph.SourcePkg, User: d.User, Name: d.Name, Version: d.Version}, nil

	case depgraph.SourceLocal:
		if d.Path == "" {
			return depgraph.SourceDescriptor{}, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput,
				"dependency %q: local source requires path", alias))
		}
		return depgraph.SourceDescriptor{Kind: depgraph.SourceLocal, Path: d.Path}, nil

	case depgraph.SourceURL:
		if d.URL == "" {
			return depgraph.SourceDescriptor{}, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput,
				"dependency %q: url source requires url", alias))
		}
		return depgraph.SourceDescriptor{Kind: depgraph.SourceURL, URL: d.URL, Integrity: d.Integrity}, nil

	case depgraph.SourceGit:
		if d.Repo == "" || d.Ref == "" {
			return depgraph.SourceDescriptor{}, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidInput,
				"dependency %q: git source requires repo and ref", alias))
		}
		return depgraph.SourceDescriptor{Kind: depgraph.SourceGit, Repo: d.Repo, Ref: d.Ref}, nil

	default:
		return depgraph.SourceDescriptor{}, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidSourceKind,
			"dependency %q: unknown source kind %q", alias, d.Source))
	}
}

func sortedKeys(m map[string]rawDep) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
