package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/depforge/depforge/internal/config"
	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAllSourceKinds(t *testing.T) {
	path := writeManifest(t, `
[deps.a]
source = "pkg"
user = "u"
name = "a"
version = "1.0.0"

[deps.b]
source = "local"
path = "../b"

[build-deps.c]
source = "url"
url = "https://example.com/c.tar.gz"
integrity = "deadbeef"

[build-deps.d]
source = "git"
repo = "https://example.com/d.git"
ref = "main"

[[exports]]
name = "sub"
path = "subdir"
`)

	project, err := config.Load(path)
	require.NoError(t, err)

	require.Len(t, project.Deps, 2)
	assert.Equal(t, "a", project.Deps[0].Alias)
	assert.Equal(t, depgraph.SourcePkg, project.Deps[0].Source.Kind)
	assert.Equal(t, "b", project.Deps[1].Alias)
	assert.Equal(t, depgraph.SourceLocal, project.Deps[1].Source.Kind)

	require.Len(t, project.BuildDeps, 2)
	assert.Equal(t, "c", project.BuildDeps[0].Alias)
	assert.Equal(t, depgraph.SourceURL, project.BuildDeps[0].Source.Kind)
	assert.Equal(t, "d", project.BuildDeps[1].Alias)
	assert.Equal(t, depgraph.SourceGit, project.BuildDeps[1].Source.Kind)

	require.Len(t, project.Exports, 1)
	assert.Equal(t, "sub", project.Exports[0].Name)
	assert.Equal(t, "subdir", project.Exports[0].Path)
}

func TestLoadEmptyManifest(t *testing.T) {
	path := writeManifest(t, "")
	project, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, project.Deps)
	assert.Empty(t, project.BuildDeps)
	assert.Empty(t, project.Exports)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSourceKind(t *testing.T) {
	path := writeManifest(t, `
[deps.a]
source = "ftp"
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsIncompletePkgSource(t *testing.T) {
	path := writeManifest(t, `
[deps.a]
source = "pkg"
user = "u"
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadDeterministicAliasOrder(t *testing.T) {
	path := writeManifest(t, `
[deps.zeta]
source = "local"
path = "z"

[deps.alpha]
source = "local"
path = "a"

[deps.mid]
source = "local"
path = "m"
`)
	project, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, project.Deps, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{
		project.Deps[0].Alias, project.Deps[1].Alias, project.Deps[2].Alias,
	})
}
