package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/depforge/depforge/internal/config"
	"github.com/depforge/depforge/pkg/buildgraph"
	"github.com/depforge/depforge/pkg/depgraph"
)

// resolveOpts holds resolve's flag values.
type resolveOpts struct {
	manifest string
	lockfile string
	output   string
	cacheDir string
	registry string
	maxDepth int
	maxNodes int
	refresh  []string
	cache    cacheFlags
}

func newResolveCmd() *cobra.Command {
	o := &resolveOpts{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a project's dependency graph and refresh its lockfile",
		Long: `Resolve reads a project's depforge.toml manifest, crawls its direct and
transitive dependencies against the existing lockfile (reusing entries that
are still valid), fetches whatever changed, and writes back a refreshed
lockfile plus a generated Go source file exposing the resolved graph to the
build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.manifest, "manifest", config.ManifestName, "path to the project manifest")
	flags.StringVar(&o.lockfile, "lockfile", "depforge.lock", "path to the lockfile")
	flags.StringVar(&o.output, "output", "depforge_deps.go", "path to the generated build-graph source file")
	flags.StringVar(&o.cacheDir, "cache-dir", ".depforge/cache", "directory backing fetched archives and checkouts")
	flags.StringVar(&o.registry, "registry", "https://registry.depforge.dev", "base URL of the pkg source registry")
	flags.IntVar(&o.maxDepth, "max-depth", depgraph.DefaultMaxDepth, "maximum BFS depth before aborting as a likely cycle")
	flags.IntVar(&o.maxNodes, "max-nodes", depgraph.DefaultMaxNodes, "maximum dependency table size before aborting")
	flags.StringSliceVar(&o.refresh, "refresh", nil, "root dependency aliases to clear and re-fetch even if the lockfile is still valid")
	flags.StringVar(&o.cache.backend, "cache-backend", "file", "HTTP response cache backend: file, redis, or mongo")
	flags.StringVar(&o.cache.httpCacheDir, "http-cache-dir", ".depforge/http-cache", "directory backing the file cache backend")
	flags.StringVar(&o.cache.redisAddr, "redis-addr", "localhost:6379", "address of the redis cache backend")
	flags.IntVar(&o.cache.redisDB, "redis-db", 0, "redis database number")
	flags.StringVar(&o.cache.mongoURI, "mongo-uri", "mongodb://localhost:27017", "connection URI for the mongo cache backend")
	flags.StringVar(&o.cache.mongoDB, "mongo-db", "depforge", "database name for the mongo cache backend")
	flags.StringVar(&o.cache.mongoColl, "mongo-collection", "http_cache", "collection name for the mongo cache backend")

	return cmd
}

func runResolve(cmd *cobra.Command, o *resolveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	project, err := config.Load(o.manifest)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	logger.Debugf("loaded manifest with %d deps, %d build-deps", len(project.Deps), len(project.BuildDeps))

	lockText, err := os.ReadFile(o.lockfile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading lockfile: %w", err)
	}

	httpCache, err := newHTTPCache(ctx, o.cache)
	if err != nil {
		return fmt.Errorf("setting up cache backend: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	drivers := buildDrivers(root, o.cacheDir, o.registry, httpCache)

	runID := uuid.NewString()
	opts := depgraph.Options{MaxDepth: o.maxDepth, MaxNodes: o.maxNodes}

	var warnings []string
	engine, err := depgraph.NewEngine(drivers, lockText, opts, runID, func(line int, msg string) {
		warnings = append(warnings, fmt.Sprintf("lockfile line %d: %s", line, msg))
	})
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	engine.Seed(project)
	for _, alias := range o.refresh {
		if engine.ClearResolution(alias) {
			logger.Debugf("cleared resolution for %q, will re-fetch", alias)
		} else {
			logger.Warnf("--refresh %q: no matching root dependency found", alias)
		}
	}

	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("resolving dependencies: %w", err)
	}

	if err := os.WriteFile(o.lockfile, engine.Lockfile(), 0o644); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	resolver := buildgraph.NewResolver(engine.DepTable(), engine.Paths())
	normal := buildgraph.EmitNormal(engine.Edges(), resolver)
	exports := buildgraph.EmitExports(project.Exports, engine.Edges())

	if err := os.WriteFile(o.output, []byte(normal+exports), 0o644); err != nil {
		return fmt.Errorf("writing build graph %s: %w", o.output, err)
	}

	buildDepsPath := o.output + ".builddeps.json"
	buildDepsJSON, err := buildgraph.EmitBuildDepsJSON(buildgraph.BuildBuildDepsTree(engine.Edges(), resolver))
	if err != nil {
		return fmt.Errorf("encoding build-deps tree: %w", err)
	}
	if err := os.WriteFile(buildDepsPath, buildDepsJSON, 0o644); err != nil {
		return fmt.Errorf("writing build-deps tree %s: %w", buildDepsPath, err)
	}

	removed, err := engine.GC(ctx, o.cacheDir)
	if err != nil {
		logger.Warnf("cache GC: %v", err)
	} else if removed > 0 {
		logger.Debugf("cache GC removed %d stale entries", removed)
	}

	engine.Teardown()

	prog.done(fmt.Sprintf("resolved %d edges", len(engine.Edges())))
	return nil
}
