package cli

import (
	"context"
	"fmt"

	"github.com/depforge/depforge/pkg/cache"
	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/source/gitsrc"
	"github.com/depforge/depforge/pkg/source/localsrc"
	"github.com/depforge/depforge/pkg/source/pkgsrc"
	"github.com/depforge/depforge/pkg/source/urlsrc"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cacheFlags collects the flags common to every command that needs an HTTP
// response cache backend for the pkg/url source drivers.
type cacheFlags struct {
	backend      string
	httpCacheDir string
	redisAddr    string
	redisDB      int
	mongoURI     string
	mongoDB      string
	mongoColl    string
}

// newHTTPCache builds the cache.Cache backend the pkg/url drivers use to
// avoid re-hitting a registry or download host on every run.
func newHTTPCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	switch f.backend {
	case "", "file":
		return cache.NewFileCache(f.httpCacheDir)
	case "redis":
		return cache.NewRedisCache(f.redisAddr, f.redisDB), nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(f.mongoURI))
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo at %s: %w", f.mongoURI, err)
		}
		coll := client.Database(f.mongoDB).Collection(f.mongoColl)
		return cache.NewMongoCache(coll), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis, or mongo)", f.backend)
	}
}

// buildDrivers wires the four concrete source drivers (§4.1) behind the
// depgraph.Driver contract, sharing one HTTP response cache between the pkg
// and url drivers and a project-rooted local driver and git checkout cache.
func buildDrivers(root, cacheDir, registryURL string, httpCache cache.Cache) map[depgraph.SourceKind]depgraph.Driver {
	keyer := cache.NewDefaultKeyer()
	return map[depgraph.SourceKind]depgraph.Driver{
		depgraph.SourcePkg:   pkgsrc.NewDriver(registryURL, cacheDir, httpCache, keyer),
		depgraph.SourceLocal: localsrc.NewDriver(root),
		depgraph.SourceURL:   urlsrc.NewDriver(cacheDir, httpCache, keyer),
		depgraph.SourceGit:   gitsrc.NewDriver(cacheDir),
	}
}
