package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/stepwise/internal/adapters/postgres"
	"github.com/samirrijal/stepwise/internal/adapters/routefile"
	"github.com/samirrijal/stepwise/internal/adapters/valkey"
	"github.com/samirrijal/stepwise/internal/core/ports"
	"github.com/samirrijal/stepwise/internal/core/usecases"
	"github.com/samirrijal/stepwise/internal/pkg/config"
	"github.com/samirrijal/stepwise/internal/pkg/logging"
)

// Usage:
//
//	ingestor routes/station-exit.yaml
//	ingestor s3://routes/stations/          (every *.yaml under the prefix)
//	ingestor s3://routes/stations/exit-b.yaml other.yaml
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ingestor <manifest.yaml|s3://bucket/key|s3://bucket/prefix/>...")
	}

	cfg, err := config.Load("stepwise-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Imports invalidate the API's shared route cache when it is reachable.
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "stepwise:"); err != nil {
		slog.Warn("valkey unavailable, cached routes expire on their own", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var store *routefile.S3Store
	if cfg.Storage.Endpoint != "" {
		store, err = routefile.NewS3Store(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, cfg.Storage.UseSSL)
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
	}

	sources, err := expand(ctx, store, os.Args[1:])
	if err != nil {
		log.Fatalf("list manifests: %v", err)
	}

	loader := routefile.NewLoader(nil)
	if store != nil {
		loader = routefile.NewLoader(store)
	}
	routes := usecases.NewRouteService(postgres.NewRouteRepo(db), cache)

	slog.Info("importing routes", "manifests", len(sources))

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	sem := make(chan struct{}, 4) // max 4 concurrent imports

	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			route, err := loader.Load(ctx, src)
			if err != nil {
				failed.Add(1)
				slog.Error("load manifest", "source", src, "error", err)
				return
			}
			if err := routes.Import(ctx, route); err != nil {
				failed.Add(1)
				slog.Error("import route", "source", src, "error", err)
				return
			}
			slog.Info("route imported", "source", src, "route_id", route.ID,
				"waypoints", len(route.Waypoints), "geofences", len(route.Geofences))
		}(src)
	}

	wg.Wait()

	if n := failed.Load(); n > 0 {
		log.Fatalf("%d of %d manifests failed", n, len(sources))
	}
	slog.Info("ingestion complete", "routes", len(sources))
}

// expand replaces s3://bucket/prefix/ arguments with the manifests stored
// under that prefix.
func expand(ctx context.Context, store *routefile.S3Store, args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "s3://") || !strings.HasSuffix(arg, "/") {
			out = append(out, arg)
			continue
		}
		if store == nil {
			return nil, fmt.Errorf("%s: storage.endpoint is not configured", arg)
		}
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(arg, "s3://"), "/")
		keys, err := store.List(ctx, bucket, prefix, ".yaml")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		for _, k := range keys {
			out = append(out, "s3://"+bucket+"/"+k)
		}
	}
	return out, nil
}
