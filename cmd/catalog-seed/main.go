package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"storefront_backend/internal/adapters"
	"storefront_backend/internal/adapters/storage"
	"storefront_backend/internal/catalog"
	"storefront_backend/internal/catalog/seed"
	"storefront_backend/internal/search"
	"storefront_backend/migrations"
	"storefront_backend/platform/config"
	"storefront_backend/platform/db"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

func main() {
	fixturePath := flag.String("file", "internal/catalog/seed/testdata/catalog.yaml", "catalog fixture to load")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting catalog seed", "file", *fixturePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*fixturePath)
	if err != nil {
		panic("failed to open fixture: " + err.Error())
	}
	fixture, err := seed.Load(f)
	_ = f.Close()
	if err != nil {
		panic("failed to load fixture: " + err.Error())
	}

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var uploader seed.ImageUploader
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketCatalogAssets()); err != nil {
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		uploader = storageSvc
	}

	val := validator.New()
	searchModule := search.NewModule(pool, nil, nil, nil, cfg, val, log)
	catalogModule := catalog.NewModule(pool, adapters.NewCatalogSearchIndexer(searchModule.Service()), nil, nil, val, log)

	seeder := seed.New(catalogModule.Service(), uploader, cfg.GetMinioBucketCatalogAssets(), filepath.Dir(*fixturePath))
	result, err := seeder.Apply(ctx, fixture)
	if err != nil {
		log.Error("catalog seed failed", "error", err)
		panic("catalog seed failed: " + err.Error())
	}

	log.Info("catalog seed complete",
		"categoriesCreated", result.CategoriesCreated,
		"categoriesReused", result.CategoriesReused,
		"productsCreated", result.ProductsCreated,
		"productsSkipped", result.ProductsSkipped,
		"productsDeferred", result.ProductsDeferred,
	)
}
