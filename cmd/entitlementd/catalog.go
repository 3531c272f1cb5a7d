package main

import (
	"context"
	"fmt"

	"github.com/bizkit-fr/entitlements/internal/config"
	"github.com/bizkit-fr/entitlements/pkg/plans"
)

func loadCatalog(ctx context.Context, cfg config.Catalog) (*plans.Catalog, error) {
	var src plans.Source
	switch cfg.Source {
	case config.CatalogFile:
		src = plans.NewFileSource(cfg.File)
	case config.CatalogS3:
		client, err := plans.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		src = plans.NewS3Source(client, cfg.S3.Bucket, cfg.S3.Key)
	case config.CatalogDefault:
		return plans.DefaultCatalog(), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
	return plans.LoadCatalog(ctx, src)
}
