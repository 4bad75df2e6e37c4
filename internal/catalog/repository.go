package catalog

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
)

// Repository is one catalog backend: the remote search API, Postgres or
// Elasticsearch.
type Repository interface {
	Search(ctx context.Context, filters *dto.SearchFilters) ([]model.Product, error)
}

// CacheKeyPrefix starts every cached result page key.
const CacheKeyPrefix = "catalog:search:"

// Cache stores encoded result pages.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Invalidator drops cached pages when the catalog changes.
type Invalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Indexer receives products copied into a search backend.
type Indexer interface {
	IndexProduct(ctx context.Context, p model.Product) error
}
