package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"go.uber.org/zap"
)

var ErrNoRepository = errors.New("catalog: no repository configured")

type catalogUseCase struct {
	primary  catalog.Repository
	fallback catalog.Repository
	cache    catalog.Cache
	cacheTTL time.Duration
	logger   logger.ZapLogger
}

type Option func(*catalogUseCase)

// WithFallback is queried when the primary repository fails.
func WithFallback(repo catalog.Repository) Option {
	return func(uc *catalogUseCase) { uc.fallback = repo }
}

// WithCache enables read-through caching of result pages.
func WithCache(c catalog.Cache, ttl time.Duration) Option {
	return func(uc *catalogUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

func NewCatalogUseCase(primary catalog.Repository, log logger.ZapLogger, opts ...Option) catalog.UseCase {
	uc := &catalogUseCase{
		primary:  primary,
		cacheTTL: 5 * time.Minute,
		logger:   log,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *catalogUseCase) Search(ctx context.Context, filters *dto.SearchFilters) ([]model.Product, error) {
	if uc.primary == nil {
		return nil, ErrNoRepository
	}

	// 1. Cache
	cacheKey, err := generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, ok, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			uc.logger.Warn("catalog cache read failed", zap.Error(err))
		} else if ok {
			var products []model.Product
			if err := json.Unmarshal(val, &products); err == nil {
				return products, nil
			}
		}
	}

	// 2. Primary, then fallback
	products, err := uc.primary.Search(ctx, filters)
	if err != nil {
		if uc.fallback == nil {
			return nil, err
		}
		uc.logger.Error("catalog search failed, falling back", zap.Error(err))
		products, err = uc.fallback.Search(ctx, filters)
		if err != nil {
			return nil, err
		}
	}

	// 3. Fill cache
	if uc.cache != nil && cacheKey != "" {
		if data, err := json.Marshal(products); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}

	return products, nil
}

func generateCacheKey(filters *dto.SearchFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", catalog.CacheKeyPrefix, md5.Sum(data)), nil
}
