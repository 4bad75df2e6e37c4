package usecase

import (
	"context"

	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultReindexPage = 100

// Reindex copies every product src returns for the empty query into dst,
// one page at a time, and reports how many were written. It stops at the
// first short page.
func Reindex(ctx context.Context, src catalog.Repository, dst catalog.Indexer, pageSize int, log logger.ZapLogger) (int, error) {
	if pageSize <= 0 {
		pageSize = defaultReindexPage
	}

	total := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		products, err := src.Search(ctx, &dto.SearchFilters{Page: page, Limit: pageSize})
		if err != nil {
			return total, errors.Wrapf(err, "read page %d", page)
		}
		for _, p := range products {
			if err := dst.IndexProduct(ctx, p); err != nil {
				return total, errors.Wrapf(err, "index product %d", p.ID)
			}
			total++
		}
		log.Debug("reindexed page", zap.Int("page", page), zap.Int("products", len(products)))
		if len(products) < pageSize {
			return total, nil
		}
	}
}
