package catalog

import (
	"context"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
)

// UseCase is what a picker session searches against.
type UseCase interface {
	Search(ctx context.Context, filters *dto.SearchFilters) ([]model.Product, error)
}
