package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/search"
	"go.uber.org/zap"
)

const ProductIndex = "products"

// ProductIndexMapping is applied by EnsureIndex.
const ProductIndexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "integer" },
			"title": { "type": "text" },
			"image": { "type": "object", "enabled": false },
			"variants": { "type": "object", "enabled": false }
		}
	}
}`

type ElasticRepository struct {
	es     *search.Client
	index  string
	logger logger.ZapLogger
}

func NewElasticRepository(es *search.Client, index string, log logger.ZapLogger) *ElasticRepository {
	if index == "" {
		index = ProductIndex
	}
	return &ElasticRepository{es: es, index: index, logger: log}
}

func (r *ElasticRepository) Search(ctx context.Context, f *dto.SearchFilters) ([]model.Product, error) {
	var match map[string]interface{}
	if f.Search == "" {
		match = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		match = map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", f.Search),
				"fields": []string{"title"},
			},
		}
	}
	q := map[string]interface{}{
		"query": match,
		"sort":  []map[string]interface{}{{"id": "asc"}},
		"from":  f.Offset(),
		"size":  f.Limit,
	}

	res, err := r.es.Search(ctx, r.index, q)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			r.logger.Warn("skipping undecodable product document", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		if p.Variants == nil {
			p.Variants = []model.Variant{}
		}
		products = append(products, p)
	}
	return products, nil
}

// EnsureIndex creates the product index if it does not exist yet. Errors
// are logged only; the index usually exists.
func (r *ElasticRepository) EnsureIndex(ctx context.Context) {
	if err := r.es.CreateIndex(ctx, r.index, ProductIndexMapping); err != nil {
		r.logger.Debug("create product index", zap.String("index", r.index), zap.Error(err))
	}
}

// IndexProduct writes p under its id, replacing any earlier document.
func (r *ElasticRepository) IndexProduct(ctx context.Context, p model.Product) error {
	return r.es.Index(ctx, r.index, strconv.Itoa(p.ID), p)
}
