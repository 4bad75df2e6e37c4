package repository

import (
	"context"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type productRow struct {
	ID       int    `db:"id"`
	Title    string `db:"title"`
	ImageID  int    `db:"image_id"`
	ImageSrc string `db:"image_src"`
}

const searchProductsQuery = `
	SELECT p.id, p.title, COALESCE(i.id, 0) AS image_id, COALESCE(i.src, '') AS image_src
	FROM products p
	LEFT JOIN LATERAL (
		SELECT id, src FROM product_images WHERE product_id = p.id ORDER BY id LIMIT 1
	) i ON true
	WHERE p.title ILIKE $1
	ORDER BY p.id
	LIMIT $2 OFFSET $3
`

func (r *PGRepository) Search(ctx context.Context, f *dto.SearchFilters) ([]model.Product, error) {
	var rows []productRow
	if err := r.DB.SelectContext(ctx, &rows, searchProductsQuery, "%"+f.Search+"%", f.Limit, f.Offset()); err != nil {
		return nil, err
	}

	products := make([]model.Product, len(rows))
	if len(rows) == 0 {
		return products, nil
	}

	ids := make([]int, len(rows))
	index := make(map[int]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		index[row.ID] = i
		products[i] = model.Product{
			ID:       row.ID,
			Title:    row.Title,
			Variants: []model.Variant{},
		}
		if row.ImageID != 0 {
			products[i].Image = model.Image{ID: row.ImageID, ProductID: row.ID, Src: row.ImageSrc}
		}
	}

	// One round trip for all variants of the page
	query, args, err := sqlx.In(`
		SELECT id, product_id, title, price::text AS price
		FROM product_variants
		WHERE product_id IN (?)
		ORDER BY product_id, position, id
	`, ids)
	if err != nil {
		return nil, err
	}

	var variants []model.Variant
	if err := r.DB.SelectContext(ctx, &variants, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, v := range variants {
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}

	return products, nil
}
