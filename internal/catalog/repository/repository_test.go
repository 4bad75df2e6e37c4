package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/search"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRepositorySendsQueryAndKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "towel", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":7,"title":"Bath Towel","image":{"id":1,"product_id":7,"src":"https://cdn/x.png"},
			"variants":[{"id":70,"product_id":7,"title":"S","price":"9.50"}]}]`))
	}))
	defer srv.Close()

	repo := NewHTTPRepository(srv.URL+"/task/products/search", "secret", time.Second)
	products, err := repo.Search(context.Background(), &dto.SearchFilters{Search: "towel", Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 7, products[0].ID)
	assert.Equal(t, "https://cdn/x.png", products[0].Image.Src)
	assert.Equal(t, "9.50", products[0].Variants[0].Price)
}

func TestHTTPRepositoryNullBodyIsEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	products, err := NewHTTPRepository(srv.URL, "k", time.Second).Search(context.Background(), &dto.SearchFilters{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestHTTPRepositoryStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPRepository(srv.URL, "bad", time.Second).Search(context.Background(), &dto.SearchFilters{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestPGRepositorySearchLoadsVariantsPerPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPGRepository(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery("FROM products p").
		WithArgs("%towel%", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "image_id", "image_src"}).
			AddRow(1, "Beach Towel", 11, "/img/1.png").
			AddRow(2, "Hand Towel", 0, ""))
	mock.ExpectQuery("FROM product_variants").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "title", "price"}).
			AddRow(1, 1, "Blue", "19.99").
			AddRow(2, 1, "Red", "19.99").
			AddRow(1, 2, "Default", "5.00"))

	products, err := repo.Search(context.Background(), &dto.SearchFilters{Search: "towel", Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "/img/1.png", products[0].Image.Src)
	assert.Len(t, products[0].Variants, 2)
	assert.Zero(t, products[1].Image.ID)
	assert.Equal(t, "Default", products[1].Variants[0].Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepositoryEmptyPageSkipsVariantQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPGRepository(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery("FROM products p").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "image_id", "image_src"}))

	products, err := repo.Search(context.Background(), &dto.SearchFilters{Search: "zzz", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepositoryPropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM products p").WillReturnError(errors.New("relation does not exist"))
	_, err = NewPGRepository(sqlx.NewDb(db, "postgres")).Search(context.Background(), &dto.SearchFilters{Page: 1, Limit: 10})
	assert.Error(t, err)
}

func TestElasticRepositoryDecodesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		assert.Contains(t, r.URL.Path, "/products/_search")
		w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[
			{"_id":"3","_source":{"id":3,"title":"Towel Rack","variants":[{"id":1,"product_id":3,"title":"Steel","price":"30.00"}]}},
			{"_id":"4","_source":"not-an-object"}
		]}}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	repo := NewElasticRepository(search.NewClientFromES(es), "", logger.NewNop())

	products, err := repo.Search(context.Background(), &dto.SearchFilters{Search: "towel", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Towel Rack", products[0].Title)
	assert.Len(t, products[0].Variants, 1)
}

func TestElasticRepositoryIndexesByID(t *testing.T) {
	var gotPath, gotMethod string
	var gotDoc model.Product
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotDoc)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	repo := NewElasticRepository(search.NewClientFromES(es), "catalog", logger.NewNop())

	err = repo.IndexProduct(context.Background(), model.Product{ID: 12, Title: "Beach Towel", Variants: []model.Variant{}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/catalog/_doc/12", gotPath)
	assert.Equal(t, "Beach Towel", gotDoc.Title)
}
