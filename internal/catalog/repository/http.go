package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/pkg/errors"
)

const apiKeyHeader = "x-api-key"

// HTTPRepository queries the remote product search endpoint. The response
// body is a bare JSON array of products.
type HTTPRepository struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPRepository(baseURL, apiKey string, timeout time.Duration) *HTTPRepository {
	return &HTTPRepository{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRepository) Search(ctx context.Context, f *dto.SearchFilters) ([]model.Product, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog url")
	}
	q := u.Query()
	q.Set("search", f.Search)
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}
	req.Header.Set(apiKeyHeader, r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch products")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("fetch products: status %d: %s", resp.StatusCode, body)
	}

	var products []model.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}
