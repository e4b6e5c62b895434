package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

const testSession = "sess-1"

type stubFetcher struct {
	mu         sync.Mutex
	categories []*catalog.Category
	err        error
	calls      int
}

func (s *stubFetcher) FetchCategories(context.Context) ([]*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.categories, nil
}

type stubGateway struct {
	mu      sync.Mutex
	updates []int64
	orders  []*orders.Order
	err     error
}

func (g *stubGateway) UpdateProduct(_ context.Context, id int64, product *catalog.Product) (*catalog.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, id)
	if g.err != nil {
		return nil, g.err
	}
	return product, nil
}

func (g *stubGateway) CreateOrder(_ context.Context, order *orders.Order) (*orders.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, order)
	created := *order
	created.OrderID = 77
	return &created, nil
}

func flowerCategory() []*catalog.Category {
	category := &catalog.Category{CategoryID: 3, CategoryName: "Flower"}
	category.Products = []*catalog.Product{
		{ProductID: 1, ProductName: "Blue Dream", Price: decimal.RequireFromString("12.50"), Stock: 4, Category: category},
		{ProductID: 2, ProductName: "Sour Diesel", Price: decimal.NewFromInt(20), Stock: 40, Category: category},
	}
	return []*catalog.Category{category}
}

type fixture struct {
	kv       *kvstore.Memory
	carts    *cart.Registry
	fetcher  *stubFetcher
	products *catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := kvstore.NewMemory(0)
	carts, err := cart.NewRegistry(kv, nil)
	require.NoError(t, err)
	t.Cleanup(carts.Close)

	fetcher := &stubFetcher{categories: flowerCategory()}
	products, err := catalog.NewService(fetcher, nil)
	require.NoError(t, err)
	return &fixture{kv: kv, carts: carts, fetcher: fetcher, products: products}
}

func (f *fixture) cart(t *testing.T) *cart.Store {
	t.Helper()
	store, err := f.carts.ForSession(context.Background(), testSession)
	require.NoError(t, err)
	return store
}

// serve routes a single request through chi so URL params resolve, with the
// request already scoped to testSession.
func serve(t *testing.T, method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithSessionID(req.Context(), testSession))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error
}
