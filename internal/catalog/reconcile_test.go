package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

func product(id int64, stock int) *Product {
	return &Product{
		ProductID:   id,
		ProductName: "product",
		Price:       decimal.NewFromInt(10),
		Stock:       stock,
	}
}

func TestReconcileFlattensInOrderAndBackLinks(t *testing.T) {
	first := &Category{CategoryID: 1, CategoryName: "Flower", Products: []*Product{product(11, 1), product(12, 1), product(13, 1)}}
	second := &Category{CategoryID: 2, CategoryName: "Edibles", Products: []*Product{product(21, 1), product(22, 1)}}

	flat := Reconcile([]*Category{first, second})

	wantIDs := []int64{11, 12, 13, 21, 22}
	if len(flat) != len(wantIDs) {
		t.Fatalf("expected %d products, got %d", len(wantIDs), len(flat))
	}
	for i, p := range flat {
		if p.ProductID != wantIDs[i] {
			t.Fatalf("position %d: expected product %d, got %d", i, wantIDs[i], p.ProductID)
		}
		owner := first
		if i >= 3 {
			owner = second
		}
		if p.Category != owner {
			t.Fatalf("product %d should point at category %d", p.ProductID, owner.CategoryID)
		}
		if p.CategoryID != owner.CategoryID {
			t.Fatalf("product %d should carry category id %d, got %d", p.ProductID, owner.CategoryID, p.CategoryID)
		}
	}
}

func TestReconcileFirstCategoryWinsForSharedProduct(t *testing.T) {
	shared := product(5, 1)
	a := &Category{CategoryID: 1, Products: []*Product{shared}}
	b := &Category{CategoryID: 2, Products: []*Product{shared, product(6, 1)}}

	flat := Reconcile([]*Category{a, b})
	if len(flat) != 2 {
		t.Fatalf("shared product should be listed once, got %d entries", len(flat))
	}
	if shared.Category != a {
		t.Fatalf("first owning category should win")
	}
}

func TestReconcileSkipsNilEntries(t *testing.T) {
	orphan := product(9, 1)
	flat := Reconcile([]*Category{nil, {CategoryID: 3, Products: []*Product{nil, product(1, 1)}}})
	if len(flat) != 1 || flat[0].ProductID != 1 {
		t.Fatalf("unexpected flatten result %+v", flat)
	}
	if orphan.Category != nil {
		t.Fatalf("unowned product must keep a nil back-reference")
	}
	if got := Reconcile(nil); len(got) != 0 {
		t.Fatalf("expected empty result for nil input")
	}
}

func TestReconcileLeavesCategoriesUntouched(t *testing.T) {
	products := []*Product{product(1, 1), product(2, 1)}
	category := &Category{CategoryID: 4, Products: products}
	Reconcile([]*Category{category})
	if &category.Products[0] != &products[0] || len(category.Products) != 2 {
		t.Fatalf("category product slice must not be replaced")
	}
}

func TestProductJSONUsesCategoryStub(t *testing.T) {
	category := &Category{CategoryID: 7, CategoryName: "Vapes"}
	p := &Product{
		ProductID:      1,
		ProductName:    "Cart",
		Price:          decimal.RequireFromString("10.50"),
		Stock:          3,
		Category:       category,
		ProductDetails: []ProductDetail{{Attribute: "THC", Value: "80%"}},
	}
	category.Products = []*Product{p}

	raw, err := json.Marshal(category)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"category":{"categoryId":7}`) {
		t.Fatalf("expected id-only category stub, got %s", body)
	}
	if !strings.Contains(body, `"price":10.5`) {
		t.Fatalf("expected numeric price, got %s", body)
	}
	if strings.Count(body, "categoryName") != 1 {
		t.Fatalf("category must not be embedded in its products: %s", body)
	}
}

func TestProductJSONDecodesFullCategoryAsID(t *testing.T) {
	raw := `{"productId":3,"productName":"Gummies","price":"4.25","stock":12,
		"category":{"categoryId":2,"categoryName":"Edibles"},
		"productDetails":[{"attribute":"a","value":"1"},{"attribute":"b","value":"2"}]}`

	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.CategoryID != 2 || p.Category != nil {
		t.Fatalf("expected category id 2 without back-reference, got %+v", p)
	}
	if !p.Price.Equal(decimal.RequireFromString("4.25")) {
		t.Fatalf("expected price from string, got %s", p.Price)
	}
	if len(p.ProductDetails) != 2 || p.ProductDetails[1].Attribute != "b" {
		t.Fatalf("details order not preserved: %+v", p.ProductDetails)
	}
	if p.StockLevel() != enums.StockLevelIn {
		t.Fatalf("expected in_stock level, got %s", p.StockLevel())
	}
}

func TestDetachedDropsBackReference(t *testing.T) {
	category := &Category{CategoryID: 8}
	p := &Product{ProductID: 1, Category: category, ProductDetails: []ProductDetail{{Attribute: "x"}}}

	detached := p.Detached()
	if detached.Category != nil || detached.CategoryID != 8 {
		t.Fatalf("expected stub only, got %+v", detached)
	}
	detached.ProductDetails[0].Attribute = "changed"
	if p.ProductDetails[0].Attribute != "x" {
		t.Fatalf("detached copy must not share details")
	}
	if p.Category != category {
		t.Fatalf("original must keep its back-reference")
	}
}
