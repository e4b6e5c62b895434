package catalog

import "sync"

// Catalog is a reconciled, id-indexed view of one fetch of the category graph.
type Catalog struct {
	mu         sync.RWMutex
	categories []*Category
	products   []*Product
	byID       map[int64]*Product
}

// NewCatalog reconciles categories and indexes the result. When two distinct
// product objects share an id the first one in catalog order is indexed.
func NewCatalog(categories []*Category) *Catalog {
	products := Reconcile(categories)
	byID := make(map[int64]*Product, len(products))
	for _, product := range products {
		if _, ok := byID[product.ProductID]; !ok {
			byID[product.ProductID] = product
		}
	}
	return &Catalog{
		categories: categories,
		products:   products,
		byID:       byID,
	}
}

// Products returns copies of the reconciled products in catalog order.
func (c *Catalog) Products() []*Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Product, len(c.products))
	for i, product := range c.products {
		out[i] = product.Clone()
	}
	return out
}

// Categories returns the category graph the catalog was built from.
func (c *Catalog) Categories() []*Category {
	return c.categories
}

// Lookup returns a copy of the product with the given id.
func (c *Catalog) Lookup(id int64) (*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return product.Clone(), true
}

// CategoryOf returns the category owning the product with the given id.
func (c *Catalog) CategoryOf(id int64) (*Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.byID[id]
	if !ok || product.Category == nil {
		return nil, false
	}
	return product.Category, true
}

// SetStock records a confirmed stock level on the live product.
func (c *Catalog) SetStock(id int64, stock int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.byID[id]
	if !ok {
		return false
	}
	product.Stock = stock
	return true
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int {
	return len(c.products)
}
