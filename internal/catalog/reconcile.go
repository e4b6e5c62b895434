package catalog

// Reconcile flattens the category graph into one product sequence, in
// category order and then product order, and points every product back at
// the category that owns it.
//
// A product object listed under several categories appears once and belongs
// to the first of them. Nil entries are skipped. Only product objects are
// touched; the categories and their slices are left as given.
func Reconcile(categories []*Category) []*Product {
	seen := make(map[*Product]struct{})
	flat := make([]*Product, 0, countProducts(categories))

	for _, category := range categories {
		if category == nil {
			continue
		}
		for _, product := range category.Products {
			if product == nil {
				continue
			}
			if _, ok := seen[product]; ok {
				continue
			}
			seen[product] = struct{}{}
			product.Category = category
			product.CategoryID = category.CategoryID
			flat = append(flat, product)
		}
	}
	return flat
}

func countProducts(categories []*Category) int {
	total := 0
	for _, category := range categories {
		if category != nil {
			total += len(category.Products)
		}
	}
	return total
}
