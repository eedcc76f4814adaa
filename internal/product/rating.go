package product

import "sort"

// StarRating maps the popularity counter to a 0-5 star display value.
func StarRating(orderCount int) int {
	switch {
	case orderCount >= 100:
		return 5
	case orderCount >= 75:
		return 4
	case orderCount >= 50:
		return 3
	case orderCount >= 25:
		return 2
	case orderCount > 0:
		return 1
	default:
		return 0
	}
}

// SortForDisplay orders by OrderCount desc, Category asc, ProductID asc.
func SortForDisplay(items []AvailableProduct) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.ProductID < b.ProductID
	})
}
