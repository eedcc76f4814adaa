package stock

import "fmt"

// Evaluate derives the availability verdict of one product from its ingredient
// requirements and the current active stock. It never mutates levels.
func Evaluate(reqs []Requirement, levels Levels) Verdict {
	total := len(reqs)
	available := 0
	for _, r := range reqs {
		if levels[r.IngredientID].GreaterThanOrEqual(r.QuantityUsed) {
			available++
		}
	}

	v := Verdict{AvailableIngredients: available, TotalIngredients: total}
	switch {
	case total == 0:
		v.Status, v.Reason = StatusAvailable, "no ingredients required"
	case available == total:
		v.Status, v.Reason = StatusAvailable, "all ingredients in stock"
	case available > 0:
		v.Status = StatusLowStock
		v.Reason = fmt.Sprintf("limited stock: %d of %d ingredients available", available, total)
	default:
		v.Status, v.Reason = StatusOutOfStock, "out of stock"
	}
	return v
}

// EvaluateAll evaluates every product in productIDs, including products with no
// requirement rows.
func EvaluateAll(productIDs []int64, reqs map[int64][]Requirement, levels Levels) map[int64]Verdict {
	out := make(map[int64]Verdict, len(productIDs))
	for _, id := range productIDs {
		out[id] = Evaluate(reqs[id], levels)
	}
	return out
}
