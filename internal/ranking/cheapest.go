package ranking

import "github.com/dharmasatrya/flightfinder/internal/models"

// CheapestPrice returns the lowest defined price in the view. ok is false
// when no itinerary carries a price.
func CheapestPrice(flights []models.Itinerary) (lowest float64, ok bool) {
	for _, f := range flights {
		if !f.HasPrice() {
			continue
		}
		if !ok || *f.Price < lowest {
			lowest = *f.Price
			ok = true
		}
	}
	return lowest, ok
}

// MarkCheapest flags every itinerary whose price equals the minimum, so
// ties are all highlighted.
func MarkCheapest(flights []models.Itinerary) []bool {
	marks := make([]bool, len(flights))
	lowest, ok := CheapestPrice(flights)
	if !ok {
		return marks
	}
	for i, f := range flights {
		marks[i] = f.HasPrice() && *f.Price == lowest
	}
	return marks
}
