package filter

import (
	"sort"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

// DeriveView returns the itineraries to display for the given controls. The
// working set is never modified; the result is always a fresh slice.
func DeriveView(working []models.Itinerary, nonstopOnly bool, sortBy models.SortKey) []models.Itinerary {
	view := applyFilters(working, nonstopOnly)
	applySort(view, sortBy)
	return view
}

func applyFilters(flights []models.Itinerary, nonstopOnly bool) []models.Itinerary {
	result := make([]models.Itinerary, 0, len(flights))

	for _, f := range flights {
		if nonstopOnly && !f.Nonstop() {
			continue
		}
		result = append(result, f)
	}

	return result
}

// applySort orders flights in place. Every key is a stable ascending sort so
// ties keep provider order.
func applySort(flights []models.Itinerary, sortBy models.SortKey) {
	if len(flights) < 2 {
		return
	}

	switch sortBy {
	case models.SortPrice:
		// Itineraries without a price go to the end.
		sort.SliceStable(flights, func(i, j int) bool {
			a, b := flights[i], flights[j]
			if !a.HasPrice() || !b.HasPrice() {
				return a.HasPrice() && !b.HasPrice()
			}
			return *a.Price < *b.Price
		})

	case models.SortDuration:
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].TotalDuration < flights[j].TotalDuration
		})

	case models.SortDepartureTime:
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].DepartureTime() < flights[j].DepartureTime()
		})

	case models.SortArrivalTime:
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].ArrivalTime() < flights[j].ArrivalTime()
		})
	}
}
