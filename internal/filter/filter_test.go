package filter

import (
	"reflect"
	"testing"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

func price(v float64) *float64 { return &v }

func itinerary(id string, p *float64, duration int, dep, arr string, stops int) models.Itinerary {
	it := models.Itinerary{
		Legs: []models.Leg{{
			DepartureAirport: models.Airport{Code: "JFK", Time: dep},
			ArrivalAirport:   models.Airport{Code: "LAX", Time: arr},
			FlightNumber:     id,
		}},
		TotalDuration: duration,
		Price:         p,
	}
	for i := 0; i < stops; i++ {
		it.Layovers = append(it.Layovers, models.Layover{Duration: 60, Name: "ORD"})
	}
	return it
}

func ids(view []models.Itinerary) []string {
	out := make([]string, len(view))
	for i, it := range view {
		out[i] = it.Legs[0].FlightNumber
	}
	return out
}

func TestDeriveView_ProviderScenario(t *testing.T) {
	working := []models.Itinerary{
		itinerary("A", price(200), 300, "2025-06-01 08:00", "2025-06-01 11:00", 0),
		itinerary("B", price(150), 400, "2025-06-01 06:00", "2025-06-01 12:00", 1),
	}

	if got := ids(DeriveView(working, false, models.SortNone)); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("none = %v, want [A B]", got)
	}
	if got := ids(DeriveView(working, false, models.SortPrice)); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("price = %v, want [B A]", got)
	}
}

func TestDeriveView_Sorts(t *testing.T) {
	working := []models.Itinerary{
		itinerary("A", price(300), 500, "2025-06-01 09:00", "2025-06-01 17:00", 1),
		itinerary("B", nil, 200, "2025-06-01 07:00", "2025-06-01 18:00", 0),
		itinerary("C", price(100), 300, "", "", 0),
		itinerary("D", price(300), 100, "2025-06-01 07:00", "2025-06-01 09:00", 2),
		itinerary("E", price(100), 300, "2025-06-01 12:00", "2025-06-01 15:00", 0),
	}

	tests := []struct {
		key  models.SortKey
		want []string
	}{
		{models.SortNone, []string{"A", "B", "C", "D", "E"}},
		{models.SortPrice, []string{"C", "E", "A", "D", "B"}},
		{models.SortDuration, []string{"D", "B", "C", "E", "A"}},
		{models.SortDepartureTime, []string{"C", "B", "D", "A", "E"}},
		{models.SortArrivalTime, []string{"C", "D", "E", "A", "B"}},
		{models.SortKey("bogus"), []string{"A", "B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if got := ids(DeriveView(working, false, tt.key)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveView(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDeriveView_PriceNonDecreasing(t *testing.T) {
	working := []models.Itinerary{
		itinerary("A", price(450), 0, "", "", 0),
		itinerary("B", price(120), 0, "", "", 0),
		itinerary("C", nil, 0, "", "", 0),
		itinerary("D", price(120), 0, "", "", 0),
		itinerary("E", price(90), 0, "", "", 0),
	}

	view := DeriveView(working, false, models.SortPrice)
	last := -1.0
	seenMissing := false
	for _, it := range view {
		if !it.HasPrice() {
			seenMissing = true
			continue
		}
		if seenMissing {
			t.Fatalf("priced itinerary %s after a missing price", it.Legs[0].FlightNumber)
		}
		if *it.Price < last {
			t.Fatalf("prices not non-decreasing: %v", ids(view))
		}
		last = *it.Price
	}
	if got := ids(view); !reflect.DeepEqual(got, []string{"E", "B", "D", "A", "C"}) {
		t.Errorf("stable price order = %v", got)
	}
}

func TestDeriveView_NonstopOnly(t *testing.T) {
	working := []models.Itinerary{
		itinerary("A", price(100), 0, "", "", 1),
		itinerary("B", price(200), 0, "", "", 0),
		itinerary("C", price(300), 0, "", "", 2),
		itinerary("D", price(50), 0, "", "", 0),
	}

	got := DeriveView(working, true, models.SortNone)
	if !reflect.DeepEqual(ids(got), []string{"B", "D"}) {
		t.Errorf("nonstop = %v, want [B D]", ids(got))
	}
	for _, it := range got {
		if !it.Nonstop() {
			t.Errorf("%s has layovers", it.Legs[0].FlightNumber)
		}
	}

	if got := DeriveView(working, true, models.SortPrice); !reflect.DeepEqual(ids(got), []string{"D", "B"}) {
		t.Errorf("nonstop by price = %v, want [D B]", ids(got))
	}
}

func TestDeriveView_DoesNotMutateInput(t *testing.T) {
	working := []models.Itinerary{
		itinerary("A", price(300), 500, "2025-06-01 09:00", "", 1),
		itinerary("B", price(100), 200, "2025-06-01 07:00", "", 0),
		itinerary("C", nil, 100, "2025-06-01 05:00", "", 0),
	}
	before := make([]models.Itinerary, len(working))
	copy(before, working)

	for _, key := range []models.SortKey{models.SortPrice, models.SortDuration, models.SortDepartureTime, models.SortArrivalTime} {
		for _, nonstop := range []bool{false, true} {
			_ = DeriveView(working, nonstop, key)
			if !reflect.DeepEqual(working, before) {
				t.Fatalf("working set mutated by %s/nonstop=%v", key, nonstop)
			}
		}
	}
}

func TestDeriveView_Empty(t *testing.T) {
	if got := DeriveView(nil, true, models.SortPrice); got == nil || len(got) != 0 {
		t.Errorf("DeriveView(nil) = %#v, want empty non-nil slice", got)
	}
}
