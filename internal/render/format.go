package render

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

// FormatDuration renders minutes as "{h}h {m}m", or the placeholder when
// the provider sent nothing usable.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return models.Placeholder
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func StopsLabel(stops int) string {
	switch {
	case stops <= 0:
		return "Nonstop"
	case stops == 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

// PerPerson splits a total fare across passengers. ok is false when there
// is no price or only one passenger.
func PerPerson(price *float64, passengers int) (amount float64, ok bool) {
	if price == nil || passengers <= 1 {
		return 0, false
	}
	return math.Round(*price / float64(passengers)), true
}

// DealsURL links to a flight search results page for the stored criteria.
func DealsURL(base string, c models.SearchCriteria) string {
	q := fmt.Sprintf("Flights from %s to %s on %s", c.Departure, c.Arrival, c.OutboundDate)
	if c.ReturnDate != "" {
		q += " through " + c.ReturnDate
	}
	encoded := strings.ReplaceAll(url.QueryEscape(q), "+", "%20")

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + encoded
}
