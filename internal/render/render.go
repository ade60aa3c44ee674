package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightfinder/internal/clock"
	"github.com/dharmasatrya/flightfinder/internal/models"
	"github.com/dharmasatrya/flightfinder/internal/ranking"
	"github.com/dharmasatrya/flightfinder/pkg/currency"
)

//go:embed templates/*.html static
var assets embed.FS

const DefaultDealsBaseURL = "https://www.google.com/travel/flights"

type LayoverNote struct {
	Duration  string
	Name      string
	Overnight bool
}

type LegRow struct {
	Airline      string
	Logo         string
	FlightNumber string
	From         string
	To           string
	Depart       string
	Arrive       string
	ArriveSuffix string
	Airplane     string
	Layover      *LayoverNote
}

type Card struct {
	Airline         string
	Logo            string
	From            string
	To              string
	Duration        string
	Stops           string
	Legs            []LegRow
	Price           string
	PerPerson       string
	PerPersonAmount float64
	HasPerPerson    bool
	Cheapest        bool
	DealsURL        string
	Type            string
}

// Controls are the sort/filter inputs echoed back into the page.
type Controls struct {
	SortBy  models.SortKey
	Nonstop bool
}

// Page is everything the results template needs. Loading, Error and the
// results area (Cards or Empty) are mutually exclusive.
type Page struct {
	Criteria *models.SearchCriteria
	Controls Controls
	Today    string
	Loading  bool
	Error    string
	Searched bool
	Empty    bool
	Cards    []Card
	Seq      uint64
}

type Renderer struct {
	tmpl      *template.Template
	currency  string
	dealsBase string
}

func New(currencyCode, dealsBase string) (*Renderer, error) {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if dealsBase == "" {
		dealsBase = DefaultDealsBaseURL
	}
	return &Renderer{
		tmpl:      tmpl,
		currency:  currencyCode,
		dealsBase: dealsBase,
	}, nil
}

// Static serves the stylesheet and other page assets.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// Page assembles the page for a session state and the view derived from it.
func (r *Renderer) Page(st *models.State, view []models.Itinerary, controls Controls, today string) Page {
	p := Page{
		Criteria: st.Criteria,
		Controls: controls,
		Today:    today,
		Seq:      st.Seq,
		Searched: st.Criteria != nil,
	}

	switch {
	case st.Loading:
		p.Loading = true
	case st.Error != "":
		p.Error = st.Error
	case p.Searched:
		p.Cards = r.Cards(view, *st.Criteria)
		p.Empty = len(p.Cards) == 0
	}
	return p
}

// Cards maps a derived view to display cards. An empty view yields no cards.
func (r *Renderer) Cards(view []models.Itinerary, criteria models.SearchCriteria) []Card {
	if len(view) == 0 {
		return nil
	}

	cheapest := ranking.MarkCheapest(view)
	deals := DealsURL(r.dealsBase, criteria)

	cards := make([]Card, len(view))
	for i, it := range view {
		card := Card{
			Airline:  it.Airline(),
			Logo:     it.Logo(),
			From:     it.DepartureCode(),
			To:       it.ArrivalCode(),
			Duration: FormatDuration(it.TotalDuration),
			Stops:    StopsLabel(it.Stops()),
			Legs:     legRows(it),
			Price:    models.Placeholder,
			Cheapest: cheapest[i],
			DealsURL: deals,
			Type:     it.Type,
		}
		if it.HasPrice() {
			card.Price = currency.Format(*it.Price, r.currency)
		}
		if amount, ok := PerPerson(it.Price, criteria.Passengers); ok {
			card.HasPerPerson = true
			card.PerPersonAmount = amount
			card.PerPerson = currency.Format(amount, r.currency) + " per person"
		}
		cards[i] = card
	}
	return cards
}

func legRows(it models.Itinerary) []LegRow {
	rows := make([]LegRow, len(it.Legs))
	for i, leg := range it.Legs {
		row := LegRow{
			Airline:      models.OrPlaceholder(leg.Airline),
			Logo:         leg.AirlineLogo,
			FlightNumber: leg.FlightNumber,
			From:         models.OrPlaceholder(leg.DepartureAirport.Code),
			To:           models.OrPlaceholder(leg.ArrivalAirport.Code),
			Depart:       models.OrPlaceholder(clock.HourMinute(leg.DepartureAirport.Time)),
			Arrive:       models.OrPlaceholder(clock.HourMinute(leg.ArrivalAirport.Time)),
			Airplane:     leg.Airplane,
		}
		if days := clock.DayOffset(leg.DepartureAirport.Time, leg.ArrivalAirport.Time); days > 0 {
			row.ArriveSuffix = "+" + strconv.Itoa(days)
		}
		if i < len(it.Layovers) {
			l := it.Layovers[i]
			row.Layover = &LayoverNote{
				Duration:  FormatDuration(l.Duration),
				Name:      models.OrPlaceholder(l.Name),
				Overnight: l.Overnight,
			}
		}
		rows[i] = row
	}
	return rows
}
