package models

type Airport struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
	Time string `json:"time,omitempty"`
}

type Leg struct {
	DepartureAirport Airport `json:"departure_airport"`
	ArrivalAirport   Airport `json:"arrival_airport"`
	Airline          string  `json:"airline"`
	AirlineLogo      string  `json:"airline_logo,omitempty"`
	FlightNumber     string  `json:"flight_number"`
	Duration         int     `json:"duration,omitempty"`
	Airplane         string  `json:"airplane,omitempty"`
	TravelClass      string  `json:"travel_class,omitempty"`
	Overnight        bool    `json:"overnight,omitempty"`
}

type Layover struct {
	Duration  int    `json:"duration"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Overnight bool   `json:"overnight,omitempty"`
}

const (
	BucketBest  = "best"
	BucketOther = "other"
)

type Itinerary struct {
	Legs            []Leg     `json:"flights"`
	Layovers        []Layover `json:"layovers,omitempty"`
	TotalDuration   int       `json:"total_duration"`
	Price           *float64  `json:"price,omitempty"`
	Type            string    `json:"type,omitempty"`
	AirlineLogo     string    `json:"airline_logo,omitempty"`
	CarbonEmissions *int      `json:"carbon_emissions,omitempty"`
	Bucket          string    `json:"bucket"`
}

func (it Itinerary) FirstLeg() (Leg, bool) {
	if len(it.Legs) == 0 {
		return Leg{}, false
	}
	return it.Legs[0], true
}

func (it Itinerary) LastLeg() (Leg, bool) {
	if len(it.Legs) == 0 {
		return Leg{}, false
	}
	return it.Legs[len(it.Legs)-1], true
}

func (it Itinerary) DepartureCode() string {
	leg, _ := it.FirstLeg()
	return OrPlaceholder(leg.DepartureAirport.Code)
}

func (it Itinerary) ArrivalCode() string {
	leg, _ := it.LastLeg()
	return OrPlaceholder(leg.ArrivalAirport.Code)
}

// DepartureTime is the first leg's local departure time as sent by the
// provider, or DefaultClock.
func (it Itinerary) DepartureTime() string {
	leg, _ := it.FirstLeg()
	return orClock(leg.DepartureAirport.Time)
}

// ArrivalTime is the last leg's local arrival time as sent by the provider,
// or DefaultClock.
func (it Itinerary) ArrivalTime() string {
	leg, _ := it.LastLeg()
	return orClock(leg.ArrivalAirport.Time)
}

func (it Itinerary) Airline() string {
	leg, _ := it.FirstLeg()
	return OrPlaceholder(leg.Airline)
}

// Logo prefers the first leg's airline logo and falls back to the
// itinerary-level one.
func (it Itinerary) Logo() string {
	leg, _ := it.FirstLeg()
	if leg.AirlineLogo != "" {
		return leg.AirlineLogo
	}
	return it.AirlineLogo
}

func (it Itinerary) Stops() int {
	return len(it.Layovers)
}

func (it Itinerary) Nonstop() bool {
	return len(it.Layovers) == 0
}

func (it Itinerary) HasPrice() bool {
	return it.Price != nil
}

func (it Itinerary) PriceValue() float64 {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}
