package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

const maxResponseBytes = 16 << 20

type serpResponse struct {
	BestFlights  []serpItinerary `json:"best_flights"`
	OtherFlights []serpItinerary `json:"other_flights"`
	Error        string          `json:"error"`
}

type serpItinerary struct {
	Flights         []serpLeg      `json:"flights"`
	Layovers        []serpLayover  `json:"layovers"`
	TotalDuration   int            `json:"total_duration"`
	Price           *float64       `json:"price"`
	Type            string         `json:"type"`
	AirlineLogo     string         `json:"airline_logo"`
	CarbonEmissions *serpEmissions `json:"carbon_emissions"`
}

type serpLeg struct {
	DepartureAirport serpAirport `json:"departure_airport"`
	ArrivalAirport   serpAirport `json:"arrival_airport"`
	Duration         int         `json:"duration"`
	Airplane         string      `json:"airplane"`
	Airline          string      `json:"airline"`
	AirlineLogo      string      `json:"airline_logo"`
	TravelClass      string      `json:"travel_class"`
	FlightNumber     string      `json:"flight_number"`
	Overnight        bool        `json:"overnight"`
}

type serpAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type serpLayover struct {
	Duration  int    `json:"duration"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	Overnight bool   `json:"overnight"`
}

type serpEmissions struct {
	ThisFlight *int `json:"this_flight"`
}

type SerpAPIConfig struct {
	BaseURL  string
	APIKey   string
	Engine   string
	Currency string
	Timeout  time.Duration
}

func DefaultSerpAPIConfig() SerpAPIConfig {
	return SerpAPIConfig{
		BaseURL:  "https://serpapi.com",
		Engine:   "google_flights",
		Currency: "USD",
		Timeout:  30 * time.Second,
	}
}

// SerpAPIProvider queries the Google Flights engine. The API key stays in
// this process and is stripped from any error it produces.
type SerpAPIProvider struct {
	client *http.Client
	cfg    SerpAPIConfig
}

func NewSerpAPIProvider(cfg SerpAPIConfig) (*SerpAPIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serpapi: api key is required")
	}
	def := DefaultSerpAPIConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Engine == "" {
		cfg.Engine = def.Engine
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &SerpAPIProvider{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}, nil
}

func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

// Currency is the currency prices come back in.
func (p *SerpAPIProvider) Currency() string {
	return p.cfg.Currency
}

// Query builds the request parameters for one search.
func (p *SerpAPIProvider) Query(criteria models.SearchCriteria) url.Values {
	q := url.Values{}
	q.Set("engine", p.cfg.Engine)
	q.Set("api_key", p.cfg.APIKey)
	q.Set("departure_id", criteria.Departure)
	q.Set("arrival_id", criteria.Arrival)
	q.Set("outbound_date", criteria.OutboundDate)
	q.Set("adults", strconv.Itoa(criteria.Passengers))
	q.Set("travel_class", strconv.Itoa(criteria.CabinClass.Tier()))
	q.Set("currency", p.cfg.Currency)

	if criteria.TripType() == models.RoundTrip {
		q.Set("return_date", criteria.ReturnDate)
	}
	q.Set("type", strconv.Itoa(int(criteria.TripType())))
	return q
}

func (p *SerpAPIProvider) Search(ctx context.Context, criteria models.SearchCriteria) (*Response, error) {
	endpoint := p.cfg.BaseURL + "/search.json?" + p.Query(criteria).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewProviderError(p.Name(), KindNetwork, 0, p.redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewProviderError(p.Name(), KindNetwork, 0, p.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewProviderError(p.Name(), KindNetwork, resp.StatusCode,
			fmt.Errorf("HTTP error, status: %d", resp.StatusCode))
	}

	var body serpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, NewProviderError(p.Name(), KindNetwork, resp.StatusCode,
			fmt.Errorf("decode response: %w", err))
	}

	if body.Error != "" {
		return nil, NewProviderError(p.Name(), KindAPI, resp.StatusCode, errors.New(body.Error))
	}

	return &Response{
		Best:  p.normalizeAll(body.BestFlights, models.BucketBest),
		Other: p.normalizeAll(body.OtherFlights, models.BucketOther),
	}, nil
}

func (p *SerpAPIProvider) normalizeAll(in []serpItinerary, bucket string) []models.Itinerary {
	out := make([]models.Itinerary, 0, len(in))
	for _, it := range in {
		out = append(out, p.normalize(it, bucket))
	}
	return out
}

func (p *SerpAPIProvider) normalize(it serpItinerary, bucket string) models.Itinerary {
	legs := make([]models.Leg, len(it.Flights))
	for i, f := range it.Flights {
		legs[i] = models.Leg{
			DepartureAirport: models.Airport{
				Code: f.DepartureAirport.ID,
				Name: f.DepartureAirport.Name,
				Time: f.DepartureAirport.Time,
			},
			ArrivalAirport: models.Airport{
				Code: f.ArrivalAirport.ID,
				Name: f.ArrivalAirport.Name,
				Time: f.ArrivalAirport.Time,
			},
			Airline:      f.Airline,
			AirlineLogo:  f.AirlineLogo,
			FlightNumber: f.FlightNumber,
			Duration:     f.Duration,
			Airplane:     f.Airplane,
			TravelClass:  f.TravelClass,
			Overnight:    f.Overnight,
		}
	}

	layovers := make([]models.Layover, len(it.Layovers))
	for i, l := range it.Layovers {
		layovers[i] = models.Layover{
			Duration:  l.Duration,
			Name:      l.Name,
			Code:      l.ID,
			Overnight: l.Overnight,
		}
	}

	var emissions *int
	if it.CarbonEmissions != nil {
		emissions = it.CarbonEmissions.ThisFlight
	}

	return models.Itinerary{
		Legs:            legs,
		Layovers:        layovers,
		TotalDuration:   it.TotalDuration,
		Price:           it.Price,
		Type:            it.Type,
		AirlineLogo:     it.AirlineLogo,
		CarbonEmissions: emissions,
		Bucket:          bucket,
	}
}

// redact drops the query string from transport errors so the key never
// reaches logs or users.
func (p *SerpAPIProvider) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		}
		return uerr
	}
	return errors.New(strings.ReplaceAll(err.Error(), p.cfg.APIKey, "REDACTED"))
}
