package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium-economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

var cabinTiers = map[CabinClass]int{
	CabinEconomy:        1,
	CabinPremiumEconomy: 2,
	CabinBusiness:       3,
	CabinFirst:          4,
}

// Tier is the numeric travel class the provider expects, 0 if unknown.
func (c CabinClass) Tier() int {
	return cabinTiers[c]
}

func (c CabinClass) Valid() bool {
	_, ok := cabinTiers[c]
	return ok
}

type TripType int

const (
	RoundTrip TripType = 1
	OneWay    TripType = 2
)

type SortKey string

const (
	SortNone          SortKey = "none"
	SortPrice         SortKey = "price"
	SortDuration      SortKey = "duration"
	SortDepartureTime SortKey = "departure-time"
	SortArrivalTime   SortKey = "arrival-time"
)

// ParseSortKey accepts the form values as well as camelCase aliases.
// Anything unrecognised keeps provider order.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price":
		return SortPrice
	case "duration":
		return SortDuration
	case "departure-time", "departuretime", "departure_time", "departure":
		return SortDepartureTime
	case "arrival-time", "arrivaltime", "arrival_time", "arrival":
		return SortArrivalTime
	default:
		return SortNone
	}
}

type SearchRequest struct {
	Departure    string  `json:"departure" form:"departure"`
	Arrival      string  `json:"arrival" form:"arrival"`
	OutboundDate string  `json:"outbound_date" form:"departure-date"`
	ReturnDate   *string `json:"return_date,omitempty" form:"return-date"`
	Passengers   int     `json:"passengers" form:"passengers"`
	CabinClass   string  `json:"cabin_class" form:"cabin-class"`
	SortBy       string  `json:"sort_by,omitempty" form:"sort-by"`
	Nonstop      bool    `json:"nonstop,omitempty" form:"-"`
}

func (r *SearchRequest) Validate() error {
	r.Departure = strings.ToUpper(strings.TrimSpace(r.Departure))
	r.Arrival = strings.ToUpper(strings.TrimSpace(r.Arrival))
	r.OutboundDate = strings.TrimSpace(r.OutboundDate)

	if r.Departure == "" {
		return ErrMissingDeparture
	}
	if r.Arrival == "" {
		return ErrMissingArrival
	}
	if r.OutboundDate == "" {
		return ErrMissingOutboundDate
	}
	outbound, err := time.Parse(DateLayout, r.OutboundDate)
	if err != nil {
		return ErrInvalidOutboundDate
	}

	if r.ReturnDate != nil {
		ret := strings.TrimSpace(*r.ReturnDate)
		if ret == "" {
			r.ReturnDate = nil
		} else {
			back, err := time.Parse(DateLayout, ret)
			if err != nil {
				return ErrInvalidReturnDate
			}
			if back.Before(outbound) {
				return ErrReturnBeforeOutbound
			}
			r.ReturnDate = &ret
		}
	}

	if r.Passengers <= 0 {
		r.Passengers = 1
	}
	r.CabinClass = strings.ToLower(strings.TrimSpace(r.CabinClass))
	if r.CabinClass == "" {
		r.CabinClass = string(CabinEconomy)
	}
	if !CabinClass(r.CabinClass).Valid() {
		return ErrUnknownCabinClass
	}
	return nil
}

// Criteria snapshots a validated request.
func (r *SearchRequest) Criteria() SearchCriteria {
	c := SearchCriteria{
		Departure:    r.Departure,
		Arrival:      r.Arrival,
		OutboundDate: r.OutboundDate,
		Passengers:   r.Passengers,
		CabinClass:   CabinClass(r.CabinClass),
	}
	if r.ReturnDate != nil {
		c.ReturnDate = *r.ReturnDate
	}
	return c
}

type SearchCriteria struct {
	Departure    string     `json:"departure"`
	Arrival      string     `json:"arrival"`
	OutboundDate string     `json:"outbound_date"`
	ReturnDate   string     `json:"return_date,omitempty"`
	Passengers   int        `json:"passengers"`
	CabinClass   CabinClass `json:"cabin_class"`
}

func (c SearchCriteria) TripType() TripType {
	if c.ReturnDate != "" {
		return RoundTrip
	}
	return OneWay
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingDeparture     ValidationError = "departure is required"
	ErrMissingArrival       ValidationError = "arrival is required"
	ErrMissingOutboundDate  ValidationError = "outbound_date is required"
	ErrInvalidOutboundDate  ValidationError = "outbound_date must be YYYY-MM-DD"
	ErrInvalidReturnDate    ValidationError = "return_date must be YYYY-MM-DD"
	ErrReturnBeforeOutbound ValidationError = "return_date must not precede outbound_date"
	ErrUnknownCabinClass    ValidationError = "cabin_class must be one of economy, premium-economy, business, first"
)
