package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightfinder/internal/coordinator"
	"github.com/dharmasatrya/flightfinder/internal/models"
	"github.com/dharmasatrya/flightfinder/internal/providers"
	"github.com/dharmasatrya/flightfinder/internal/render"
	"github.com/dharmasatrya/flightfinder/internal/session"
)

type stubProvider struct {
	calls int32
	resp  *providers.Response
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(ctx context.Context, criteria models.SearchCriteria) (*providers.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.resp, s.err
}

func itin(airline string, price float64, stops int) models.Itinerary {
	it := models.Itinerary{
		Legs: []models.Leg{{
			DepartureAirport: models.Airport{Code: "JFK", Time: "2025-06-01 08:00"},
			ArrivalAirport:   models.Airport{Code: "LAX", Time: "2025-06-01 11:00"},
			Airline:          airline,
		}},
		TotalDuration: 360,
		Price:         &price,
	}
	for i := 0; i < stops; i++ {
		it.Layovers = append(it.Layovers, models.Layover{Duration: 50, Name: "Denver"})
	}
	return it
}

func newServer(t *testing.T, p providers.Provider) *echo.Echo {
	t.Helper()
	renderer, err := render.New("USD", "")
	if err != nil {
		t.Fatal(err)
	}
	coord := coordinator.New(p, session.NewMemoryStore(time.Minute), nil)
	h := NewSearchHandler(coord, renderer, NewSessions(time.Minute, false), nil)
	h.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	e := echo.New()
	h.Register(e)
	return e
}

func do(e *echo.Echo, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

var jfkLaxForm = url.Values{
	"departure":      {"jfk"},
	"arrival":        {"LAX"},
	"departure-date": {"2025-06-01"},
	"passengers":     {"1"},
	"cabin-class":    {"economy"},
}

func TestPage_Fresh(t *testing.T) {
	e := newServer(t, &stubProvider{})
	rec := do(e, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="search-form"`) || !strings.Contains(body, `min="2025-05-01"`) {
		t.Error("form or date minimum missing")
	}
	if strings.Contains(body, "flight-card") || strings.Contains(body, "No flights found") {
		t.Error("fresh page must not show results")
	}
	if len(rec.Result().Cookies()) == 0 || rec.Result().Cookies()[0].Name != SessionCookie {
		t.Error("session cookie not issued")
	}
}

func TestSubmit_ThenSortAndFilterWithoutRefetch(t *testing.T) {
	stub := &stubProvider{resp: &providers.Response{
		Best:  []models.Itinerary{itin("Delta", 200, 0)},
		Other: []models.Itinerary{itin("United", 150, 1)},
	}}
	e := newServer(t, stub)

	rec := do(e, postForm(jfkLaxForm), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/results?sort-by=none" {
		t.Errorf("redirect = %q", loc)
	}
	cookies := rec.Result().Cookies()

	rec = do(e, httptest.NewRequest(http.MethodGet, "/results?sort-by=none", nil), cookies)
	body := rec.Body.String()
	if strings.Count(body, `class="flight-card`) != 2 {
		t.Fatalf("expected two cards:\n%s", body)
	}
	if strings.Index(body, "<h3>Delta</h3>") > strings.Index(body, "<h3>United</h3>") {
		t.Error("default order should keep best flights first")
	}

	rec = do(e, httptest.NewRequest(http.MethodGet, "/results?sort-by=price", nil), cookies)
	body = rec.Body.String()
	if strings.Index(body, "<h3>United</h3>") > strings.Index(body, "<h3>Delta</h3>") {
		t.Error("price sort should put the 150 fare first")
	}

	rec = do(e, httptest.NewRequest(http.MethodGet, "/results?sort-by=none&filter-nonstop=on", nil), cookies)
	body = rec.Body.String()
	if strings.Count(body, `class="flight-card`) != 1 || strings.Contains(body, "<h3>United</h3>") {
		t.Error("nonstop filter should leave only Delta")
	}

	if calls := atomic.LoadInt32(&stub.calls); calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestSubmit_ValidationError(t *testing.T) {
	stub := &stubProvider{}
	e := newServer(t, stub)

	form := url.Values{"arrival": {"LAX"}, "departure-date": {"2025-06-01"}}
	rec := do(e, postForm(form), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), models.ErrMissingDeparture.Error()) {
		t.Error("validation message not shown")
	}
	if stub.calls != 0 {
		t.Error("provider must not be called for invalid input")
	}
}

func TestSubmit_ProviderError(t *testing.T) {
	stub := &stubProvider{err: providers.NewProviderError("stub", providers.KindAPI, 200, errors.New("Invalid API key."))}
	e := newServer(t, stub)

	rec := do(e, postForm(jfkLaxForm), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(e, httptest.NewRequest(http.MethodGet, "/results", nil), rec.Result().Cookies())
	body := rec.Body.String()
	if !strings.Contains(body, "Failed to fetch flights: Invalid API key.") {
		t.Error("error banner missing")
	}
	if strings.Contains(body, "flight-card") || strings.Contains(body, "loading-indicator") {
		t.Error("error page must not show cards or loading")
	}
}

func TestSubmit_NoResults(t *testing.T) {
	e := newServer(t, &stubProvider{resp: &providers.Response{}})

	rec := do(e, postForm(jfkLaxForm), nil)
	rec = do(e, httptest.NewRequest(http.MethodGet, "/results", nil), rec.Result().Cookies())
	body := rec.Body.String()
	if !strings.Contains(body, "No flights found") || strings.Contains(body, `class="flight-card`) {
		t.Error("expected empty state only")
	}
}

func TestSearchAPI(t *testing.T) {
	stub := &stubProvider{resp: &providers.Response{
		Best:  []models.Itinerary{itin("Delta", 200, 0)},
		Other: []models.Itinerary{itin("United", 150, 1)},
	}}
	e := newServer(t, stub)

	body := `{"departure":"JFK","arrival":"LAX","outbound_date":"2025-06-01","passengers":1,"sort_by":"price"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/flights/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(e, req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Flights) != 2 || resp.Flights[0].PriceValue() != 150 || resp.Flights[1].PriceValue() != 200 {
		t.Errorf("flights not sorted by price: %+v", resp.Flights)
	}
	if resp.Metadata.SortBy != "price" || resp.Metadata.WorkingSet != 2 || resp.SearchCriteria.CabinClass != models.CabinEconomy {
		t.Errorf("metadata = %+v, criteria = %+v", resp.Metadata, resp.SearchCriteria)
	}

	cookies := rec.Result().Cookies()
	rec = do(e, httptest.NewRequest(http.MethodGet, "/api/v1/flights?nonstop=true", nil), cookies)
	var view models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Flights) != 1 || view.Flights[0].Airline() != "Delta" {
		t.Errorf("nonstop view = %+v", view.Flights)
	}

	rec = do(e, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), cookies)
	var st models.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Seq != 1 || st.Loading || st.Results != 2 {
		t.Errorf("session = %+v", st)
	}
}

func TestSearchAPI_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "invalid_request"},
		{"validation", `{"departure":"JFK","arrival":"LAX","outbound_date":"2025-06-10","return_date":"2025-06-01"}`, nil, http.StatusBadRequest, "validation_error"},
		{"api error", `{"departure":"JFK","arrival":"LAX","outbound_date":"2025-06-01"}`,
			providers.NewProviderError("stub", providers.KindAPI, 200, errors.New("Invalid API key.")), http.StatusBadGateway, "api_error"},
		{"network error", `{"departure":"JFK","arrival":"LAX","outbound_date":"2025-06-01"}`,
			providers.NewProviderError("stub", providers.KindNetwork, 503, errors.New("HTTP error, status: 503")), http.StatusBadGateway, "network_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(t, &stubProvider{err: tt.err, resp: &providers.Response{}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/flights/search", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := do(e, req, nil)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	e := newServer(t, &stubProvider{})
	rec := do(e, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	e := newServer(t, &stubProvider{})
	rec := do(e, httptest.NewRequest(http.MethodGet, "/static/style.css", nil), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "flight-card") {
		t.Errorf("static = %d", rec.Code)
	}
}

func TestSessions_ReusesValidCookie(t *testing.T) {
	s := NewSessions(time.Minute, false)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-uuid"})
	c := e.NewContext(req, httptest.NewRecorder())
	issued := s.ID(c)
	if issued == "not-a-uuid" {
		t.Fatal("invalid cookie value accepted")
	}
	if s.ID(c) != issued {
		t.Error("id should be stable within a request")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: issued})
	if got := s.ID(e.NewContext(req, httptest.NewRecorder())); got != issued {
		t.Errorf("valid cookie not reused: %q != %q", got, issued)
	}
}
