package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightfinder/internal/coordinator"
	"github.com/dharmasatrya/flightfinder/internal/filter"
	"github.com/dharmasatrya/flightfinder/internal/models"
	"github.com/dharmasatrya/flightfinder/internal/providers"
	"github.com/dharmasatrya/flightfinder/internal/render"
)

type SearchHandler struct {
	coordinator *coordinator.Coordinator
	renderer    *render.Renderer
	sessions    *Sessions
	logger      *zap.Logger
	now         func() time.Time
}

func NewSearchHandler(coord *coordinator.Coordinator, renderer *render.Renderer, sessions *Sessions, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		coordinator: coord,
		renderer:    renderer,
		sessions:    sessions,
		logger:      logger,
		now:         time.Now,
	}
}

// Page renders the form and whatever the session currently shows. Sort and
// filter controls only re-derive the view; the provider is never called.
func (h *SearchHandler) Page(c echo.Context) error {
	id := h.sessions.ID(c)
	st, err := h.coordinator.Current(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.renderState(c, http.StatusOK, st, htmlControls(c))
}

// Submit handles the search form.
func (h *SearchHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	id := h.sessions.ID(c)
	controls := htmlControls(c)

	req := formRequest(c)
	if err := req.Validate(); err != nil {
		st, gerr := h.coordinator.Current(ctx, id)
		if gerr != nil {
			return gerr
		}
		shown := *st
		shown.Loading = false
		shown.Error = err.Error()
		return h.renderState(c, http.StatusBadRequest, &shown, controls)
	}

	_, err := h.coordinator.Search(ctx, id, req.Criteria())
	var searchErr *coordinator.SearchError
	switch {
	case err == nil, errors.Is(err, coordinator.ErrStaleSearch), errors.As(err, &searchErr):
		// The session state now holds the outcome to show.
	default:
		return err
	}

	return c.Redirect(http.StatusSeeOther, resultsURL(controls))
}

// SearchAPI is the JSON counterpart of Submit.
func (h *SearchHandler) SearchAPI(c echo.Context) error {
	ctx := c.Request().Context()
	id := h.sessions.ID(c)

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	result, err := h.coordinator.Search(ctx, id, req.Criteria())
	if err != nil {
		return searchErrorJSON(c, err)
	}

	sortBy := models.ParseSortKey(req.SortBy)
	view := filter.DeriveView(result.Itineraries, req.Nonstop, sortBy)
	criteria := result.Criteria

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: &criteria,
		Metadata: models.SearchMetadata{
			TotalResults: len(view),
			WorkingSet:   len(result.Itineraries),
			SortBy:       string(sortBy),
			Nonstop:      req.Nonstop,
			Seq:          result.Seq,
			SearchTimeMs: result.Elapsed.Milliseconds(),
		},
		Flights: view,
	})
}

// Flights re-derives the session's view as JSON.
func (h *SearchHandler) Flights(c echo.Context) error {
	id := h.sessions.ID(c)
	st, err := h.coordinator.Current(c.Request().Context(), id)
	if err != nil {
		return err
	}

	sortBy := models.ParseSortKey(c.QueryParam("sort_by"))
	nonstop := parseFlag(c.QueryParam("nonstop"))
	view := filter.DeriveView(st.Working, nonstop, sortBy)

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: st.Criteria,
		Metadata: models.SearchMetadata{
			TotalResults: len(view),
			WorkingSet:   len(st.Working),
			SortBy:       string(sortBy),
			Nonstop:      nonstop,
			Seq:          st.Seq,
		},
		Flights: view,
	})
}

func (h *SearchHandler) Session(c echo.Context) error {
	id := h.sessions.ID(c)
	st, err := h.coordinator.Current(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.SessionResponse{
		Seq:       st.Seq,
		Loading:   st.Loading,
		Error:     st.Error,
		NoResults: st.NoResults,
		Results:   len(st.Working),
	})
}

func (h *SearchHandler) renderState(c echo.Context, status int, st *models.State, controls render.Controls) error {
	view := filter.DeriveView(st.Working, controls.Nonstop, controls.SortBy)
	page := h.renderer.Page(st, view, controls, h.now().Format(models.DateLayout))
	return c.Render(status, "index.html", page)
}

func searchErrorJSON(c echo.Context, err error) error {
	if errors.Is(err, coordinator.ErrStaleSearch) {
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "superseded",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	}

	var searchErr *coordinator.SearchError
	if errors.As(err, &searchErr) {
		code := "network_error"
		if searchErr.Kind == providers.KindAPI {
			code = "api_error"
		}
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   code,
			Message: searchErr.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "search_error",
		Message: "Failed to search flights: " + err.Error(),
		Code:    http.StatusInternalServerError,
	})
}

func formRequest(c echo.Context) models.SearchRequest {
	passengers, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("passengers")))
	req := models.SearchRequest{
		Departure:    c.FormValue("departure"),
		Arrival:      c.FormValue("arrival"),
		OutboundDate: c.FormValue("departure-date"),
		Passengers:   passengers,
		CabinClass:   c.FormValue("cabin-class"),
	}
	if ret := c.FormValue("return-date"); ret != "" {
		req.ReturnDate = &ret
	}
	return req
}

func htmlControls(c echo.Context) render.Controls {
	return render.Controls{
		SortBy:  models.ParseSortKey(c.FormValue("sort-by")),
		Nonstop: parseFlag(c.FormValue("filter-nonstop")),
	}
}

func resultsURL(controls render.Controls) string {
	q := url.Values{}
	q.Set("sort-by", string(controls.SortBy))
	if controls.Nonstop {
		q.Set("filter-nonstop", "on")
	}
	return "/results?" + q.Encode()
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
