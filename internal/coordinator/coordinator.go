package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dharmasatrya/flightfinder/internal/models"
	"github.com/dharmasatrya/flightfinder/internal/providers"
	"github.com/dharmasatrya/flightfinder/internal/session"
)

// ErrStaleSearch is returned when a newer search for the same session was
// issued while this one was in flight. Its outcome has been discarded.
var ErrStaleSearch = errors.New("search superseded by a newer one")

const failurePrefix = "Failed to fetch flights: "

// SearchError is the single user-facing failure a search can end in.
type SearchError struct {
	Kind    providers.ErrorKind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	return failurePrefix + e.Message
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

type Result struct {
	Seq         uint64
	Criteria    models.SearchCriteria
	Itineraries []models.Itinerary
	NoResults   bool
	Elapsed     time.Duration
}

type Coordinator struct {
	provider providers.Provider
	store    session.Store
	logger   *zap.Logger
}

func New(provider providers.Provider, store session.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

// Current returns the session's state without touching the provider.
func (c *Coordinator) Current(ctx context.Context, sessionID string) (*models.State, error) {
	return c.store.Get(ctx, sessionID)
}

// Search runs one provider query for the session and replaces its working
// set. The session is marked loading before the call and the loading flag is
// cleared afterwards on every path, unless a newer search took over.
func (c *Coordinator) Search(ctx context.Context, sessionID string, criteria models.SearchCriteria) (*Result, error) {
	token, err := c.begin(ctx, sessionID, criteria)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(
		zap.String("session", sessionID),
		zap.Uint64("seq", token),
		zap.String("route", criteria.Departure+"-"+criteria.Arrival),
	)
	log.Info("search started",
		zap.String("outbound_date", criteria.OutboundDate),
		zap.String("return_date", criteria.ReturnDate),
		zap.Int("passengers", criteria.Passengers),
		zap.String("cabin_class", string(criteria.CabinClass)),
	)

	start := time.Now()
	resp, fetchErr := c.fetch(ctx, criteria)
	elapsed := time.Since(start)

	var working []models.Itinerary
	var searchErr *SearchError
	if fetchErr != nil {
		searchErr = toSearchError(fetchErr)
		log.Warn("search failed", zap.String("kind", string(searchErr.Kind)), zap.Error(fetchErr), zap.Duration("elapsed", elapsed))
	} else {
		working = resp.All()
	}

	// The request context may already be gone; the session still has to
	// leave the loading state.
	endCtx := context.WithoutCancel(ctx)
	if err := c.finish(endCtx, sessionID, token, working, searchErr); err != nil {
		if errors.Is(err, ErrStaleSearch) {
			log.Info("discarding stale search result", zap.Duration("elapsed", elapsed))
		}
		return nil, err
	}

	if searchErr != nil {
		return nil, searchErr
	}

	log.Info("search finished", zap.Int("results", len(working)), zap.Duration("elapsed", elapsed))
	return &Result{
		Seq:         token,
		Criteria:    criteria,
		Itineraries: working,
		NoResults:   len(working) == 0,
		Elapsed:     elapsed,
	}, nil
}

func (c *Coordinator) begin(ctx context.Context, sessionID string, criteria models.SearchCriteria) (uint64, error) {
	var token uint64
	_, err := c.store.Update(ctx, sessionID, func(st *models.State) error {
		st.Seq++
		token = st.Seq
		crit := criteria
		st.Criteria = &crit
		st.Working = nil
		st.Error = ""
		st.NoResults = false
		st.Loading = true
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("begin search: %w", err)
	}
	return token, nil
}

func (c *Coordinator) finish(ctx context.Context, sessionID string, token uint64, working []models.Itinerary, searchErr *SearchError) error {
	_, err := c.store.Update(ctx, sessionID, func(st *models.State) error {
		if st.Seq != token {
			return ErrStaleSearch
		}
		st.Loading = false
		if searchErr != nil {
			st.Error = searchErr.Error()
			st.Working = nil
			st.NoResults = false
			return nil
		}
		st.Error = ""
		st.Working = working
		st.NoResults = len(working) == 0
		return nil
	})
	if err != nil && !errors.Is(err, ErrStaleSearch) {
		c.logger.Error("could not record search outcome", zap.String("session", sessionID), zap.Uint64("seq", token), zap.Error(err))
		return fmt.Errorf("finish search: %w", err)
	}
	return err
}

// fetch turns a provider panic into an error so finish always runs.
func (c *Coordinator) fetch(ctx context.Context, criteria models.SearchCriteria) (resp *providers.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("provider panicked", zap.Any("panic", r))
			resp = nil
			err = fmt.Errorf("provider %s: %v", c.provider.Name(), r)
		}
	}()
	return c.provider.Search(ctx, criteria)
}

func toSearchError(err error) *SearchError {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return &SearchError{Kind: pe.Kind, Message: pe.Err.Error(), Err: err}
	}
	return &SearchError{Kind: providers.KindNetwork, Message: err.Error(), Err: err}
}
