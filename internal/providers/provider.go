package providers

import (
	"context"
	"errors"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

type Provider interface {
	Name() string
	Search(ctx context.Context, criteria models.SearchCriteria) (*Response, error)
}

// Response keeps the provider's two buckets apart; callers decide how to
// merge them.
type Response struct {
	Best  []models.Itinerary
	Other []models.Itinerary
}

// All concatenates the buckets, best first.
func (r *Response) All() []models.Itinerary {
	if r == nil {
		return nil
	}
	all := make([]models.Itinerary, 0, len(r.Best)+len(r.Other))
	all = append(all, r.Best...)
	all = append(all, r.Other...)
	return all
}

type ErrorKind string

const (
	// KindNetwork covers transport failures, non-2xx statuses and bodies
	// that are not JSON.
	KindNetwork ErrorKind = "network"
	// KindAPI is a well-formed provider reply carrying an error field.
	KindAPI ErrorKind = "api"
)

type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Status:   status,
		Err:      err,
	}
}

// KindOf reports the kind of a provider failure, defaulting to KindNetwork
// for errors that did not come from a provider.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNetwork
}
