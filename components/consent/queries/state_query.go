package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	consent "github.com/goliatone/go-consent/components/consent"
)

// StateRequest asks for the console snapshot.
type StateRequest struct{}

type stateProvider interface {
	State() consent.State
}

// StateQuery returns the console snapshot.
type StateQuery struct {
	provider stateProvider
}

// NewStateQuery builds the query.
func NewStateQuery(provider stateProvider) *StateQuery {
	return &StateQuery{provider: provider}
}

var _ gocommand.Querier[StateRequest, consent.State] = (*StateQuery)(nil)

// Query returns the current state.
func (q *StateQuery) Query(context.Context, StateRequest) (consent.State, error) {
	return q.provider.State(), nil
}
