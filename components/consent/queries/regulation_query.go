package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	consent "github.com/goliatone/go-consent/components/consent"
)

// RegulationRequest selects a regulation. An empty ID lists every regulation.
type RegulationRequest struct {
	ID consent.RegulationID `json:"id"`
}

// RegulationView describes a regulation and the theme keys it shows.
type RegulationView struct {
	consent.Regulation
	ThemeKeys []string `json:"themeKeys"`
}

// RegulationQuery resolves regulations from the preset catalog.
type RegulationQuery struct{}

// NewRegulationQuery builds the query.
func NewRegulationQuery() *RegulationQuery {
	return &RegulationQuery{}
}

var _ gocommand.Querier[RegulationRequest, []RegulationView] = (*RegulationQuery)(nil)

// Query returns the matching regulations.
func (q *RegulationQuery) Query(_ context.Context, req RegulationRequest) ([]RegulationView, error) {
	var out []RegulationView
	for _, reg := range consent.Regulations() {
		if req.ID != "" && reg.ID != req.ID {
			continue
		}
		out = append(out, RegulationView{Regulation: reg, ThemeKeys: consent.VisibleThemeKeys(reg.ID)})
	}
	if len(out) == 0 && req.ID != "" {
		return nil, consent.ErrUnknownRegulation
	}
	return out, nil
}
