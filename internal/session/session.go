// Package session: per-user dashboard state (selection, filter, simulator parameters) and the
// assembly of everything shown for a selected region.
package session

import (
	"context"
	"errors"
	"fmt"

	"market-map/internal/dataset"
	"market-map/internal/format"
	"market-map/internal/persona"
	"market-map/internal/region"
	"market-map/internal/simulator"
	"market-map/internal/strategy"
	"market-map/internal/trend"
)

var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrUnknownFilter = errors.New("unknown filter")
)

// Position: demand/supply card.
type Position struct {
	Visitor    int    `json:"visitor"`
	Restaurant int    `json:"restaurant"`
	Demand     string `json:"demand"`
	Supply     string `json:"supply"`
}

// Dashboard: all panels for one selection. Simulation is nil when the province has no persona.
type Dashboard struct {
	Region       region.Region     `json:"region"`
	Persona      persona.Card      `json:"persona"`
	Position     Position          `json:"position"`
	Advice       strategy.Advice   `json:"advice"`
	Marker       strategy.Style    `json:"marker"`
	Input        *simulator.Input  `json:"input,omitempty"`
	Params       simulator.Params  `json:"params"`
	Simulation   *simulator.Result `json:"simulation,omitempty"`
	TrendKey     string            `json:"trend_key"`
	TrendDisplay string            `json:"trend_display"`
}

// Fetcher: trend series source, usually *trend.Service.
type Fetcher interface {
	Fetch(ctx context.Context, key, display string) (trend.Series, error)
}

// Session is owned by one user; only the tracker may be touched from other goroutines.
type Session struct {
	snap     *dataset.Snapshot
	selected string
	filter   string
	input    *simulator.Input
	params   simulator.Params
	tracker  *trend.Tracker
}

func New(snap *dataset.Snapshot) *Session {
	return &Session{
		snap:    snap,
		filter:  region.FilterAll,
		params:  simulator.DefaultParams(),
		tracker: &trend.Tracker{},
	}
}

func (s *Session) regions() *region.Set {
	if s.snap == nil {
		return nil
	}
	return s.snap.Regions
}

func (s *Session) personas() *persona.Index {
	if s.snap == nil {
		return nil
	}
	return s.snap.Personas
}

// Select makes name the current region, resets the capture rate, recomputes every panel and
// begins a trend request whose ticket the caller passes to RefreshTrend.
func (s *Session) Select(name string) (Dashboard, trend.Ticket, error) {
	r, ok := s.regions().ByName(name)
	if !ok {
		return Dashboard{}, trend.Ticket{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	s.selected = r.Name
	s.params.CaptureRatePercent = simulator.DefaultCaptureRate

	card := s.personas().Card(r.Sido)
	s.input = nil
	if rec, ok := s.personas().Lookup(r.Sido); ok && rec.AvgSpend > 0 {
		s.input = &simulator.Input{AnnualVisitors: r.Visitor, AvgSpend: rec.AvgSpend}
	}

	d := Dashboard{
		Region:  r,
		Persona: card,
		Position: Position{
			Visitor:    r.Visitor,
			Restaurant: r.Restaurant,
			Demand:     format.Visitors(r.Visitor),
			Supply:     format.Count(r.Restaurant),
		},
		Advice:       strategy.Resolve(r.Quadrant, r.Name, card.Audience),
		Marker:       strategy.StyleOf(r.Quadrant),
		Input:        s.input,
		Params:       s.params,
		TrendKey:     trend.KeyFor(r),
		TrendDisplay: trend.DisplayName(r),
	}
	if res, err := simulator.Run(s.params, s.input); err == nil {
		d.Simulation = res
	}
	return d, s.tracker.Begin(d.TrendKey), nil
}

// StartNational begins the initial nationwide trend request.
func (s *Session) StartNational() trend.Ticket { return s.tracker.Begin(trend.National) }

// SetCaptureRate updates the slider and recomputes. ErrNoInput when no region with persona
// data is selected.
func (s *Session) SetCaptureRate(pct float64) (*simulator.Result, error) {
	p := s.params
	p.CaptureRatePercent = pct
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.params = p
	return simulator.Run(s.params, s.input)
}

// SetStoreSize updates the size picker and recomputes.
func (s *Session) SetStoreSize(size int) (*simulator.Result, error) {
	p := s.params
	p.StoreSize = size
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.params = p
	return simulator.Run(s.params, s.input)
}

func (s *Session) Params() simulator.Params { return s.params }

// SetFilter accepts region.FilterAll or one of the four quadrant labels.
func (s *Session) SetFilter(f string) error {
	if f != region.FilterAll && !region.Quadrant(f).Known() {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, f)
	}
	s.filter = f
	return nil
}

func (s *Session) Filter() string { return s.filter }

// Visible: regions passing the filter; the selection always stays visible.
func (s *Session) Visible() []region.Region {
	return s.regions().Filter(s.filter, s.selected)
}

func (s *Session) Selected() (region.Region, bool) {
	if s.selected == "" {
		return region.Region{}, false
	}
	return s.regions().ByName(s.selected)
}

func (s *Session) Tracker() *trend.Tracker { return s.tracker }

// RefreshTrend runs one fetch for tk and publishes it through the tracker. published is false
// when a newer request superseded tk; on error the previous chart is kept.
func (s *Session) RefreshTrend(ctx context.Context, f Fetcher, tk trend.Ticket, display string) (trend.Series, bool, error) {
	series, err := f.Fetch(ctx, tk.Key, display)
	if err != nil {
		s.tracker.Fail(tk, err)
		return trend.Series{}, false, err
	}
	return series, s.tracker.Complete(tk, series), nil
}
