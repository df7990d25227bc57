// Package dataset: one-time concurrent load of the supply, geo-master and persona sources into
// an immutable snapshot, plus an atomic holder for hot reloads.
package dataset

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"market-map/internal/config"
	"market-map/internal/logger"
	"market-map/internal/metrics"
	"market-map/internal/persona"
	"market-map/internal/region"

	"golang.org/x/sync/errgroup"
)

// Sources: where each input lives and how it is encoded.
type Sources struct {
	Supply          string
	Master          string
	Persona         string
	SupplyEncoding  string
	MasterEncoding  string
	PersonaEncoding string
	PersonaPolicy   persona.Policy
}

// FromConfig maps configuration onto Sources.
func FromConfig(c config.Sources) Sources {
	return Sources{
		Supply:          c.Supply,
		Master:          c.Master,
		Persona:         c.Persona,
		SupplyEncoding:  c.SupplyEncoding,
		MasterEncoding:  c.MasterEncoding,
		PersonaEncoding: c.PersonaEncoding,
		PersonaPolicy:   persona.ParsePolicy(c.PersonaPolicy),
	}
}

// Snapshot: everything built by one load. Read-only.
type Snapshot struct {
	Regions      *region.Set
	Personas     *persona.Index
	Diagnostics  []region.Diagnostic
	PersonaSkips []persona.Skip
	BuiltAt      time.Time
}

func openDecoded(ctx context.Context, loc, encoding string) (io.Reader, io.Closer, error) {
	rc, err := Open(ctx, loc)
	if err != nil {
		return nil, nil, err
	}
	r, err := region.Decode(rc, encoding)
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	return r, rc, nil
}

// Load fetches the three sources concurrently and joins supply with master once both are in.
// Supply or master failure fails the load; a persona failure yields an empty index.
func Load(ctx context.Context, src Sources) (*Snapshot, error) {
	l := logger.L()
	start := time.Now()

	var (
		rows        []region.SupplyRow
		masters     []region.MasterRecord
		supplyDiags []region.Diagnostic
		masterDiags []region.Diagnostic
		personas    = persona.Empty()
		skips       []persona.Skip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, c, err := openDecoded(gctx, src.Supply, src.SupplyEncoding)
		if err != nil {
			return fmt.Errorf("supply source: %w", err)
		}
		defer c.Close()
		rows, supplyDiags, err = region.ParseSupply(r)
		if err != nil {
			return fmt.Errorf("supply source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		r, c, err := openDecoded(gctx, src.Master, src.MasterEncoding)
		if err != nil {
			return fmt.Errorf("master source: %w", err)
		}
		defer c.Close()
		masters, masterDiags, err = region.ParseMaster(r)
		if err != nil {
			return fmt.Errorf("master source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if src.Persona == "" {
			return nil
		}
		r, c, err := openDecoded(gctx, src.Persona, src.PersonaEncoding)
		if err != nil {
			l.Error("persona_load_error", "src", src.Persona, "err", err)
			return nil
		}
		defer c.Close()
		idx, sk, err := persona.Parse(r, src.PersonaPolicy)
		if err != nil {
			l.Error("persona_load_error", "src", src.Persona, "err", err)
			return nil
		}
		personas, skips = idx, sk
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		l.Error("dataset_load_error", "err", err)
		return nil, err
	}

	set, joinDiags := region.Join(rows, masters)
	diags := make([]region.Diagnostic, 0, len(supplyDiags)+len(masterDiags)+len(joinDiags))
	diags = append(diags, supplyDiags...)
	diags = append(diags, masterDiags...)
	diags = append(diags, joinDiags...)

	for _, d := range diags {
		metrics.RowsDroppedTotal.WithLabelValues(d.Source, d.Reason).Inc()
	}
	for _, s := range skips {
		metrics.RowsDroppedTotal.WithLabelValues(region.SourcePersona, s.Reason).Inc()
	}
	metrics.RegionsLoaded.Set(float64(set.Len()))
	metrics.PersonasLoaded.Set(float64(personas.Len()))
	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()

	l.Info("dataset_load_ok",
		"regions", set.Len(),
		"supply_rows", len(rows),
		"masters", len(masters),
		"personas", personas.Len(),
		"dropped", len(diags),
		"persona_skipped", len(skips),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Snapshot{
		Regions:      set,
		Personas:     personas,
		Diagnostics:  diags,
		PersonaSkips: skips,
		BuiltAt:      time.Now(),
	}, nil
}

// Holder publishes the current snapshot; readers never block.
type Holder struct {
	v atomic.Pointer[Snapshot]
}

func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	if s != nil {
		h.v.Store(s)
	}
	return h
}

// Get: current snapshot, nil before the first successful load.
func (h *Holder) Get() *Snapshot { return h.v.Load() }

func (h *Holder) Set(s *Snapshot) {
	if s != nil {
		h.v.Store(s)
	}
}

// Reload loads src and swaps it in; on error the previous snapshot stays.
func (h *Holder) Reload(ctx context.Context, src Sources) (*Snapshot, error) {
	s, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	h.v.Store(s)
	return s, nil
}
