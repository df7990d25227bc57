// Package api: read-only JSON endpoints over the loaded dataset and the trend store, plus the
// admin reload hook.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"market-map/internal/dataset"
	"market-map/internal/geoip"
	"market-map/internal/logger"
	"market-map/internal/region"
	"market-map/internal/session"
	"market-map/internal/simulator"
	"market-map/internal/strategy"
	"market-map/internal/trend"
)

// TrendFetcher: usually *trend.Service.
type TrendFetcher interface {
	Fetch(ctx context.Context, key, display string) (trend.Series, error)
}

// Locator: usually *geoip.Locator.
type Locator interface {
	Locate(ip string) (geoip.Point, error)
}

// Deps: everything the routes read. Trend and Locator may be nil.
type Deps struct {
	Holder         *dataset.Holder
	Sources        dataset.Sources
	Trend          TrendFetcher
	Locator        Locator
	AdminToken     string
	LocateRadiusKm float64
	TrendTimeout   time.Duration
}

type regionView struct {
	region.Region
	Marker   strategy.Style `json:"marker"`
	Selected bool           `json:"selected"`
}

type locateResult struct {
	Point      geoip.Point   `json:"point"`
	Region     region.Region `json:"region"`
	DistanceKm float64       `json:"distance_km"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// BuildRoutes: mux meant to be mounted under the API base with http.StripPrefix.
func BuildRoutes(d Deps) *http.ServeMux {
	if d.TrendTimeout <= 0 {
		d.TrendTimeout = 5 * time.Second
	}
	h := &handlers{d: d}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /regions", h.withSnapshot(h.regions))
	mux.HandleFunc("GET /regions/provinces", h.withSnapshot(h.provinces))
	mux.HandleFunc("GET /regions/by-province", h.withSnapshot(h.byProvince))
	mux.HandleFunc("GET /personas", h.withSnapshot(h.personas))
	mux.HandleFunc("GET /dashboard", h.withSnapshot(h.dashboard))
	mux.HandleFunc("GET /diagnostics", h.withSnapshot(h.diagnostics))
	mux.HandleFunc("GET /trend", h.withSnapshot(h.trend))
	mux.HandleFunc("GET /locate", h.withSnapshot(h.locate))
	mux.HandleFunc("POST /reload", h.reload)
	return mux
}

type handlers struct {
	d Deps
}

type snapHandler func(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot)

func (h *handlers) withSnapshot(next snapHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.d.Holder.Get()
		if s == nil {
			writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
			return
		}
		next(w, r, s)
	}
}

// GET /regions?filter=<quadrant|all>&selected=<name>
func (h *handlers) regions(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	q := r.URL.Query()
	filter := q.Get("filter")
	if filter != "" && filter != region.FilterAll && !region.Quadrant(filter).Known() {
		writeError(w, http.StatusBadRequest, "unknown filter")
		return
	}
	selected := q.Get("selected")
	list := s.Regions.Filter(filter, selected)
	out := make([]regionView, 0, len(list))
	for _, reg := range list {
		out = append(out, regionView{Region: reg, Marker: strategy.StyleOf(reg.Quadrant), Selected: reg.Name == selected})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) provinces(w http.ResponseWriter, _ *http.Request, s *dataset.Snapshot) {
	out := s.Regions.Provinces()
	if out == nil {
		out = []string{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) byProvince(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	sido := r.URL.Query().Get("sido")
	if sido == "" {
		writeError(w, http.StatusBadRequest, "sido required")
		return
	}
	out := s.Regions.InProvince(sido)
	if out == nil {
		out = []region.Option{}
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /personas lists all records; ?sido= returns that province's card (placeholder on miss).
func (h *handlers) personas(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	if sido := r.URL.Query().Get("sido"); sido != "" {
		writeJSON(w, http.StatusOK, s.Personas.Card(sido))
		return
	}
	writeJSON(w, http.StatusOK, s.Personas.All())
}

// GET /dashboard?region=<name>&rate=<pct>&size=<pyeong>: every panel for one selection.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	q := r.URL.Query()
	sess := session.New(s)
	if size := q.Get("size"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		if _, err := sess.SetStoreSize(n); err != nil && !errors.Is(err, simulator.ErrNoInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	d, _, err := sess.Select(q.Get("region"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown region")
		return
	}
	if rate := q.Get("rate"); rate != "" {
		pct, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rate")
			return
		}
		res, err := sess.SetCaptureRate(pct)
		if err != nil && !errors.Is(err, simulator.ErrNoInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		d.Params, d.Simulation = sess.Params(), res
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) diagnostics(w http.ResponseWriter, _ *http.Request, s *dataset.Snapshot) {
	counts := map[string]int{}
	for _, d := range s.Diagnostics {
		counts[d.Source+"/"+d.Reason]++
	}
	for _, sk := range s.PersonaSkips {
		counts[region.SourcePersona+"/"+sk.Reason]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"built_at":    s.BuiltAt,
		"regions":     s.Regions.Len(),
		"personas":    s.Personas.Len(),
		"counts":      counts,
		"diagnostics": s.Diagnostics,
	})
}

// GET /trend?region=<full name>; no region means the national series.
func (h *handlers) trend(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	if h.d.Trend == nil {
		writeError(w, http.StatusServiceUnavailable, "trend store disabled")
		return
	}
	key, display := trend.National, trend.National
	if name := r.URL.Query().Get("region"); name != "" {
		reg, ok := s.Regions.ByName(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown region")
			return
		}
		key, display = trend.KeyFor(reg), trend.DisplayName(reg)
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.d.TrendTimeout)
	defer cancel()
	series, err := h.d.Trend.Fetch(ctx, key, display)
	if err != nil {
		logger.L().Error("trend_fetch_error", "key", key, "err", err)
		writeError(w, http.StatusBadGateway, "trend store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// GET /locate?ip= resolves the caller (or ip) to the nearest joined region.
func (h *handlers) locate(w http.ResponseWriter, r *http.Request, s *dataset.Snapshot) {
	if h.d.Locator == nil {
		writeError(w, http.StatusServiceUnavailable, "geoip disabled")
		return
	}
	ip := clientIP(r)
	pt, err := h.d.Locator.Locate(ip)
	switch {
	case errors.Is(err, geoip.ErrBadIP):
		writeError(w, http.StatusBadRequest, "invalid ip")
		return
	case errors.Is(err, geoip.ErrNotFound):
		writeError(w, http.StatusNotFound, "ip not located")
		return
	case err != nil:
		logger.L().Error("geoip_error", "ip", ip, "err", err)
		writeError(w, http.StatusInternalServerError, "geoip lookup failed")
		return
	}
	reg, dist, ok := s.Regions.Nearest(pt.Lat, pt.Lng, h.d.LocateRadiusKm)
	if !ok {
		writeError(w, http.StatusNotFound, "no region nearby")
		return
	}
	writeJSON(w, http.StatusOK, locateResult{Point: pt, Region: reg, DistanceKm: dist})
}

// POST /reload re-reads every source; requires x-admin-token.
func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if h.d.AdminToken == "" || t != h.d.AdminToken {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	s, err := h.d.Holder.Reload(r.Context(), h.d.Sources)
	if err != nil {
		logger.L().Error("dataset_reload_error", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.L().Info("dataset_reloaded", "regions", s.Regions.Len())
	writeJSON(w, http.StatusOK, map[string]any{
		"regions":  s.Regions.Len(),
		"personas": s.Personas.Len(),
		"dropped":  len(s.Diagnostics),
		"built_at": s.BuiltAt,
	})
}
