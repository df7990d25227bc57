package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"market-map/internal/dataset"
	"market-map/internal/geoip"
	"market-map/internal/persona"
	"market-map/internal/region"
	"market-map/internal/session"
	"market-map/internal/trend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrend struct {
	err     error
	gotKey  string
	gotDisp string
}

func (f *fakeTrend) Fetch(_ context.Context, key, display string) (trend.Series, error) {
	f.gotKey, f.gotDisp = key, display
	if f.err != nil {
		return trend.Series{}, f.err
	}
	return trend.Shape(key, display, nil), nil
}

type fakeLocator struct {
	pt  geoip.Point
	err error
}

func (f fakeLocator) Locate(ip string) (geoip.Point, error) {
	if f.err != nil {
		return geoip.Point{}, f.err
	}
	p := f.pt
	p.IP = ip
	return p, nil
}

func testSnapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()
	set := region.NewSet([]region.Region{
		{Name: "강원특별자치도 춘천시", Lat: 37.88, Lng: 127.73, Visitor: 1200000, Restaurant: 3100, Quadrant: region.Opportunity, Sido: "강원", NaverRegion: "춘천시"},
		{Name: "서울특별시 강남구", Lat: 37.50, Lng: 127.04, Visitor: 36000000, Restaurant: 21000, Quadrant: region.Saturated, Sido: "서울", NaverRegion: "서울 강남구"},
		{Name: "부산광역시 중구", Lat: 35.10, Lng: 129.03, Visitor: 5000000, Restaurant: 4000, Quadrant: region.LowInterest, Sido: "부산", NaverRegion: "부산 중구"},
	})
	csv := "region,age,gender,total,count,avg\n강원,40,M,100,4,25000\n"
	idx, _, err := persona.Parse(strings.NewReader(csv), persona.LastRow)
	require.NoError(t, err)
	return &dataset.Snapshot{
		Regions:     set,
		Personas:    idx,
		Diagnostics: []region.Diagnostic{{Source: region.SourceSupply, Line: 9, Reason: region.ReasonUnmatchedJoin}},
	}
}

func target(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return path + "?" + q.Encode()
}

func serve(t *testing.T, d Deps, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	BuildRoutes(d).ServeHTTP(rec, req)
	return rec
}

func TestRegions_FilterKeepsSelection(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}
	rec := serve(t, d, http.MethodGet, target("/regions", "filter", string(region.Opportunity), "selected", "서울특별시 강남구"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("content-type"))
	assert.Equal(t, "no-store", rec.Header().Get("cache-control"))

	var out []struct {
		Name     string `json:"name"`
		Selected bool   `json:"selected"`
		Marker   struct {
			Pulse bool `json:"pulse"`
		} `json:"marker"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	names := map[string]bool{}
	for _, r := range out {
		names[r.Name] = r.Selected
	}
	assert.Contains(t, names, "강원특별자치도 춘천시")
	assert.True(t, names["서울특별시 강남구"])
}

func TestRegions_UnknownFilter(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}
	rec := serve(t, d, http.MethodGet, "/regions?filter=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoSnapshot(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(nil)}
	rec := serve(t, d, http.MethodGet, "/regions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProvincesAndByProvince(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}

	rec := serve(t, d, http.MethodGet, "/regions/provinces", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sidos []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sidos))
	assert.Equal(t, []string{"강원", "부산", "서울"}, sidos)

	rec = serve(t, d, http.MethodGet, target("/regions/by-province", "sido", "강원"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opts []region.Option
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []region.Option{{Name: "강원특별자치도 춘천시", Label: "춘천시"}}, opts)

	rec = serve(t, d, http.MethodGet, "/regions/by-province", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPersonas(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}

	rec := serve(t, d, http.MethodGet, target("/personas", "sido", "강원"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var card persona.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.True(t, card.Available)
	assert.Equal(t, "40대 남성", card.Audience)

	rec = serve(t, d, http.MethodGet, target("/personas", "sido", "제주"), nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.False(t, card.Available)
	assert.Equal(t, persona.DefaultAudience, card.Audience)
}

func TestDashboard(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}

	rec := serve(t, d, http.MethodGet, target("/dashboard", "region", "강원특별자치도 춘천시", "rate", "2", "size", "20"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash session.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "춘천시", dash.TrendKey)
	assert.Equal(t, 2.0, dash.Params.CaptureRatePercent)
	assert.Equal(t, 20, dash.Params.StoreSize)
	require.NotNil(t, dash.Simulation)

	// no persona for 서울: no simulation, but the rest renders
	rec = serve(t, d, http.MethodGet, target("/dashboard", "region", "서울특별시 강남구", "rate", "5"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash = session.Dashboard{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Nil(t, dash.Simulation)

	rec = serve(t, d, http.MethodGet, target("/dashboard", "region", "없는곳"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(t, d, http.MethodGet, target("/dashboard", "region", "강원특별자치도 춘천시", "size", "35"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(t, d, http.MethodGet, target("/dashboard", "region", "강원특별자치도 춘천시", "rate", "101"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrend(t *testing.T) {
	ft := &fakeTrend{}
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t)), Trend: ft}

	rec := serve(t, d, http.MethodGet, "/trend", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, trend.National, ft.gotKey)

	rec = serve(t, d, http.MethodGet, target("/trend", "region", "서울특별시 강남구"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "서울 강남구", ft.gotKey)
	assert.Equal(t, "강남구", ft.gotDisp)
	var s trend.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.True(t, s.Empty)

	rec = serve(t, d, http.MethodGet, target("/trend", "region", "없는곳"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ft.err = errors.New("connection refused")
	rec = serve(t, d, http.MethodGet, "/trend", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(t, Deps{Holder: dataset.NewHolder(testSnapshot(t))}, http.MethodGet, "/trend", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLocate(t *testing.T) {
	d := Deps{
		Holder:         dataset.NewHolder(testSnapshot(t)),
		Locator:        fakeLocator{pt: geoip.Point{Lat: 37.87, Lng: 127.72}},
		LocateRadiusKm: 50,
	}
	rec := serve(t, d, http.MethodGet, "/locate", map[string]string{"x-forwarded-for": "1.2.3.4, 10.0.0.1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var out locateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "1.2.3.4", out.Point.IP)
	assert.Equal(t, "강원특별자치도 춘천시", out.Region.Name)
	assert.Less(t, out.DistanceKm, 5.0)

	// Jeju is far from every fixture region
	d.Locator = fakeLocator{pt: geoip.Point{Lat: 33.5, Lng: 126.5}}
	rec = serve(t, d, http.MethodGet, "/locate?ip=5.6.7.8", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	d.Locator = fakeLocator{err: geoip.ErrBadIP}
	rec = serve(t, d, http.MethodGet, "/locate?ip=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	d.Locator = nil
	rec = serve(t, d, http.MethodGet, "/locate", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReload(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t)), AdminToken: "s3cret"}

	rec := serve(t, d, http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(t, d, http.MethodPost, "/reload", map[string]string{"x-admin-token": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// sources point nowhere: reload fails and the old snapshot stays
	before := d.Holder.Get()
	d.Sources = dataset.Sources{Supply: t.TempDir() + "/missing.csv", Master: t.TempDir() + "/missing.csv"}
	rec = serve(t, d, http.MethodPost, "/reload", map[string]string{"x-admin-token": "s3cret"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Same(t, before, d.Holder.Get())

	rec = serve(t, Deps{Holder: d.Holder}, http.MethodPost, "/reload", map[string]string{"x-admin-token": ""})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDiagnostics(t *testing.T) {
	d := Deps{Holder: dataset.NewHolder(testSnapshot(t))}
	rec := serve(t, d, http.MethodGet, "/diagnostics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Regions int            `json:"regions"`
		Counts  map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.Regions)
	assert.Equal(t, 1, out.Counts["supply/unmatched_join"])
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/locate", nil)
	r.RemoteAddr = "9.9.9.9:1234"
	assert.Equal(t, "9.9.9.9", clientIP(r))

	r.Header.Set("forwarded", `for="[2001:db8::1]";proto=https`)
	assert.Equal(t, "2001:db8::1", clientIP(r))

	r.Header.Set("x-real-ip", "8.8.8.8")
	assert.Equal(t, "8.8.8.8", clientIP(r))

	r.Header.Set("x-forwarded-for", " 1.1.1.1 , 2.2.2.2")
	assert.Equal(t, "1.1.1.1", clientIP(r))

	r2 := httptest.NewRequest(http.MethodGet, "/locate?ip=7.7.7.7", nil)
	r2.Header.Set("x-forwarded-for", "1.1.1.1")
	assert.Equal(t, "7.7.7.7", clientIP(r2))
}
