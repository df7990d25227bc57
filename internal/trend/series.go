// Package trend: search-trend key resolution, chart series shaping, the cached fetch path and
// the last-writer-wins tracker for per-selection requests.
package trend

import (
	"fmt"

	"market-map/internal/region"
	"market-map/internal/store"
)

// National: key and label of the initial, nationwide chart.
const National = "전국"

const noData = "데이터 없음"

// Series: chart-ready trend history.
type Series struct {
	Key    string    `json:"key"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Empty  bool      `json:"empty"`
}

// KeyFor: the region's trend key, else the trailing token of its name.
func KeyFor(r region.Region) string {
	if r.NaverRegion != "" {
		return r.NaverRegion
	}
	return region.LastToken(r.Name)
}

// DisplayName: short label used in the chart title.
func DisplayName(r region.Region) string { return region.LastToken(r.Name) }

// Title: "'{display} 맛집' 검색량".
func Title(display string) string { return fmt.Sprintf("'%s 맛집' 검색량", display) }

// Shape converts points into labels "M/D" and values. No points yields a single zero point
// labelled 데이터 없음.
func Shape(key, display string, points []store.TrendPoint) Series {
	s := Series{Key: key, Title: Title(display)}
	if len(points) == 0 {
		s.Labels = []string{noData}
		s.Values = []float64{0}
		s.Empty = true
		return s
	}
	s.Labels = make([]string, len(points))
	s.Values = make([]float64, len(points))
	for i, p := range points {
		s.Labels[i] = fmt.Sprintf("%d/%d", int(p.Date.Month()), p.Date.Day())
		s.Values[i] = p.SearchIndex
	}
	return s
}
