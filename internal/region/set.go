package region

import (
	"sort"
)

// FilterAll disables quadrant filtering.
const FilterAll = "all"

// Set: joined regions in supply order with a name index. Read-only after NewSet.
type Set struct {
	regions []Region
	byName  map[string]int
	tree    *kdNode
}

// Option: dropdown entry; Label is the short name.
type Option struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// NewSet copies regions; later duplicates of a name are ignored.
func NewSet(regions []Region) *Set {
	s := &Set{byName: make(map[string]int, len(regions))}
	for _, r := range regions {
		if _, dup := s.byName[r.Name]; dup {
			continue
		}
		s.byName[r.Name] = len(s.regions)
		s.regions = append(s.regions, r)
	}
	s.tree = buildTree(s.regions)
	return s
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.regions)
}

// All returns a copy in supply order.
func (s *Set) All() []Region {
	if s == nil {
		return nil
	}
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

func (s *Set) ByName(name string) (Region, bool) {
	if s == nil {
		return Region{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Region{}, false
	}
	return s.regions[i], true
}

// Provinces: distinct abbreviations, sorted.
func (s *Set) Provinces() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range s.All() {
		if !seen[r.Sido] {
			seen[r.Sido] = true
			out = append(out, r.Sido)
		}
	}
	sort.Strings(out)
	return out
}

// InProvince: regions of one province sorted by full name.
func (s *Set) InProvince(sido string) []Option {
	var out []Option
	for _, r := range s.All() {
		if r.Sido == sido {
			out = append(out, Option{Name: r.Name, Label: r.ShortName()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Filter: regions whose quadrant equals filter, or all when filter is FilterAll or empty.
// The selected region is always kept.
func (s *Set) Filter(filter, selected string) []Region {
	var out []Region
	for _, r := range s.All() {
		if r.Name != selected && filter != FilterAll && filter != "" && string(r.Quadrant) != filter {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ByQuadrant groups regions of the four known quadrants, supply order within each group.
func (s *Set) ByQuadrant() map[Quadrant][]Region {
	out := make(map[Quadrant][]Region, len(Quadrants))
	for _, r := range s.All() {
		if r.Quadrant.Known() {
			out[r.Quadrant] = append(out[r.Quadrant], r)
		}
	}
	return out
}

// Nearest: closest region within maxKm of (lat, lng). maxKm <= 0 means unbounded.
func (s *Set) Nearest(lat, lng, maxKm float64) (Region, float64, bool) {
	if s == nil || s.tree == nil {
		return Region{}, 0, false
	}
	i, d := nearest(s.tree, lat, lng)
	if i < 0 || (maxKm > 0 && d > maxKm) {
		return Region{}, d, false
	}
	return s.regions[i], d, true
}
