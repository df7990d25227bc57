package region

import (
	"strings"

	"market-map/internal/logger"
)

// Matches: the master record's sub-district or sub-region name equals the trailing token of
// regionName, and regionName contains the record's full province name.
func Matches(regionName string, m MasterRecord) bool {
	candidate := LastToken(regionName)
	if candidate == "" {
		return false
	}
	if m.SigName != candidate && m.Sigun != candidate {
		return false
	}
	return strings.Contains(regionName, FullProvince(m.SidoAbbr))
}

// Join merges every supply row with the first matching master record in source order.
// Unmatched rows and repeated region names are dropped and reported.
func Join(rows []SupplyRow, masters []MasterRecord) (*Set, []Diagnostic) {
	var (
		out   []Region
		diags []Diagnostic
		seen  = make(map[string]bool, len(rows))
	)
	for _, row := range rows {
		name := CollapseSejong(row.RegionName)
		m, ok := firstMatch(name, masters)
		if !ok {
			logger.L().Debug("join_unmatched", "region", name, "line", row.Line)
			diags = append(diags, Diagnostic{Source: SourceSupply, Line: row.Line, Reason: ReasonUnmatchedJoin, Detail: name})
			continue
		}
		if seen[name] {
			logger.L().Debug("join_duplicate", "region", name, "line", row.Line)
			diags = append(diags, Diagnostic{Source: SourceSupply, Line: row.Line, Reason: ReasonDuplicateRegion, Detail: name})
			continue
		}
		seen[name] = true
		out = append(out, Region{
			Name:        name,
			Lat:         m.Lat,
			Lng:         m.Lng,
			Visitor:     row.Visitor,
			Restaurant:  row.Restaurant,
			Quadrant:    row.Quadrant,
			Sido:        m.SidoAbbr,
			NaverRegion: m.NaverRegion,
		})
	}
	return NewSet(out), diags
}

func firstMatch(name string, masters []MasterRecord) (MasterRecord, bool) {
	for _, m := range masters {
		if Matches(name, m) {
			return m, true
		}
	}
	return MasterRecord{}, false
}
