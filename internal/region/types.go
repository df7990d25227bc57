// Package region: geo-master normalisation, supply/demand parsing, the name-based join and the
// read-only region set built from it.
package region

// Quadrant: market classification assigned upstream. Unknown labels are kept verbatim.
type Quadrant string

const (
	Opportunity Quadrant = "기회지역"
	Saturated   Quadrant = "경쟁포화지역"
	LowInterest Quadrant = "저관심지역"
	Oversupply  Quadrant = "공급과잉"
)

// Quadrants: the four known labels in display order.
var Quadrants = []Quadrant{Opportunity, Saturated, LowInterest, Oversupply}

// Known reports whether q is one of the four classification labels.
func (q Quadrant) Known() bool {
	switch q {
	case Opportunity, Saturated, LowInterest, Oversupply:
		return true
	}
	return false
}

// MasterRecord: one geo-master row after normalisation.
type MasterRecord struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	SidoFull    string  `json:"sido_full"`
	SidoAbbr    string  `json:"sido_abbr"`
	SigName     string  `json:"sig_name"`
	Sigun       string  `json:"sigun"`
	NaverRegion string  `json:"naver_region"`
}

// SupplyRow: one supply/demand row. Line is the 1-based source line.
type SupplyRow struct {
	RegionName string
	Visitor    int
	Restaurant int
	Quadrant   Quadrant
	Line       int
}

// Region: a supply row merged with its first matching master record.
type Region struct {
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Visitor     int      `json:"visitor"`
	Restaurant  int      `json:"restaurant"`
	Quadrant    Quadrant `json:"quadrant"`
	Sido        string   `json:"sido"`
	NaverRegion string   `json:"naver_region"`
}

// ShortName: trailing token of the full name, e.g. "춘천시".
func (r Region) ShortName() string { return LastToken(r.Name) }

const (
	SourceSupply  = "supply"
	SourceMaster  = "master"
	SourcePersona = "persona"
)

const (
	ReasonMalformedRow    = "malformed_row"
	ReasonUnmatchedJoin   = "unmatched_join"
	ReasonDuplicateRegion = "duplicate_region"
)

// Diagnostic: a dropped source row. Never surfaced to the end user.
type Diagnostic struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}
