package region

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	supplyMinCols = 4
	masterMinCols = 6
)

// Decode wraps r so that it yields UTF-8. Supported encodings: utf-8 (BOM stripped) and euc-kr/cp949.
func Decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case "euc-kr", "euckr", "cp949", "uhc":
		return transform.NewReader(r, korean.EUCKR.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// NewCSVReader: comma-delimited, ragged rows allowed, stray quotes tolerated.
func NewCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// eachRecord walks data rows (header skipped). Per-row parse errors are passed as malformed.
func eachRecord(r io.Reader, source string, fn func(line int, cols []string) *Diagnostic) ([]Diagnostic, error) {
	cr := NewCSVReader(r)
	var diags []Diagnostic
	header := true
	for {
		cols, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return diags, nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			if !header {
				diags = append(diags, Diagnostic{Source: source, Line: pe.StartLine, Reason: ReasonMalformedRow, Detail: pe.Err.Error()})
			}
			header = false
			continue
		}
		if err != nil {
			return diags, fmt.Errorf("read %s: %w", source, err)
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		if d := fn(line, cols); d != nil {
			diags = append(diags, *d)
		}
	}
}

func col(cols []string, i int) string {
	if i < len(cols) {
		return strings.TrimSpace(cols[i])
	}
	return ""
}

// ParseLeadingInt: integer prefix of s after optional whitespace and sign ("1e6" -> 1, "12.9" -> 12).
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseSupply: rows need region name, visitor, restaurant and quadrant columns.
func ParseSupply(r io.Reader) ([]SupplyRow, []Diagnostic, error) {
	var rows []SupplyRow
	diags, err := eachRecord(r, SourceSupply, func(line int, cols []string) *Diagnostic {
		if len(cols) < supplyMinCols {
			return &Diagnostic{Source: SourceSupply, Line: line, Reason: ReasonMalformedRow, Detail: fmt.Sprintf("%d columns", len(cols))}
		}
		visitor, ok1 := ParseLeadingInt(cols[1])
		restaurant, ok2 := ParseLeadingInt(cols[2])
		if !ok1 || !ok2 {
			return &Diagnostic{Source: SourceSupply, Line: line, Reason: ReasonMalformedRow, Detail: "non-numeric visitor/restaurant"}
		}
		rows = append(rows, SupplyRow{
			RegionName: col(cols, 0),
			Visitor:    visitor,
			Restaurant: restaurant,
			Quadrant:   Quadrant(col(cols, 3)),
			Line:       line,
		})
		return nil
	})
	return rows, diags, err
}

// ParseMaster: rows need at least lat, lng, province and sub-region columns; records are
// returned normalised.
func ParseMaster(r io.Reader) ([]MasterRecord, []Diagnostic, error) {
	var recs []MasterRecord
	diags, err := eachRecord(r, SourceMaster, func(line int, cols []string) *Diagnostic {
		if len(cols) < masterMinCols {
			return &Diagnostic{Source: SourceMaster, Line: line, Reason: ReasonMalformedRow, Detail: fmt.Sprintf("%d columns", len(cols))}
		}
		lat, err1 := strconv.ParseFloat(col(cols, 1), 64)
		lng, err2 := strconv.ParseFloat(col(cols, 2), 64)
		if err1 != nil || err2 != nil {
			return &Diagnostic{Source: SourceMaster, Line: line, Reason: ReasonMalformedRow, Detail: "bad coordinates"}
		}
		recs = append(recs, NormalizeMaster(MasterRecord{
			Lat:         lat,
			Lng:         lng,
			SidoFull:    col(cols, 3),
			SidoAbbr:    col(cols, 4),
			SigName:     col(cols, 5),
			NaverRegion: col(cols, 6),
			Sigun:       col(cols, 7),
		}))
		return nil
	})
	return recs, diags, err
}
