// Package persona: dominant consumer segment per province, built once from the persona CSV.
package persona

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"market-map/internal/format"
	"market-map/internal/region"
)

const minCols = 6

type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Label: 남성 / 여성.
func (g Gender) Label() string {
	if g == Male {
		return "남성"
	}
	return "여성"
}

func parseGender(code string) (Gender, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "M":
		return Male, true
	case "F":
		return Female, true
	}
	return "", false
}

// Policy decides which row wins when a province appears more than once.
type Policy int

const (
	// LastRow: later rows overwrite earlier ones.
	LastRow Policy = iota
	// HighestSpend: keep the row with the largest average spend; ties keep the earlier row.
	HighestSpend
)

// ParsePolicy accepts last_row / highest_spend; anything else is LastRow.
func ParsePolicy(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest_spend", "highest-spend", "max_spend":
		return HighestSpend
	}
	return LastRow
}

func (p Policy) String() string {
	if p == HighestSpend {
		return "highest_spend"
	}
	return "last_row"
}

// Record: formatted persona for one province. AvgSpend is the unrounded source value.
type Record struct {
	Province    string  `json:"province"`
	AgeGroup    string  `json:"age_group"`
	Gender      Gender  `json:"gender"`
	AvgSpend    float64 `json:"avg_spend"`
	SpendLabel  string  `json:"spend_label"`
	Description string  `json:"description"`
}

// Audience: "{age} {gender}", e.g. "40대 남성".
func (r Record) Audience() string { return r.AgeGroup + " " + r.Gender.Label() }

// Skip: a persona row that was not indexed.
type Skip struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Index: province abbreviation -> record. Read-only after Parse.
type Index struct {
	byProvince map[string]Record
	order      []string
}

// Empty: index with no records; every lookup misses.
func Empty() *Index { return &Index{byProvince: map[string]Record{}} }

// NewRecord formats the spend label and description for one segment.
// age is a decade number; a trailing 대 is accepted and not doubled.
func NewRecord(province, age string, g Gender, avgSpend float64) Record {
	age = strings.TrimSuffix(strings.TrimSpace(age), "대")
	spend := format.Won(avgSpend)
	return Record{
		Province:   province,
		AgeGroup:   age + "대",
		Gender:     g,
		AvgSpend:   avgSpend,
		SpendLabel: spend,
		Description: fmt.Sprintf("%s 지역은 %s대 %s의 평균 결제 금액이 %s으로 가장 높습니다.",
			province, age, g.Label(), spend),
	}
}

// Parse reads region, age, gender, total spend, count, average spend rows (header skipped).
// Short rows, unknown gender codes and non-numeric spend are skipped; read errors are returned.
func Parse(r io.Reader, policy Policy) (*Index, []Skip, error) {
	idx := Empty()
	var skips []Skip
	cr := region.NewCSVReader(r)
	header := true
	for {
		cols, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			if !header {
				skips = append(skips, Skip{Line: pe.StartLine, Reason: region.ReasonMalformedRow})
			}
			header = false
			continue
		}
		if err != nil {
			return nil, skips, fmt.Errorf("read persona: %w", err)
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(cols) < minCols {
			skips = append(skips, Skip{Line: line, Reason: region.ReasonMalformedRow})
			continue
		}
		g, ok := parseGender(cols[2])
		if !ok {
			skips = append(skips, Skip{Line: line, Reason: "unknown_gender"})
			continue
		}
		avg, err := strconv.ParseFloat(strings.TrimSpace(cols[5]), 64)
		if err != nil {
			skips = append(skips, Skip{Line: line, Reason: "bad_spend"})
			continue
		}
		province := region.Clean(cols[0])
		idx.put(NewRecord(province, cols[1], g, avg), policy)
	}
	return idx, skips, nil
}

func (x *Index) put(rec Record, policy Policy) {
	prev, exists := x.byProvince[rec.Province]
	if !exists {
		x.order = append(x.order, rec.Province)
	} else if policy == HighestSpend && rec.AvgSpend <= prev.AvgSpend {
		return
	}
	x.byProvince[rec.Province] = rec
}

// Lookup by province abbreviation.
func (x *Index) Lookup(province string) (Record, bool) {
	if x == nil {
		return Record{}, false
	}
	r, ok := x.byProvince[province]
	return r, ok
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byProvince)
}

// All: records in first-seen province order.
func (x *Index) All() []Record {
	if x == nil {
		return nil
	}
	out := make([]Record, 0, len(x.order))
	for _, p := range x.order {
		out = append(out, x.byProvince[p])
	}
	return out
}

// Card: what the persona panel shows for a province.
type Card struct {
	Available   bool   `json:"available"`
	AgeGroup    string `json:"age_group,omitempty"`
	Gender      string `json:"gender,omitempty"`
	SpendLabel  string `json:"spend_label,omitempty"`
	Description string `json:"description"`
	Audience    string `json:"audience"`
}

// DefaultAudience is used in strategy text when no persona exists.
const DefaultAudience = "핵심 고객"

// Card never fails: a missing province yields the placeholder card.
func (x *Index) Card(province string) Card {
	rec, ok := x.Lookup(province)
	if !ok {
		return Card{
			Description: fmt.Sprintf("데이터를 불러오는 중이거나\n해당 지역(%s)의 데이터가 없습니다.", province),
			Audience:    DefaultAudience,
		}
	}
	return Card{
		Available:   true,
		AgeGroup:    rec.AgeGroup,
		Gender:      rec.Gender.Label(),
		SpendLabel:  rec.SpendLabel,
		Description: rec.Description,
		Audience:    rec.Audience(),
	}
}
