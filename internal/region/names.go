package region

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	sejongAbbr      = "세종"
	sejongFull      = "세종특별자치시"
	sejongDuplicate = sejongFull + " " + sejongFull
)

// LegacyAbbreviations: phonetic-legacy province abbreviations and their standard form.
var LegacyAbbreviations = map[string]string{
	"전라": "전남",
}

// MetroCities: metropolitan and special cities whose trend key is "{abbr} {sigName}".
var MetroCities = map[string]bool{
	"서울": true,
	"부산": true,
	"대구": true,
	"인천": true,
	"광주": true,
	"대전": true,
	"울산": true,
}

// ProvinceFullNames: abbreviation -> full province name as written in the supply source.
// Abbreviations missing here match on the abbreviation itself.
var ProvinceFullNames = map[string]string{
	"충북": "충청북도",
	"충남": "충청남도",
	"경북": "경상북도",
	"경남": "경상남도",
	"전남": "전라남도",
	"전북": "전북특별자치도",
	"강원": "강원특별자치도",
	"제주": "제주특별자치도",
	"세종": sejongFull,
}

// FullProvince: resolved full name for an abbreviation.
func FullProvince(abbr string) string {
	if full, ok := ProvinceFullNames[abbr]; ok {
		return full
	}
	return abbr
}

// Clean trims and NFC-normalizes a name so decomposed jamo match precomposed keys.
func Clean(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }

// NormalizeMaster: canonical abbreviation and trend key for a master record.
// Rules apply in order: legacy abbreviation, Sejong, metro cities, ordinary provinces.
// NormalizeMaster(NormalizeMaster(m)) == NormalizeMaster(m).
func NormalizeMaster(m MasterRecord) MasterRecord {
	m.SidoFull = Clean(m.SidoFull)
	m.SidoAbbr = Clean(m.SidoAbbr)
	m.SigName = Clean(m.SigName)
	m.Sigun = Clean(m.Sigun)
	m.NaverRegion = Clean(m.NaverRegion)

	if std, ok := LegacyAbbreviations[m.SidoAbbr]; ok {
		m.SidoAbbr = std
	}
	switch {
	case m.SidoAbbr == sejongAbbr:
		m.NaverRegion = sejongFull
	case MetroCities[m.SidoAbbr]:
		if m.NaverRegion == "" {
			m.NaverRegion = strings.TrimSpace(m.SidoAbbr + " " + m.SigName)
		}
	default:
		if m.Sigun != "" {
			m.NaverRegion = m.Sigun
		} else {
			m.NaverRegion = m.SigName
		}
	}
	return m
}

// CollapseSejong: "세종특별자치시 세종특별자치시" -> "세종특별자치시". Other names pass through trimmed.
func CollapseSejong(name string) string {
	name = Clean(name)
	if name == sejongDuplicate {
		return sejongFull
	}
	return name
}

// LastToken: trailing whitespace-delimited token; "" for blank input.
func LastToken(name string) string {
	f := strings.Fields(name)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}
