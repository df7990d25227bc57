// Package strategy: fixed per-quadrant badge, strategy and narrative templates.
package strategy

import (
	"fmt"

	"market-map/internal/region"
)

// Advice: display metadata for one region. Strategy lines are separated by "\n".
type Advice struct {
	BadgeLabel string `json:"badge_label"`
	BadgeStyle string `json:"badge_style"`
	Icon       string `json:"icon"`
	Strategy   string `json:"strategy"`
	Narrative  string `json:"narrative"`
}

// Style: map marker appearance per quadrant.
type Style struct {
	MarkerColor string `json:"marker_color"`
	Pulse       bool   `json:"pulse"`
}

type template struct {
	badge     string
	style     string
	icon      string
	strategy  func(name, audience string) string
	narrative func(name, audience string) string
	marker    Style
}

func fixed(s string) func(string, string) string {
	return func(string, string) string { return s }
}

var templates = map[region.Quadrant]template{
	region.Opportunity: {
		badge: "블루스팟 (기회)",
		style: "badge-opportunity",
		icon:  "fa-bolt",
		strategy: func(name, _ string) string {
			return fmt.Sprintf("💡 전략: %s은 관광객 유입 대비 식당 공급이 부족합니다.\n경쟁이 적은 지금, 차별화된 컨셉으로 시장 선점이 가능합니다.", name)
		},
		narrative: fixed("좋아요! 데이터가 가리키는 가장 확실한 기회 지역입니다. 풍부한 유동인구 대비 식당 공급이 현저히 부족해, 오픈 즉시 안정적인 매출 확보가 예상됩니다. 경쟁자가 늘어나기 전에 공격적으로 진입하여 지역 랜드마크로 자리 잡으세요."),
		marker:    Style{MarkerColor: "#F37021", Pulse: true},
	},
	region.Saturated: {
		badge: "레드오션 (포화)",
		style: "badge-saturated",
		icon:  "fa-fire",
		strategy: func(name, audience string) string {
			return fmt.Sprintf("🚨 주의: %s은 이미 다수의 맛집이 경쟁 중입니다.\n단순 진입보다는 %s 타겟의 니치 마켓(웨이팅 분산 등)을 공략하세요.", name, audience)
		},
		narrative: fixed("데이터 분석 결과, 이 지역은 이미 성숙한 상권으로 진입 장벽이 높습니다. 단순한 메뉴 구성보다는 기존 맛집들이 충족시키지 못하는 '틈새 취향'이나 '강력한 비주얼 브랜딩'을 통해 웨이팅 수요를 뺏어오는 전략이 필수적입니다."),
		marker:    Style{MarkerColor: "#d63031"},
	},
	region.LowInterest: {
		badge: "저관심지역",
		style: "badge-low",
		icon:  "fa-moon",
		strategy: func(name, _ string) string {
			return fmt.Sprintf("💤 분석: %s은 아직 유동인구와 상권 활성도가 낮습니다.\n무리한 진입보다는 장기적인 상권 발달 추이를 지켜보는 것이 좋습니다.", name)
		},
		narrative: fixed("아직 외부인의 발길이 뜸한 잠재 상권입니다. 단순히 문을 열고 기다리는 영업보다는, SNS를 통해 멀리서도 찾아오게 만드는 '목적형 맛집(Destination Restaurant)' 전략이 유효합니다. 로컬 주민을 타겟으로 한 단골 확보 전략도 병행하세요."),
		marker:    Style{MarkerColor: "#636e72"},
	},
	region.Oversupply: {
		badge: "공급과잉",
		style: "badge-oversupply",
		icon:  "fa-exclamation-triangle",
		strategy: func(name, _ string) string {
			return fmt.Sprintf("⚠️ 경고: %s은 수요 대비 식당 공급이 너무 많습니다.\n폐업률이 높을 수 있으니 철저한 경쟁사 분석 없이는 진입을 피하세요.", name)
		},
		narrative: fixed("경고: 유동인구 대비 매장 수가 과도하게 많아 경쟁 피로도가 극에 달한 상태입니다. 현재 데이터로는 신규 진입을 권장하지 않습니다. 만약 진입해야 한다면, 경쟁사 폐업률을 면밀히 분석하고 압도적인 가성비 전략을 고려해야 합니다."),
		marker:    Style{MarkerColor: "#0984e3"},
	},
}

var unclassified = template{
	badge:    "분석 대기",
	style:    "badge-low",
	icon:     "fa-question",
	strategy: fixed("지도를 클릭하여 지역별 진입 전략을 확인하세요."),
	narrative: func(name, audience string) string {
		return fmt.Sprintf("데이터 분석 완료. %s의 핵심 소비층은 %s입니다. 지역 특성에 맞는 차별화 전략을 수립하세요.", name, audience)
	},
	marker: Style{MarkerColor: "#636e72"},
}

func lookup(q region.Quadrant) template {
	if t, ok := templates[q]; ok {
		return t
	}
	return unclassified
}

// Resolve: same quadrant, name and audience always give the same advice.
func Resolve(q region.Quadrant, name, audience string) Advice {
	t := lookup(q)
	return Advice{
		BadgeLabel: t.badge,
		BadgeStyle: t.style,
		Icon:       t.icon,
		Strategy:   t.strategy(name, audience),
		Narrative:  t.narrative(name, audience),
	}
}

// StyleOf: marker colour and pulse flag. Unknown quadrants use the neutral grey.
func StyleOf(q region.Quadrant) Style { return lookup(q).marker }

// Placeholder: advice shown before any region is selected.
func Placeholder() Advice {
	return Advice{
		BadgeLabel: unclassified.badge,
		BadgeStyle: unclassified.style,
		Icon:       unclassified.icon,
		Strategy:   unclassified.strategy("", ""),
	}
}
