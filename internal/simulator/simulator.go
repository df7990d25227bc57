// Package simulator: projected revenue for a hypothetical store capturing a share of a region's
// annual visitors.
package simulator

import (
	"errors"
	"fmt"

	"market-map/internal/format"

	"github.com/go-playground/validator/v10"
)

const (
	// GroupSize: visitors per table.
	GroupSize = 2.4
	// DaysPerMonth is used both for the daily split and the monthly projection.
	DaysPerMonth = 30
	// AreaUnitWon: revenue per area is reported in units of 10,000 won.
	AreaUnitWon = 10000

	DefaultCaptureRate = 0.01
	DefaultStoreSize   = 40
)

// StoreSizes: selectable store sizes in pyeong.
var StoreSizes = []int{20, 30, 40, 50, 60}

var ErrNoInput = errors.New("simulator: no input for selected region")

// Input: annual visitors of the region and the province's average spend.
type Input struct {
	AnnualVisitors int     `json:"annual_visitors" validate:"gte=0"`
	AvgSpend       float64 `json:"avg_spend" validate:"gt=0"`
}

// Params: slider and size-picker state.
type Params struct {
	CaptureRatePercent float64 `json:"capture_rate_percent" validate:"gte=0,lte=100"`
	StoreSize          int     `json:"store_size" validate:"oneof=20 30 40 50 60"`
}

func DefaultParams() Params {
	return Params{CaptureRatePercent: DefaultCaptureRate, StoreSize: DefaultStoreSize}
}

type Tier string

const (
	TierLow     Tier = "low"
	TierCaution Tier = "caution"
	TierNormal  Tier = "normal"
	TierGood    Tier = "good"
)

// Style: CSS key; low and caution share the bad styling.
func (t Tier) Style() string {
	switch t {
	case TierNormal:
		return "eff-normal"
	case TierGood:
		return "eff-good"
	}
	return "eff-bad"
}

// Message: advice line for the tier.
func (t Tier) Message() string {
	switch t {
	case TierLow:
		return "🚨 공간 효율이 낮습니다. 고정비(월세) 부담이 클 수 있습니다."
	case TierCaution:
		return "⚠️ 다소 아쉽습니다. 회전율을 높이거나 객단가를 올려야 합니다."
	case TierNormal:
		return "✅ 적정 수준입니다. 안정적인 운영이 예상됩니다."
	}
	return "🚀 매우 훌륭합니다! 높은 공간 효율로 고수익이 기대됩니다."
}

// TierFor: <100 low, 100..149 caution, 150..250 normal, >250 good.
func TierFor(revenuePerArea int64) Tier {
	switch {
	case revenuePerArea < 100:
		return TierLow
	case revenuePerArea < 150:
		return TierCaution
	case revenuePerArea <= 250:
		return TierNormal
	}
	return TierGood
}

type Result struct {
	MonthlyRevenue int64   `json:"monthly_revenue"`
	DailyVisitors  int64   `json:"daily_visitors"`
	DailyTables    float64 `json:"daily_tables"`
	RevenuePerArea int64   `json:"revenue_per_area"`
	Tier           Tier    `json:"tier"`
	Message        string  `json:"message"`
}

// Simulate: pure arithmetic; all rounding is half toward +Inf.
func Simulate(captureRatePercent float64, in Input, storeSize int) Result {
	realRate := captureRatePercent / 100
	baseVisitors := float64(in.AnnualVisitors) * realRate
	dailyVisitors := format.Round(baseVisitors / DaysPerMonth)
	dailyTables := dailyVisitors / GroupSize
	monthly := format.Round(dailyTables * DaysPerMonth * in.AvgSpend)
	perArea := format.Round((monthly / float64(storeSize)) / AreaUnitWon)

	tier := TierFor(int64(perArea))
	return Result{
		MonthlyRevenue: int64(monthly),
		DailyVisitors:  int64(dailyVisitors),
		DailyTables:    dailyTables,
		RevenuePerArea: int64(perArea),
		Tier:           tier,
		Message:        tier.Message(),
	}
}

var validate = validator.New()

// Validate checks params against the slider range and the store size choices.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("simulator params: %w", err)
	}
	return nil
}

// Run: validated Simulate. A nil input returns ErrNoInput so callers render placeholders.
func Run(p Params, in *Input) (*Result, error) {
	if in == nil {
		return nil, ErrNoInput
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("simulator input: %w", err)
	}
	res := Simulate(p.CaptureRatePercent, *in, p.StoreSize)
	return &res, nil
}
