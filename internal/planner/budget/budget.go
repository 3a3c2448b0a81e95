// Package budget derives an advisory cost estimate from an itinerary. All
// amounts are CNY; every category can be pinned through Overrides.
package budget

import "github.com/Tripmate-core-poc-v1/server/internal/planner/model"

const (
	defaultDays       = 5
	defaultTravellers = 2
	defaultBaseBudget = 10000

	perPersonPerDay       = 800
	transportShare        = 0.22
	accommodationPerNight = 300
	foodPerDay            = 200
	entertainmentPerDay   = 150
)

// Overrides pin individual estimate inputs. Nil fields use the derived value.
type Overrides struct {
	BaseBudget    *float64
	Days          *int
	Companions    *int
	Transport     *float64
	Accommodation *float64
	Food          *float64
	Entertainment *float64
	Buffer        *float64
	Notes         []string
}

type Breakdown struct {
	Transport     float64 `json:"transport"`
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Entertainment float64 `json:"entertainment"`
	Buffer        float64 `json:"buffer"`
}

type Estimate struct {
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
	Currency  string    `json:"currency"`
	Notes     []string  `json:"notes"`
}

// Calculate estimates costs for an itinerary. Without one it splits the base
// budget into fixed shares so the client still gets a figure to show.
func Calculate(itin *model.Itinerary, ov Overrides) Estimate {
	if itin == nil {
		return placeholderEstimate(ov.BaseBudget)
	}

	days := len(itin.DailyPlans)
	if days == 0 {
		days = intOr(ov.Days, defaultDays)
	}

	travellers := 0
	if itin.Meta != nil {
		travellers = itin.Meta.Travelers
	}
	if travellers <= 0 {
		travellers = intOr(ov.Companions, defaultTravellers)
	}

	base := 0.0
	switch {
	case ov.BaseBudget != nil:
		base = *ov.BaseBudget
	case itin.Meta != nil && itin.Meta.Budget > 0:
		base = itin.Meta.Budget
	default:
		base = float64(days*travellers) * perPersonPerDay
	}

	transport := floatOr(ov.Transport, base*transportShare)
	accommodation := floatOr(ov.Accommodation, float64(days*travellers)*accommodationPerNight)
	food := floatOr(ov.Food, float64(days*travellers)*foodPerDay)
	entertainment := floatOr(ov.Entertainment, float64(days)*entertainmentPerDay)

	buffer := base - (transport + accommodation + food + entertainment)
	if buffer < 0 {
		buffer = 0
	}
	if ov.Buffer != nil {
		buffer = *ov.Buffer
	}

	notes := ov.Notes
	if notes == nil {
		notes = []string{
			"预算为估算值，实际费用视出行季节和供应商报价而定。",
			"可在前端界面中针对特定项目进行手动调整。",
		}
	}

	return Estimate{
		Total: transport + accommodation + food + entertainment + buffer,
		Breakdown: Breakdown{
			Transport:     transport,
			Accommodation: accommodation,
			Food:          food,
			Entertainment: entertainment,
			Buffer:        buffer,
		},
		Currency: "CNY",
		Notes:    notes,
	}
}

// placeholderEstimate splits a base budget into fixed shares.
func placeholderEstimate(baseBudget *float64) Estimate {
	base := float64(defaultBaseBudget)
	if baseBudget != nil && *baseBudget > 0 {
		base = *baseBudget
	}

	transport := base * 0.20
	accommodation := base * 0.35
	food := base * 0.25
	entertainment := base * 0.15
	buffer := base - (transport + accommodation + food + entertainment)

	return Estimate{
		Total: base,
		Breakdown: Breakdown{
			Transport:     transport,
			Accommodation: accommodation,
			Food:          food,
			Entertainment: entertainment,
			Buffer:        buffer,
		},
		Currency: "CNY",
		Notes:    []string{"当前为示例预算，实际金额请以真实报价为准。"},
	}
}

func intOr(v *int, fallback int) int {
	if v != nil && *v > 0 {
		return *v
	}
	return fallback
}

func floatOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
