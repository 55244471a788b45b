package recommend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
)

// ItemNamePlaceholder is left in every message for the caller to substitute.
const ItemNamePlaceholder = "{item_name}"

type template struct {
	message string // contains {item_name} and {days}
	advice  string
}

var templates = map[models.Action]template{
	models.ActionUrgentPurchase: {
		message: "{item_name} will run out in {days}. Buy more right away.",
		advice:  "Stock is at the minimum level. Purchase immediately to avoid running out.",
	},
	models.ActionPurchaseNow: {
		message: "{item_name} has about {days} left. Now is a good time to buy.",
		advice:  "Pick it up on your next shopping trip.",
	},
	models.ActionPurchaseSoon: {
		message: "{item_name} will run low in about {days}. Plan to buy it soon.",
		advice:  "Add it to this week's shopping list.",
	},
	models.ActionPrepare: {
		message: "{item_name} has about {days} of stock left.",
		advice:  "Consider buying it during a regular shopping trip in the next couple of weeks.",
	},
	models.ActionMonitor: {
		message: "{item_name} is well stocked with about {days} remaining.",
		advice:  "No purchase needed for now.",
	},
}

const (
	defaultMessage = "Check the stock of {item_name} periodically."
	defaultAdvice  = "Check periodically."
)

// ratio bands shared by the market clause, budget impact and pace category.
const (
	bandMuchHigher = 1.5
	bandHigher     = 1.2
	bandMuchLower  = 0.5
	bandLower      = 0.8
)

type band int

const (
	bandNone band = iota
	bandAverage
	bandAbove
	bandFar
	bandBelow
	bandFarBelow
)

// paceBand classifies user/market; bandNone when there is no market data.
func paceBand(userPace, marketPace float64) (band, float64) {
	if marketPace <= 0 {
		return bandNone, 0
	}
	r := userPace / marketPace
	switch {
	case r > bandMuchHigher:
		return bandFar, r
	case r >= bandHigher:
		return bandAbove, r
	case r < bandMuchLower:
		return bandFarBelow, r
	case r < bandLower:
		return bandBelow, r
	default:
		return bandAverage, r
	}
}

// daysText renders days remaining for a message.
func daysText(days float64) string {
	switch {
	case days < 1:
		return "less than 1 day"
	case int(days) == 1:
		return "1 day"
	default:
		return strconv.Itoa(estimatedDays(days)) + " days"
	}
}

func marketClause(userPace, marketPace float64) string {
	b, r := paceBand(userPace, marketPace)
	switch b {
	case bandFar:
		return fmt.Sprintf(" Your consumption is much higher than average (about %d%% higher).", int(math.Round((r-1)*100)))
	case bandAbove:
		return " Your consumption is above average."
	case bandFarBelow:
		return fmt.Sprintf(" Your consumption is much lower than average (about %d%% lower).", int(math.Round((1-r)*100)))
	case bandBelow:
		return " Your consumption is below average."
	case bandAverage:
		return " Your consumption is about average."
	default:
		return ""
	}
}

// composeMessage renders the template of an action.
func composeMessage(action models.Action, days, userPace, marketPace float64) (message, advice string) {
	tpl, ok := templates[action]
	if !ok {
		return defaultMessage, defaultAdvice
	}
	message = strings.Replace(tpl.message, "{days}", daysText(days), 1)
	return message + marketClause(userPace, marketPace), tpl.advice
}

// Timing is the purchase window for days remaining. It uses the urgency
// boundaries but is evaluated independently.
func Timing(days float64) models.PurchaseTiming {
	switch {
	case days <= 1:
		return models.TimingImmediate
	case days <= 3:
		return models.TimingWithin3Days
	case days <= 7:
		return models.TimingThisWeek
	case days <= 14:
		return models.TimingWithin2Weeks
	default:
		return models.TimingMonitorForNow
	}
}

// SuggestedQuantity is how many units to buy: up to the target level when one
// is set, otherwise a 30-day supply on top of the minimum threshold.
func SuggestedQuantity(in Input) int {
	if in.TargetStockLevel != nil {
		return max(*in.TargetStockLevel-in.CurrentQuantity, 0)
	}
	supply := EffectivePace(in.UserPace) * 30
	if math.IsNaN(supply) || math.IsInf(supply, 0) || supply > math.MaxInt32 {
		return 1
	}
	return max(int(supply)+in.MinimumThreshold-in.CurrentQuantity, 0)
}

// Budget maps the user/market ratio onto a coarse cost category.
func Budget(userPace, marketPace float64) models.BudgetImpact {
	b, _ := paceBand(userPace, marketPace)
	switch b {
	case bandFar:
		return models.BudgetHigherCost
	case bandAbove:
		return models.BudgetSlightlyHigherCost
	case bandFarBelow:
		return models.BudgetLowerCost
	case bandBelow:
		return models.BudgetSlightlyLowerCost
	case bandAverage:
		return models.BudgetAverageCost
	default:
		return models.BudgetStandard
	}
}

// ComparePace maps the user/market ratio onto a pace category.
func ComparePace(userPace, marketPace float64) models.PaceCategory {
	b, _ := paceBand(userPace, marketPace)
	switch b {
	case bandFar:
		return models.PaceFast
	case bandAbove:
		return models.PaceAboveAverage
	case bandFarBelow:
		return models.PaceSlow
	case bandBelow:
		return models.PaceBelowAverage
	case bandAverage:
		return models.PaceAverage
	default:
		return models.PaceStandard
	}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// safeBlock runs build and returns nil if it panics.
func safeBlock[T any](name string, build func() *T) (block *T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("advisory block failed", "block", name, "panic", r)
			block = nil
		}
	}()
	return build()
}

// composeInfo builds the structured advisory blocks. A block that fails is
// left nil without affecting the others.
func composeInfo(in Input, pace, days float64) models.AdditionalInfo {
	return models.AdditionalInfo{
		ConsumptionAnalysis: safeBlock("consumption_analysis", func() *models.ConsumptionAnalysis {
			efficiency := 1.0
			if in.MarketPace > 0 {
				efficiency = math.Min(in.MarketPace/pace, 2)
			}
			return &models.ConsumptionAnalysis{
				UserPacePerDay:   round(pace, 3),
				MarketPacePerDay: round(in.MarketPace, 3),
				PaceComparison:   ComparePace(pace, in.MarketPace),
				EfficiencyScore:  efficiency,
			}
		}),
		StockAnalysis: safeBlock("stock_analysis", func() *models.StockAnalysis {
			level := models.StockLow
			if in.CurrentQuantity > 2*in.MinimumThreshold {
				level = models.StockAdequate
			}
			return &models.StockAnalysis{
				CurrentQuantity:  in.CurrentQuantity,
				MinimumThreshold: in.MinimumThreshold,
				UsableQuantity:   max(in.CurrentQuantity-in.MinimumThreshold, 0),
				StockLevel:       level,
			}
		}),
		TimingRecommendation: safeBlock("timing_recommendation", func() *models.TimingRecommendation {
			return &models.TimingRecommendation{
				EstimatedDaysRemaining: estimatedDays(days),
				OptimalPurchaseTiming:  Timing(days),
				SuggestedQuantity:      SuggestedQuantity(in),
			}
		}),
		BudgetImpact: safeBlock("budget_impact", func() *models.BudgetAnalysis {
			return &models.BudgetAnalysis{ConsumptionEfficiency: Budget(pace, in.MarketPace)}
		}),
	}
}
