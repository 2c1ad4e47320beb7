package alerts

import "github.com/shopspring/decimal"

var (
	hundred     = decimal.NewFromInt(100)
	watchLevel3 = decimal.NewFromInt(3)
	watchLevel5 = decimal.NewFromInt(5)
)

// PercentChange returns the signed percent move of current from base.
func PercentChange(current, base decimal.Decimal) decimal.Decimal {
	return current.Sub(base).Div(base).Mul(hundred)
}

// ShouldAlert decides whether a position's price move warrants a
// notification. The move from the buy price must reach the threshold;
// once a notification has been sent, the price must additionally move a
// full threshold away from the last notified price before the next one.
// This suppresses re-alerts while the price oscillates inside one
// threshold band of the previous alert.
func ShouldAlert(current, buyPrice decimal.Decimal, lastNotified *decimal.Decimal, threshold decimal.Decimal) bool {
	if PercentChange(current, buyPrice).Abs().LessThan(threshold) {
		return false
	}
	if lastNotified == nil {
		return true
	}
	return PercentChange(current, *lastNotified).Abs().GreaterThanOrEqual(threshold)
}

// WatchLevelsCrossed returns the one-shot watch alert levels (3, 5)
// newly crossed by the move from the base price. The flags are
// independent: a jump straight past 5% fires both.
func WatchLevelsCrossed(current, basePrice decimal.Decimal, alert3Sent, alert5Sent bool) []int {
	move := PercentChange(current, basePrice).Abs()
	var levels []int
	if !alert3Sent && move.GreaterThanOrEqual(watchLevel3) {
		levels = append(levels, 3)
	}
	if !alert5Sent && move.GreaterThanOrEqual(watchLevel5) {
		levels = append(levels, 5)
	}
	return levels
}
