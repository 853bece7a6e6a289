package loyalty

import "math"

// PointsPerCurrencyUnit is the redemption rate: 100 points buy one unit of
// the order currency.
const PointsPerCurrencyUnit = 100

// Redeem converts a points redemption into a discount capped at subtotal.
// It returns the discount and the points actually consumed, which are fewer
// than requested when the cap applies.
func Redeem(subtotal float64, points int) (discount float64, used int) {
	if points <= 0 || subtotal <= 0 {
		return 0, 0
	}
	discount = float64(points) / PointsPerCurrencyUnit
	if discount <= subtotal {
		return discount, points
	}
	used = int(math.Ceil(subtotal * PointsPerCurrencyUnit))
	return subtotal, used
}

// EarnedPoints returns the points an order with the given paid total earns:
// one per whole currency unit.
func EarnedPoints(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(total))
}
