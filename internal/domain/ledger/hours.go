package ledger

import "github.com/shopspring/decimal"

const HoursPlaces = 2

var minutesPerHour = decimal.NewFromInt(60)

// RoundHours applies the two-place precision used for every stored hour value.
func RoundHours(hours decimal.Decimal) decimal.Decimal {
	return hours.Round(HoursPlaces)
}

// WeightedHours converts raw minutes into hours scaled by a task weight factor.
func WeightedHours(minutes int, weight decimal.Decimal) decimal.Decimal {
	return RoundHours(decimal.NewFromInt(int64(minutes)).Mul(weight).Div(minutesPerHour))
}

func HoursToMinutes(hours decimal.Decimal) int {
	return int(hours.Mul(minutesPerHour).Round(0).IntPart())
}
