package executor

import "github.com/shopspring/decimal"

// roundDownPlaces truncates (never rounds up) a float to n decimal places
// using exact decimal arithmetic. The teacher's exchange package truncates
// USDC amounts with a float*pow/int64 trick (exchange/auth.go's roundDown);
// that trick loses precision past a handful of decimals and rounds the wrong
// way at exact boundaries (0.014 * 0.95 must land on 0.013, not 0.01).
// shopspring/decimal avoids both failure modes.
func roundDownPlaces(val float64, places int32) float64 {
	d := decimal.NewFromFloat(val).Truncate(places)
	f, _ := d.Float64()
	return f
}

// roundPlaces rounds to nearest at n decimal places (half-away-from-zero),
// used for the unwind discount ladder's sell price, which sits on a 3dp
// venue price grid rather than being a truncated balance amount.
func roundPlaces(val float64, places int32) float64 {
	d := decimal.NewFromFloat(val).Round(places)
	f, _ := d.Float64()
	return f
}

// sizeForExactShares computes the USDT size that, at sellPrice, buys/sells
// exactly `shares` — the inverse of the naive `size / price` used elsewhere,
// which over-requests shares when size was rounded down first.
func sizeForExactShares(shares, price float64) float64 {
	return roundDownPlaces(shares*price, 8)
}
