package tokens

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// CheckTransferAmount rejects non positive or non finite unit amounts
// before any signing or submission work is done.
func CheckTransferAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ToBaseUnits converts a token unit amount to base units (10^decimals).
func ToBaseUnits(amount float64, decimals int) *big.Int {
	return decimal.NewFromFloat(amount).Shift(int32(decimals)).BigInt()
}

// FromBaseUnits converts base units back to token units.
func FromBaseUnits(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}
	result, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return result
}

// UnitToUSD values a token unit amount at the given USD unit price.
func UnitToUSD(unitAmount, unitPrice float64) float64 {
	return unitAmount * unitPrice
}

// USDToUnit converts a USD amount to token units at the given unit price.
func USDToUnit(usdAmount, unitPrice float64) float64 {
	if unitPrice == 0 {
		return 0
	}
	return usdAmount / unitPrice
}
