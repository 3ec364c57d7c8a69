package payment

import (
	"strings"

	"aroma-shop/internal/model"

	"github.com/shopspring/decimal"
)

// maxMinorAmount is the largest amount the provider accepts for a single charge.
const maxMinorAmount = 99_999_999

// Currencies the provider charges without a fractional unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// Currencies with three fractional digits.
var threeDecimalCurrencies = map[string]struct{}{
	"bhd": {}, "jod": {}, "kwd": {}, "omr": {}, "tnd": {},
}

// NormalizeCurrency lower-cases and trims an ISO 4217 code.
func NormalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

// CurrencyExponent returns the number of fractional digits of the currency's minor unit.
func CurrencyExponent(currency string) int32 {
	c := NormalizeCurrency(currency)
	if _, ok := zeroDecimalCurrencies[c]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[c]; ok {
		return 3
	}
	return 2
}

// ToMinorUnits converts a decimal amount to the provider's integer minor units and returns
// the normalized currency code: 499.00 INR becomes 49900 "inr". Amounts that are not positive,
// not exactly representable, or above the provider limit are rejected.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, string, error) {
	code := NormalizeCurrency(currency)
	if len(code) != 3 {
		return 0, "", model.ErrInvalidAmount.WithMessage("Unsupported currency code " + currency)
	}
	if !amount.IsPositive() {
		return 0, "", model.ErrInvalidAmount.WithMessage("Amount must be greater than zero")
	}

	minor := amount.Shift(CurrencyExponent(code))
	if !minor.IsInteger() {
		return 0, "", model.ErrInvalidAmount.WithMessage(
			"Amount " + amount.String() + " has more precision than " + strings.ToUpper(code) + " allows")
	}
	if minor.GreaterThan(decimal.NewFromInt(maxMinorAmount)) {
		return 0, "", model.ErrInvalidAmount.WithMessage("Amount exceeds the provider maximum")
	}

	return minor.IntPart(), code, nil
}

// FromMinorUnits converts provider minor units back to a decimal amount.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -CurrencyExponent(currency))
}
