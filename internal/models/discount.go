package models

import "github.com/shopspring/decimal"

// DiscountMethod selects how a rate adjusts a unit price.
type DiscountMethod int

const (
	DiscountNone       DiscountMethod = 0
	DiscountPercentage DiscountMethod = 1
	DiscountFlatAmount DiscountMethod = 2
)

func (m DiscountMethod) String() string {
	switch m {
	case DiscountNone:
		return "none"
	case DiscountPercentage:
		return "percentage"
	case DiscountFlatAmount:
		return "flat_amount"
	default:
		return "unknown"
	}
}

var hundred = decimal.NewFromInt(100)

// Discount returns the price after applying method and rate, never below zero.
// Rates are not validated; an unknown method leaves the price untouched.
func Discount(price int64, method DiscountMethod, rate int64) int64 {
	var result int64
	switch method {
	case DiscountPercentage:
		result = decimal.NewFromInt(price).
			Mul(decimal.NewFromInt(100 - rate)).
			Div(hundred).
			Floor().
			IntPart()
	case DiscountFlatAmount:
		result = price - rate
	default:
		result = price
	}
	if result < 0 {
		return 0
	}
	return result
}
