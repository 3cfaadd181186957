// Package core holds the ledger's data types and the pure functions over them.
//
// This file contains amount parsing and the display currency. Amounts are
// decimals; the currency only changes how they are labelled.
package core

import (
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("amount must be a number")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrAmountOutOfRange    = errors.New("amount is too large or has too many decimal places")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Amounts carry at most MaxAmountScale decimal places and MaxAmountDigits digits
// before the point. Exponent notation is accepted within those bounds.
const (
	MaxAmountScale  = 8
	MaxAmountDigits = 15
)

// AmountInRange reports whether d fits the amount bounds. Values outside them
// expand to huge strings when formatted.
func AmountInRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -MaxAmountScale || exp > MaxAmountDigits {
		return false
	}
	return int64(d.NumDigits())+exp <= MaxAmountDigits
}

// ParseAmount parses a non-negative decimal amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Zero is a
// valid amount. No rounding is applied; totals are rounded for display only.
//
// Examples:
//
//	ParseAmount("10")     -> 10, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("abc")    -> ErrInvalidAmount
//	ParseAmount("-3")     -> ErrNegativeAmount
//	ParseAmount("1e400")  -> ErrAmountOutOfRange
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !AmountInRange(d) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// Currency is a display-only currency selection.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// SupportedCurrencies lists the currencies offered by the selector, in display order.
var SupportedCurrencies = []string{money.USD, money.EUR, money.GBP, money.INR, money.JPY}

// DefaultCurrency is the selection used until the user picks another.
func DefaultCurrency() Currency {
	c, _ := ParseCurrency(money.USD)
	return c
}

// ParseCurrency resolves an ISO code ("EUR") or a symbol ("€") among the supported currencies.
func ParseCurrency(s string) (Currency, error) {
	s = strings.TrimSpace(s)
	for _, code := range SupportedCurrencies {
		cur := money.GetCurrency(code)
		if cur == nil {
			continue
		}
		if strings.EqualFold(s, cur.Code) || s == cur.Grapheme {
			return Currency{Code: cur.Code, Symbol: cur.Grapheme}, nil
		}
	}
	return Currency{}, NewValidationError("currency", ErrUnsupportedCurrency)
}

// FormatTotal renders a total with exactly two decimals.
func FormatTotal(total decimal.Decimal) string {
	return total.StringFixed(2)
}
