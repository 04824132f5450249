// Package rules evaluates transactions against the configured fraud rules.
package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
)

// Policy holds the fraud thresholds shared by the evaluator and the generator.
type Policy struct {
	PrefixCurrencies map[string]string
	AmountLimit      decimal.Decimal
	BannedPrefixes   []string
}

// DefaultPolicy returns the built-in fraud policy.
func DefaultPolicy() Policy {
	return Policy{
		BannedPrefixes: []string{"10.0.0.", "192.168.100."},
		PrefixCurrencies: map[string]string{
			"192.168.1.":   "USD",
			"10.0.0.":      "AED",
			"172.16.0.":    "EUR",
			"192.168.100.": "INR",
			"10.1.1.":      "GBP",
		},
		AmountLimit: decimal.NewFromInt(1000),
	}
}

// IsBanned reports whether prefix is in the banned set.
func (p Policy) IsBanned(prefix string) bool {
	for _, banned := range p.BannedPrefixes {
		if banned == prefix {
			return true
		}
	}
	return false
}

// ExpectedCurrency returns the currency mapped to prefix, if any.
func (p Policy) ExpectedCurrency(prefix string) (string, bool) {
	currency, ok := p.PrefixCurrencies[prefix]
	return currency, ok && currency != ""
}

// CleanPrefixes returns the sorted prefixes that are not banned and have a currency.
func (p Policy) CleanPrefixes() []string {
	var out []string
	for prefix := range p.PrefixCurrencies {
		if _, ok := p.ExpectedCurrency(prefix); ok && !p.IsBanned(prefix) {
			out = append(out, prefix)
		}
	}
	sort.Strings(out)
	return out
}

// BannedMappedPrefixes returns the sorted banned prefixes that have a currency.
func (p Policy) BannedMappedPrefixes() []string {
	var out []string
	for _, prefix := range p.BannedPrefixes {
		if _, ok := p.ExpectedCurrency(prefix); ok {
			out = append(out, prefix)
		}
	}
	sort.Strings(out)
	return out
}

// Currencies returns the sorted distinct currencies of the prefix table.
func (p Policy) Currencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, currency := range p.PrefixCurrencies {
		if currency != "" && !seen[currency] {
			seen[currency] = true
			out = append(out, currency)
		}
	}
	sort.Strings(out)
	return out
}

// IPPrefix returns the first three octets of ip followed by a dot.
func IPPrefix(ip string) (string, error) {
	parts := strings.Split(ip, ".")
	if len(parts) < 3 {
		return "", &common.MalformedInputError{Field: "ip", Value: ip}
	}
	for _, octet := range parts[:3] {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return "", &common.MalformedInputError{Field: "ip", Value: ip}
		}
	}
	return strings.Join(parts[:3], ".") + ".", nil
}
