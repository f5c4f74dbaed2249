// Package core provides the value types shared by the loan and tax engines.
//
// This file contains functions for parsing monetary amounts and rates from
// user input and rounding amounts to cents for display.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional thousands separator of "_" or spaces. Signs are rejected.
//
// Examples:
//
//	ParseAmount("200000")    -> 200000, nil
//	ParseAmount("1073,64")   -> 1073.64, nil
//	ParseAmount("200_000.5") -> 200000.5, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseRate parses an annual rate written either as a fraction ("0.05") or
// as a percentage ("5%"). Rates above 1 without a percent sign are rejected
// since "5" is ambiguous.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	v, err := ParseAmount(s)
	if err != nil {
		return 0, ErrInvalidRate
	}
	if percent {
		v /= 100
	}
	if v > 1 {
		return 0, ErrInvalidRate
	}
	return v, nil
}

// RoundCents rounds half away from zero to two decimals. Engines never round;
// this is for presentation and exported tables only.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
