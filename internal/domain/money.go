/**
 * @description
 * This file contains the money parsing helpers. Form fields arrive as free-text
 * decimal strings ("100", "100.50"); they are converted into int64 cents with a
 * typed error before any business logic runs, so handlers can reject malformed
 * input with a 400 rather than letting it surface as a storage error.
 */

package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmount indicates a malformed, zero, or negative money amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string into a positive amount in cents.
// At most two fractional digits are accepted; anything else is rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: signs are not accepted", ErrInvalidAmount)
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("%w: %q has an invalid fractional part", ErrInvalidAmount, s)
		}
	}
	if whole == "" {
		return 0, fmt.Errorf("%w: %q is missing a whole part", ErrInvalidAmount, s)
	}
	// Both parts must be bare digits; ParseInt alone would let an embedded
	// sign through ("1.-5").
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	var cents int64
	switch len(frac) {
	case 0:
		cents = 0
	case 1:
		d, _ := strconv.ParseInt(frac, 10, 64)
		cents = d * 10
	case 2:
		d, _ := strconv.ParseInt(frac, 10, 64)
		cents = d
	}

	if units > (1<<62)/100 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	total := units*100 + cents
	if total <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return total, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders cents as a decimal string ("10050" cents -> "100.50").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
