package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidSourceType = errors.New("invalid source type")
	ErrInvalidTenant     = errors.New("tenant id is required")
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "PKR": true,
	"INR": true, "AUD": true, "CAD": true, "BRL": true,
	"ZAR": true, "TRY": true, "KES": true, "NGN": true,
}

var sourceTypeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidateCurrency validates a currency code. The code is carried on every
// entry but never converted.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateSourceType validates the business-event source type of a posting
// group, e.g. SALE, PAYMENT, INVENTORY_ISSUE, LEASE_ACCRUAL.
func ValidateSourceType(sourceType string) error {
	if !sourceTypeRegex.MatchString(sourceType) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceType, sourceType)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
