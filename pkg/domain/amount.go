package domain

import (
	"github.com/shopspring/decimal"

	dErrors "altanbank/pkg/domain-errors"
)

// AmountScale is the fixed-point scale for every ALTAN amount. Amounts are
// stored as NUMERIC(30,2); anything finer is rejected at the boundary so the
// conservation invariant never accumulates rounding drift.
const AmountScale = 2

// ValidateAmount enforces the shared amount invariant for mint, burn and
// transfer: strictly positive, at most AmountScale decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if amount.Exponent() < -AmountScale {
		return dErrors.Newf(dErrors.CodeInvalidInput, "amount must have at most %d decimal places", AmountScale)
	}
	return nil
}

// ParseAmount parses a decimal string from a request body and validates it.
func ParseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeBadRequest, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeBadRequest, "amount must be a decimal string")
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
