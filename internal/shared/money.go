package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale of every stored amount.
const MoneyPlaces = 2

// ValidateAmount rejects negative amounts and amounts finer than MoneyPlaces, which
// the store would round.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", ErrValidation, field, MoneyPlaces)
	}
	return nil
}
