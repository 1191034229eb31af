package models

import "fmt"

// ErrStakeUnit is returned when a stake breaks the purchase unit rule
var ErrStakeUnit = NewValidationError("stake_unit", "stake does not match purchase unit")

// ValidateStake checks a per-ticket stake against the minimum and purchase unit
// (JRA sells tickets from 100 yen in 100 yen steps).
func ValidateStake(stake, minimum, unit int64) error {
	if stake < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidStake, stake)
	}
	if stake < minimum {
		return fmt.Errorf("%w: stake %d is below minimum %d", ErrStakeUnit, stake, minimum)
	}
	if unit > 0 && stake%unit != 0 {
		return fmt.Errorf("%w: stake %d is not a multiple of %d", ErrStakeUnit, stake, unit)
	}
	return nil
}
