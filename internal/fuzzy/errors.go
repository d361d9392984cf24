package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput matches every *InvalidInputError.
	ErrInvalidInput = errors.New("invalid crisp input")
	// ErrUndefinedInput matches every *UndefinedInputError.
	ErrUndefinedInput = errors.New("undefined input")
	// ErrUnknownTerm is returned when a term name is not defined on a variable.
	ErrUnknownTerm = errors.New("unknown term")
)

// InvalidInputError reports a crisp value that is not a finite number or
// lies outside the variable's universe.
type InvalidInputError struct {
	Variable string
	Value    float64
	Lo, Hi   float64
}

func (e *InvalidInputError) Error() string {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Sprintf("invalid crisp input for %q: %v is not a finite number", e.Variable, e.Value)
	}
	return fmt.Sprintf("invalid crisp input for %q: %v is outside [%g, %g]", e.Variable, e.Value, e.Lo, e.Hi)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UndefinedInputError reports a variable referenced by the rule base that
// was never given a crisp value. With a correctly wired pipeline this is a
// programming error.
type UndefinedInputError struct {
	Variable string
}

func (e *UndefinedInputError) Error() string {
	return fmt.Sprintf("no crisp value supplied for input variable %q", e.Variable)
}

func (e *UndefinedInputError) Is(target error) bool {
	return target == ErrUndefinedInput
}
