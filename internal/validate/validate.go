package validate

// This package adds interval and struct validation as a thin wrapper around the go-playground/validator package.
//
// e.g. internal/prefs/prefs.go
//   type entry struct {
//       Address  string `validate:"required"`
//       Interval int    `validate:"refresh_interval"`
//   }
//
// This keeps the minimum-interval floor in one place for the CLI, the menu and the panel.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MinInterval is the smallest accepted refresh interval, in seconds.
const MinInterval = 5

// IntervalTag is the custom validator tag enforcing MinInterval.
const IntervalTag = "refresh_interval"

var (
	ErrNotNumeric   = errors.New("interval must be a number")
	ErrBelowMinimum = fmt.Errorf("interval must be at least %d seconds", MinInterval)
	ErrTooLarge     = errors.New("interval is too large")
)

// validatorInstance is a shared validator for the application.
// It is initialized once and reused to avoid repeated allocations.
//
//nolint:gochecknoglobals // Shared validator singleton.
var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// get returns a process-wide singleton of the validator.
func get() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		_ = validatorInst.RegisterValidation(IntervalTag, func(fl validator.FieldLevel) bool {
			return fl.Field().Int() >= MinInterval
		})
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

// Interval reports whether seconds satisfies the minimum-interval floor.
func Interval(seconds int) error {
	if err := Var(seconds, IntervalTag); err != nil {
		return fmt.Errorf("%w: got %d", ErrBelowMinimum, seconds)
	}
	return nil
}

// ParseInterval parses user input the way a leading-integer parse would:
// surrounding space is ignored, an optional sign and leading digits are read
// and anything after them is dropped ("90s" is 90, "abc" is an error).
func ParseInterval(input string) (int, error) {
	s := strings.TrimSpace(input)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, input)
	}
	n, err := strconv.Atoi(s[:end])
	switch {
	case errors.Is(err, strconv.ErrRange) && n < 0:
		return 0, fmt.Errorf("%w: got %s", ErrBelowMinimum, s[:end])
	case errors.Is(err, strconv.ErrRange):
		return 0, fmt.Errorf("%w: %q", ErrTooLarge, input)
	case err != nil:
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, input)
	}
	if err := Interval(n); err != nil {
		return 0, err
	}
	return n, nil
}
