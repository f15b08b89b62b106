package trendline

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMethod    = errors.New("trendline: invalid method")
	ErrEmptyInput       = errors.New("trendline: empty input")
	ErrLengthMismatch   = errors.New("trendline: length mismatch")
	ErrDegenerateInput  = errors.New("trendline: degenerate input")
	ErrInsufficientData = errors.New("trendline: insufficient data")
)

// InvalidMethodError is returned for an unrecognized method name.
type InvalidMethodError struct {
	Method string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("invalid trendline method %q: want one of ols, poly, moving average", e.Method)
}

func (e *InvalidMethodError) Is(target error) bool { return target == ErrInvalidMethod }

// EmptyInputError is returned when a series has no usable values.
type EmptyInputError struct {
	Axis string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s series is empty", e.Axis)
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// LengthMismatchError is returned when x and y differ in length.
type LengthMismatchError struct {
	X, Y int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("series length mismatch: x=%d y=%d", e.X, e.Y)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// DegenerateInputError is returned when every x value is identical.
type DegenerateInputError struct {
	Method Method
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("cannot fit %s: all x values are identical", e.Method)
}

func (e *DegenerateInputError) Is(target error) bool { return target == ErrDegenerateInput }

// InsufficientDataError is returned when the series is shorter than the method needs.
type InsufficientDataError struct {
	Need, Got int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("need at least %d points, got %d", e.Need, e.Got)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }
