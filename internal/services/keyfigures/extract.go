package keyfigures

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"SumReport/internal/domain/models"
)

// Figure names a key figure searched in report text.
type Figure string

const (
	FigureModifiedDuration Figure = "modified duration"
	FigureEffectiveYield   Figure = "effective yield"
	FigureCoupon           Figure = "coupon"
)

var ErrMissingFigure = errors.New("keyfigures: figure not found")

// MissingFigureError is returned when a figure's pattern does not match.
type MissingFigureError struct {
	Figure Figure
}

func (e *MissingFigureError) Error() string {
	return fmt.Sprintf("keyfigures: %s not found in report text", e.Figure)
}

func (e *MissingFigureError) Is(target error) bool { return target == ErrMissingFigure }

var (
	durationPattern = regexp.MustCompile(`E.*?ur \d+\.\d+`)
	couponPattern   = regexp.MustCompile(`Coupon .*? \d\.\d+`)
	yieldPattern    = regexp.MustCompile(`dur.*?wei.*? \d\.\d+`)
	numberPattern   = regexp.MustCompile(`\d+\.\d+`)
)

// pageBreak separates pages in text extracted from a report.
const pageBreak = "\f"

// LastPage returns the text after the final form feed, or text unchanged
// when there is none. Trailing empty pages are skipped.
func LastPage(text string) string {
	pages := strings.Split(text, pageBreak)
	for i := len(pages) - 1; i >= 0; i-- {
		if strings.TrimSpace(pages[i]) != "" {
			return pages[i]
		}
	}
	return text
}

// Extract reads modified duration, effective yield and coupon from the last
// page of a summary report.
func Extract(text string) (models.KeyFigures, error) {
	page := LastPage(text)

	var (
		kf  models.KeyFigures
		err error
	)
	if kf.ModifiedDuration, err = find(page, durationPattern, FigureModifiedDuration); err != nil {
		return models.KeyFigures{}, err
	}
	if kf.Coupon, err = find(page, couponPattern, FigureCoupon); err != nil {
		return models.KeyFigures{}, err
	}
	if kf.EffectiveYield, err = find(page, yieldPattern, FigureEffectiveYield); err != nil {
		return models.KeyFigures{}, err
	}
	return kf, nil
}

func find(text string, re *regexp.Regexp, figure Figure) (float64, error) {
	match := re.FindString(text)
	if match == "" {
		return 0, &MissingFigureError{Figure: figure}
	}
	num := numberPattern.FindString(match)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("keyfigures: parse %s %q: %w", figure, num, err)
	}
	return v, nil
}
