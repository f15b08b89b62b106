package keyfigures

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportPage = `Portfolio characteristics
Eff. Dur 5.1234
Coupon rate (%) 3.25
Yield to maturity (duration weighted) 4.75
`

func TestExtract(t *testing.T) {
	kf, err := Extract(reportPage)
	require.NoError(t, err)

	assert.InDelta(t, 5.1234, kf.ModifiedDuration, 1e-12)
	assert.InDelta(t, 3.25, kf.Coupon, 1e-12)
	assert.InDelta(t, 4.75, kf.EffectiveYield, 1e-12)
}

func TestExtractUsesLastPage(t *testing.T) {
	first := "Eff. Dur 9.9999\nCoupon x 9.99\nduration weighted 9.99\n"
	kf, err := Extract(first + "\f" + reportPage + "\f\n")
	require.NoError(t, err)
	assert.InDelta(t, 5.1234, kf.ModifiedDuration, 1e-12)
}

func TestExtractMissingFigure(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		figure Figure
	}{
		{"no duration", "Coupon rate 3.25\nduration weighted 4.75", FigureModifiedDuration},
		{"no coupon", "Eff. Dur 5.12\nduration weighted 4.75", FigureCoupon},
		{"no yield", "Eff. Dur 5.12\nCoupon rate 3.25", FigureEffectiveYield},
		{"empty", "", FigureModifiedDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingFigure))

			var mfe *MissingFigureError
			require.True(t, errors.As(err, &mfe))
			assert.Equal(t, tt.figure, mfe.Figure)
		})
	}
}

func TestExtractPatternsDoNotCrossLines(t *testing.T) {
	_, err := Extract("Eff.\nDur 5.12\nCoupon rate 3.25\nduration weighted 4.75")
	var mfe *MissingFigureError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, FigureModifiedDuration, mfe.Figure)
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, "abc", LastPage("abc"))
	assert.Equal(t, "two", LastPage("one\ftwo"))
	assert.Equal(t, "two", LastPage("one\ftwo\f  \n"))
}
