package format

import (
	"strings"
	"testing"

	"SumReport/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.0312, "3.12%"},
		{0.08, "8.00%"},
		{-0.005, "-0.50%"},
		{0, "0.00%"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.in, 2))
		})
	}
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "5.1234", Fixed(5.12341, 4))
	assert.Equal(t, "5.0000", Fixed(5, 4))
}

func TestColumns_Cells(t *testing.T) {
	row := models.FundRow{
		Fund:              "Alpha",
		Scenarios:         models.ScenarioSet{HorizonReturn: 0.03, Up100: 0.08},
		KeyFigures:        models.KeyFigures{ModifiedDuration: 5.12345, EffectiveYield: 0.0475, Coupon: 0.0325},
		RealizedUnlevered: 120,
	}
	cells := map[string]string{}
	for _, c := range Columns() {
		cells[c.Header] = c.Cell(row)
	}
	assert.Equal(t, "Alpha", cells["Fund"])
	assert.Equal(t, "3.00%", cells["hz return"])
	assert.Equal(t, "8.00%", cells["100bp up"])
	assert.Equal(t, "5.1235", cells["Modified Duration"])
	assert.Equal(t, "4.75%", cells["Effective Yield"])
	assert.Equal(t, "3.25%", cells["Coupon"])
	assert.Equal(t, "120", cells["RUL"])
}

func TestMarkdown(t *testing.T) {
	tbl := &models.Table{Rows: []models.FundRow{{Fund: "A|B", Scenarios: models.ScenarioSet{HorizonReturn: 0.01}}}}
	md := Markdown(tbl)
	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "| Fund | hz return |"))
	assert.Contains(t, lines[1], "| --- | ---: |")
	assert.Contains(t, lines[2], `A\|B`)
	assert.Contains(t, lines[2], "1.00%")
}

func TestMarkdown_NilTable(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(Markdown(nil)), "\n")
	assert.Len(t, lines, 2)
}
