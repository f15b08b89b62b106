// Package format renders fund table cells the way the dashboard shows them.
package format

import (
	"strconv"
	"strings"

	"SumReport/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Kind selects how a column is rendered.
type Kind int

const (
	KindText Kind = iota
	KindPercent
	KindFixed
)

// Column describes one fund table column.
type Column struct {
	Header string
	Kind   Kind
	Places int32
	value  func(r models.FundRow) interface{}
}

// Value returns the raw cell value: float64 for numeric kinds, string for text.
func (c Column) Value(r models.FundRow) interface{} { return c.value(r) }

// Cell returns the formatted cell text.
func (c Column) Cell(r models.FundRow) string {
	switch v := c.value(r).(type) {
	case float64:
		switch c.Kind {
		case KindPercent:
			return Percent(v, c.Places)
		case KindFixed:
			return Fixed(v, c.Places)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	}
	return ""
}

func percentCol(header string, get func(r models.FundRow) float64) Column {
	return Column{Header: header, Kind: KindPercent, Places: 2, value: func(r models.FundRow) interface{} { return get(r) }}
}

// Columns returns the table columns in display order.
func Columns() []Column {
	return []Column{
		{Header: "Fund", Kind: KindText, value: func(r models.FundRow) interface{} { return r.Fund }},
		percentCol(models.LabelHorizonReturn, func(r models.FundRow) float64 { return r.Scenarios.HorizonReturn }),
		percentCol(models.Label100bpUp, func(r models.FundRow) float64 { return r.Scenarios.Up100 }),
		percentCol(models.Label50bpUp, func(r models.FundRow) float64 { return r.Scenarios.Up50 }),
		percentCol(models.Label50bpDown, func(r models.FundRow) float64 { return r.Scenarios.Down50 }),
		percentCol(models.Label100bpDown, func(r models.FundRow) float64 { return r.Scenarios.Down100 }),
		{Header: "Modified Duration", Kind: KindFixed, Places: 4, value: func(r models.FundRow) interface{} { return r.KeyFigures.ModifiedDuration }},
		percentCol("Effective Yield", func(r models.FundRow) float64 { return r.KeyFigures.EffectiveYield }),
		percentCol("Coupon", func(r models.FundRow) float64 { return r.KeyFigures.Coupon }),
		{Header: "RUL", Kind: KindText, value: func(r models.FundRow) interface{} { return r.RealizedUnlevered }},
	}
}

// Percent formats a ratio as a percentage, 0.0312 -> "3.12%".
func Percent(v float64, places int32) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(places) + "%"
}

// Fixed formats v with a fixed number of decimals.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Markdown renders the table as a GFM pipe table.
func Markdown(t *models.Table) string {
	cols := Columns()
	var b strings.Builder

	b.WriteString("|")
	for _, c := range cols {
		b.WriteString(" " + escape(c.Header) + " |")
	}
	b.WriteString("\n|")
	for _, c := range cols {
		if c.Kind == KindText {
			b.WriteString(" --- |")
		} else {
			b.WriteString(" ---: |")
		}
	}
	b.WriteString("\n")

	if t == nil {
		return b.String()
	}
	for _, r := range t.Rows {
		b.WriteString("|")
		for _, c := range cols {
			b.WriteString(" " + escape(c.Cell(r)) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
