package models

import "time"

// FundRow is one line of the fund table: horizon return, scenarios and key figures merged.
type FundRow struct {
	Fund              string      `json:"fund"`
	Scenarios         ScenarioSet `json:"scenarios"`
	KeyFigures        KeyFigures  `json:"key_figures"`
	RealizedUnlevered float64     `json:"rul"`
	Hedge             HedgeConfig `json:"hedge"`
	Warnings          []Warning   `json:"warnings,omitempty"`
	Source            string      `json:"source,omitempty"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// RowError records a report file that could not be turned into a row.
type RowError struct {
	Fund    string `json:"fund,omitempty"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Table is the fund table as stored and rendered.
type Table struct {
	BatchID   string     `json:"batch_id"`
	Rows      []FundRow  `json:"rows"`
	Errors    []RowError `json:"errors,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Row returns the row for fund and its index, or -1 when absent.
func (t *Table) Row(fund string) (FundRow, int) {
	for i, r := range t.Rows {
		if r.Fund == fund {
			return r, i
		}
	}
	return FundRow{}, -1
}

// Snapshot is a historical fund row persisted per refresh or edit.
type Snapshot struct {
	BatchID   string    `json:"batch_id"`
	Timestamp time.Time `json:"ts"`
	Row       FundRow   `json:"row"`
}

// TableEvent is published whenever the table changes.
type TableEvent struct {
	Type    string    `json:"type"` // table.refreshed | row.updated
	BatchID string    `json:"batch_id"`
	Rows    []FundRow `json:"rows"`
	At      time.Time `json:"at"`
}

const (
	EventTableRefreshed = "table.refreshed"
	EventRowUpdated     = "row.updated"
)
