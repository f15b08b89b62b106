package models

// Requests for the report HTTP endpoints.

type TrendlineRequest struct {
	X       []float64   `json:"x" validate:"required,min=1"`
	Ys      [][]float64 `json:"ys" validate:"required,min=1,dive,min=1"`
	Method  string      `json:"method" default:"ols" validate:"method"`
	Percent bool        `json:"percent"`
}

type ScenarioRequest struct {
	Fund             string             `json:"fund"`
	RUL              float64            `json:"rul"`
	ModifiedDuration float64            `json:"modified_duration" validate:"gte=0"`
	EffectiveYield   float64            `json:"effective_yield"`
	Coupon           float64            `json:"coupon"`
	Costs            map[string]float64 `json:"costs,omitempty" validate:"omitempty,dive,keys,iso4217,endkeys,gte=0"`
	Weights          map[string]float64 `json:"weights,omitempty" validate:"omitempty,dive,keys,iso4217,endkeys,gte=0,lte=1"`
}

type RefreshRequest struct {
	Async bool `query:"async" json:"async"`
}

// RowPatch edits a fund row; nil fields are left unchanged.
type RowPatch struct {
	Fund             string   `param:"fund" json:"-" validate:"required"`
	ModifiedDuration *float64 `json:"modified_duration,omitempty" validate:"omitempty,gte=0"`
	EffectiveYield   *float64 `json:"effective_yield,omitempty"`
	Coupon           *float64 `json:"coupon,omitempty"`
	RUL              *float64 `json:"rul,omitempty"`
}

type HistoryRequest struct {
	Fund  string `param:"fund" validate:"required"`
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=5000"`
}
