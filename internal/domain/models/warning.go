package models

// WarningCode categorizes non-fatal issues raised while building a fund row.
type WarningCode string

const (
	WarnWeightFallback  WarningCode = "WEIGHT_FALLBACK"  // no hedge weights found, 100% USD assumed
	WarnWeightSum       WarningCode = "WEIGHT_SUM"       // hedge weights do not add up to 1
	WarnUnknownCurrency WarningCode = "UNKNOWN_CURRENCY" // currency ignored by the hedge cost sum
)

// Warning represents a recoverable issue surfaced to the caller instead of being swallowed.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}
