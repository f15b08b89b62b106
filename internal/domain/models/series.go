package models

// Series is an ordered sequence of finite values.
type Series []float64

// FitResult is the output of one trendline fit.
type FitResult struct {
	Method     string    `json:"method"`
	PredictedX Series    `json:"predicted_x"`
	PredictedY Series    `json:"predicted_y"`
	Summary    string    `json:"summary"`
	Stats      *FitStats `json:"stats,omitempty"`
}

// FitStats carries the fit-quality numbers behind the summary text.
// Only the fields relevant to the method are set.
type FitStats struct {
	Slope     float64 `json:"slope,omitempty"`
	Intercept float64 `json:"intercept,omitempty"`
	RSquared  float64 `json:"r_squared"`
	PValue    float64 `json:"p_value,omitempty"`
	StdErr    float64 `json:"std_err,omitempty"`
	Degree    int     `json:"degree,omitempty"`
	MSE       float64 `json:"mse,omitempty"`
	Window    int     `json:"window,omitempty"`
}
