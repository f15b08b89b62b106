package trendline

import "strings"

// Method selects the trendline strategy.
type Method int

const (
	MethodOLS Method = iota + 1
	MethodPoly
	MethodMovingAverage
)

var methodNames = map[Method]string{
	MethodOLS:           "ols",
	MethodPoly:          "poly",
	MethodMovingAverage: "moving average",
}

// Methods lists the supported methods in a stable order.
func Methods() []Method {
	return []Method{MethodOLS, MethodPoly, MethodMovingAverage}
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMethod matches a method name case-insensitively.
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, m := range Methods() {
		if methodNames[m] == n {
			return m, nil
		}
	}
	return 0, &InvalidMethodError{Method: name}
}
