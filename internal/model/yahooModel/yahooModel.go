package yahooModel

// ChartResponse mirrors the v8 finance chart endpoint.
type ChartResponse struct {
	Chart Chart `json:"chart"`
}

type Chart struct {
	Result []Result  `json:"result"`
	Error  *ApiError `json:"error"`
}

type ApiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Result struct {
	Meta       Meta       `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

type Meta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type Indicators struct {
	Quote []QuoteSeries `json:"quote"`
}

// QuoteSeries closes are nullable: the API pads missing sessions with null.
type QuoteSeries struct {
	Close []*float64 `json:"close"`
}
