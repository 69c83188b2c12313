package model

// CompanyProfile is descriptive and valuation data for a listed company.
// Ratios Yahoo does not report for a ticker stay undefined.
type CompanyProfile struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Country   string `json:"country,omitempty"`
	Employees int64  `json:"employees,omitempty"`
	Website   string `json:"website,omitempty"`
	Summary   string `json:"summary,omitempty"`

	MarketCap     Value `json:"market_cap"`
	TrailingPE    Value `json:"trailing_pe"`
	ForwardPE     Value `json:"forward_pe"`
	TrailingEPS   Value `json:"trailing_eps"`
	ForwardEPS    Value `json:"forward_eps"`
	PEGRatio      Value `json:"peg_ratio"`
	PriceToBook   Value `json:"price_to_book"`
	ProfitMargin  Value `json:"profit_margin"`
	ReturnOnEq    Value `json:"return_on_equity"`
	DividendYield Value `json:"dividend_yield"` // fraction, 0.005 is 0.5%
	High52w       Value `json:"high_52w"`
	Low52w        Value `json:"low_52w"`
}
