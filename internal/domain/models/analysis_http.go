package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"100" validate:"gte=20,lte=2000"`
	TF     string `query:"tf" json:"tf" default:"5m" validate:"oneof=1m 5m 15m 1h 4h"`
	Trades int    `query:"trades" json:"trades" default:"500" validate:"gte=0,lte=5000"`
	Depth  int    `query:"depth" json:"depth" default:"50" validate:"gte=0,lte=500"`
}

type ReportRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type ConfirmationRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type StreamRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}
