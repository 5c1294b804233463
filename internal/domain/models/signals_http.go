package models

// Requests for the signals HTTP endpoints. Defined in domain for consistency and reuse.

type GenerateRequest struct {
	LookbackHours int  `query:"lookback_hours" json:"lookback_hours" validate:"omitempty,gte=1,lte=72"`
	Async         bool `query:"async" json:"async"`
}
