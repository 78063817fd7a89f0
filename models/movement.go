package models

// Movement describes a significant hour-over-hour price change of an index
type Movement struct {
	Index         string  `json:"index"`
	OldPrice      float64 `json:"old_price"`
	CurrentPrice  float64 `json:"current_price"`
	PercentChange float64 `json:"percent_change"`
	Message       string  `json:"message"`
}
