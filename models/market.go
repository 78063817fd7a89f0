package models

// IndexSnapshot represents one row of the active indices table as displayed on the source page.
// Values are kept as the displayed strings.
type IndexSnapshot struct {
	Index         string `json:"index"`
	LastPrice     string `json:"last_price"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
}

// StatusMessage is a single informational entry returned in place of data rows
type StatusMessage struct {
	Message string `json:"message"`
}
