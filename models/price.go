package models

import "time"

// PricePoint is one sample of a graph series. Price is nil when the source close was not a number.
type PricePoint struct {
	Time  string   `json:"time"`
	Price *float64 `json:"price"`
}

// PriceBar is one row of provider history. Close is NaN when the provider had no value.
type PriceBar struct {
	Time  time.Time
	Close float64
}
