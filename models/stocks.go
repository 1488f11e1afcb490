package models

import "time"

// DateLayout is how acquisition dates are shown to the user,
// e.g. "07 April 2022, 09:30 AM".
const DateLayout = "02 January 2006, 03:04 PM"

// Stock is a single recorded purchase. It is immutable once created and
// belongs to exactly one portfolio. Quantity is kept verbatim as the user
// typed it; coercion to a number happens only when a value is computed
// for display.
type Stock struct {
	Ticker   string    `json:"ticker"`
	Quantity string    `json:"quantity"`
	Date     time.Time `json:"date"`
}

// StockView is a Stock prepared for display.
type StockView struct {
	Ticker   string
	Quantity string
	AddedOn  string
}

// View formats the stock's acquisition date for display.
func (s Stock) View() StockView {
	return StockView{
		Ticker:   s.Ticker,
		Quantity: s.Quantity,
		AddedOn:  s.Date.Format(DateLayout),
	}
}
