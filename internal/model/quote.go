package model

import "time"

// Quote is the latest trading snapshot for a symbol.
type Quote struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Current   float64   `json:"current"`
	PrevClose float64   `json:"prev_close"`
	Time      time.Time `json:"time"`
}

// Change is the absolute move since the previous close.
func (q *Quote) Change() float64 { return q.Current - q.PrevClose }

// ChangePercent is the move since the previous close in percent.
// Returns 0 when the previous close is unknown.
func (q *Quote) ChangePercent() float64 {
	if q.PrevClose == 0 {
		return 0
	}
	return 100 * q.Change() / q.PrevClose
}

// Profile describes the company behind a symbol.
type Profile struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Logo   string `json:"logo"`
}
