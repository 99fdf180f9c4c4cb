// Package sim replays the full decision path over historical bars: qualify,
// score, and size an entry, then trail the stop day by day until an exit.
// One run produces one immutable SimulatedTrade with a complete event
// timeline and daily snapshots for replay.
package sim

import "time"

// Exit reasons recorded on a simulated trade.
const (
	ExitStopHit   = "stop_hit"
	ExitMaxDays   = "max_days"
	ExitEndOfData = "end_of_data"
)

// Event types on the trade timeline.
const (
	EventEntry      = "entry"
	EventStopRaised = "trailing_stop_updated"
	EventExit       = "exit"
)

// Event is one timeline entry on a simulated trade.
type Event struct {
	Date    time.Time `json:"date"`
	Type    string    `json:"type"`
	Price   float64   `json:"price"`
	OldStop float64   `json:"old_stop,omitempty"`
	NewStop float64   `json:"new_stop,omitempty"`
	Note    string    `json:"note,omitempty"`
}

// DailySnapshot is one day of the open trade: the bar plus the stop in
// force at that day's close. The UI replays these.
type DailySnapshot struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Stop   float64   `json:"stop"`
}

// SimulatedTrade is the complete lifecycle of one simulated position.
// It is never mutated after Run returns it.
type SimulatedTrade struct {
	Symbol     string    `json:"symbol"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     int       `json:"shares"`
	ExitReason string    `json:"exit_reason"`

	PnL       float64 `json:"pnl"`
	PnLPct    float64 `json:"pnl_pct"`
	DaysHeld  int     `json:"days_held"`
	RMultiple float64 `json:"r_multiple"`

	Events []Event         `json:"events"`
	Daily  []DailySnapshot `json:"daily"`
}

// Win reports whether the trade closed profitably.
func (t *SimulatedTrade) Win() bool {
	return t.PnL > 0
}
