package model

import "time"

// SymbolState is the persisted signal history of one symbol.
type SymbolState struct {
	LastAction  Action    `json:"last_action"`
	LastBarDate time.Time `json:"last_bar_date"`
	Streak      int       `json:"streak"` // consecutive sessions with LastAction
	RecentRSI   []float64 `json:"recent_rsi"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Action and streak as of the session before LastBarDate.
	PrevAction Action `json:"prev_action,omitempty"`
	PrevStreak int    `json:"prev_streak,omitempty"`
}

// SignalState tracks every observed symbol.
type SignalState struct {
	Symbols   map[string]*SymbolState `json:"symbols"`
	UpdatedAt time.Time               `json:"updated_at"`
}
