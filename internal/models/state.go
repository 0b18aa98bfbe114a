package models

import (
	"time"
)

type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenHistory  Screen = "history"
	ScreenGoals    Screen = "goals"
	ScreenBankroll Screen = "bankroll"
	ScreenPremium  Screen = "premium"
)

// Valid reports whether s is one of the navigable screens
func (s Screen) Valid() bool {
	switch s {
	case ScreenHome, ScreenHistory, ScreenGoals, ScreenBankroll, ScreenPremium:
		return true
	}
	return false
}

// PremiumOnly reports whether the screen is gated behind the premium flag
func (s Screen) PremiumOnly() bool {
	return s == ScreenGoals || s == ScreenBankroll
}

// GoalProgress tracks accumulated profit against the daily target
type GoalProgress struct {
	DailyTarget     int     `json:"daily_target"`
	Progress        float64 `json:"progress"`
	ProgressPercent int     `json:"progress_percent"` // unclamped, may exceed 100
}

// Cooldown is the enforced wait between normal-mode analyses.
// Active is true exactly when SecondsLeft > 0.
type Cooldown struct {
	Active      bool `json:"active"`
	SecondsLeft int  `json:"seconds_left"`
}

// Snapshot is the persisted subset of the application state. Screen,
// uploaded image, in-flight analysis and cooldown are never persisted.
type Snapshot struct {
	Bankroll                float64           `json:"bankroll"`
	Mode                    Mode              `json:"mode"`
	Premium                 bool              `json:"premium"`
	History                 []*AnalysisResult `json:"history"`
	Goals                   GoalProgress      `json:"goals"`
	LastAnalysisTriggerTime *time.Time        `json:"last_analysis_trigger_time"`
}
