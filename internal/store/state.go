// Package store holds the application state and the transitions the view
// layer drives. It performs no I/O and schedules no timers; persistence and
// the cooldown countdown are driven from outside.
package store

import (
	"math"
	"time"

	"github.com/codyseavey/nextbet/internal/models"
)

const (
	DefaultBankroll = 1000.0
	DailyGoalRate   = 0.04 // 4% of bankroll per day
	CooldownSeconds = 50
	MaxHistory      = 50

	// MaxAmount bounds bankroll and accumulated goal progress. Larger values
	// are treated as malformed input.
	MaxAmount = 1e12
)

// State is the full session state. The zero value is not usable; start from
// DefaultState.
type State struct {
	Screen                  models.Screen            `json:"screen"`
	Bankroll                float64                  `json:"bankroll"`
	Mode                    models.Mode              `json:"mode"`
	Premium                 bool                     `json:"premium"`
	UploadedImage           *string                  `json:"uploaded_image"`
	CurrentAnalysis         *models.AnalysisResult   `json:"current_analysis"`
	Analyzing               bool                     `json:"analyzing"`
	Cooldown                models.Cooldown          `json:"cooldown"`
	LastAnalysisTriggerTime *time.Time               `json:"last_analysis_trigger_time"`
	History                 []*models.AnalysisResult `json:"history"`
	Goals                   models.GoalProgress      `json:"goals"`
}

// DefaultState returns the state of a first launch
func DefaultState() State {
	st := State{
		Screen:   models.ScreenHome,
		Bankroll: DefaultBankroll,
		Mode:     models.ModeNormal,
		History:  []*models.AnalysisResult{},
	}
	st.RecomputeDailyGoal()
	return st
}

// roundHalfUp rounds halves towards positive infinity
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// toInt converts a rounded value to int, saturating at the int range. NaN
// becomes 0.
func toInt(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt:
		return math.MaxInt
	case x <= math.MinInt:
		return math.MinInt
	default:
		return int(x)
	}
}

func percentOf(progress float64, target int) int {
	if target == 0 {
		return 0
	}
	return toInt(roundHalfUp(progress / float64(target) * 100))
}

func (st *State) SetScreen(screen models.Screen) {
	st.Screen = screen
}

// SetBankroll only replaces the bankroll. The daily goal depends on it, so
// callers follow it with RecomputeDailyGoal; Store.SetBankroll does both.
func (st *State) SetBankroll(amount float64) {
	st.Bankroll = amount
}

// SetMode does not check premium entitlement
func (st *State) SetMode(mode models.Mode) {
	st.Mode = mode
}

func (st *State) SetPremium(premium bool) {
	st.Premium = premium
}

func (st *State) SetUploadedImage(image *string) {
	st.UploadedImage = image
}

func (st *State) SetCurrentAnalysis(result *models.AnalysisResult) {
	st.CurrentAnalysis = result
}

func (st *State) SetAnalyzing(analyzing bool) {
	st.Analyzing = analyzing
}

// StartCooldown begins a full countdown and records when it was triggered
func (st *State) StartCooldown(now time.Time) {
	st.Cooldown = models.Cooldown{Active: true, SecondsLeft: CooldownSeconds}
	st.LastAnalysisTriggerTime = &now
}

// TickCooldown sets the remaining seconds and derives the active flag from them
func (st *State) TickCooldown(secondsLeft int) {
	if secondsLeft < 0 {
		secondsLeft = 0
	}
	st.Cooldown = models.Cooldown{Active: secondsLeft > 0, SecondsLeft: secondsLeft}
}

// AddToHistory prepends the result and drops anything past MaxHistory
func (st *State) AddToHistory(result *models.AnalysisResult) {
	if result == nil {
		return
	}
	n := len(st.History) + 1
	if n > MaxHistory {
		n = MaxHistory
	}
	history := make([]*models.AnalysisResult, 0, n)
	history = append(history, result)
	for _, r := range st.History {
		if len(history) == MaxHistory {
			break
		}
		history = append(history, r)
	}
	st.History = history
}

func (st *State) RemoveFromHistory(id string) {
	kept := make([]*models.AnalysisResult, 0, len(st.History))
	for _, r := range st.History {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	st.History = kept
}

func (st *State) ClearHistory() {
	st.History = []*models.AnalysisResult{}
}

// RecordGoalProgress adds delta to the accumulated progress. The percentage is
// always derived from the accumulated total, never summed incrementally.
func (st *State) RecordGoalProgress(delta float64) {
	st.Goals.Progress += delta
	st.Goals.ProgressPercent = percentOf(st.Goals.Progress, st.Goals.DailyTarget)
}

// ResetDailyGoalProgress zeroes progress but keeps the target
func (st *State) ResetDailyGoalProgress() {
	st.Goals.Progress = 0
	st.Goals.ProgressPercent = 0
}

// RecomputeDailyGoal derives the target from the bankroll and re-rates the
// current progress against it
func (st *State) RecomputeDailyGoal() {
	st.Goals.DailyTarget = toInt(roundHalfUp(st.Bankroll * DailyGoalRate))
	if st.Goals.Progress > 0 {
		st.Goals.ProgressPercent = percentOf(st.Goals.Progress, st.Goals.DailyTarget)
	} else {
		st.Goals.ProgressPercent = 0
	}
}

// Clone returns a deep copy of the state
func (st *State) Clone() State {
	c := *st
	if st.UploadedImage != nil {
		img := *st.UploadedImage
		c.UploadedImage = &img
	}
	if st.LastAnalysisTriggerTime != nil {
		t := *st.LastAnalysisTriggerTime
		c.LastAnalysisTriggerTime = &t
	}
	c.CurrentAnalysis = st.CurrentAnalysis.Clone()
	c.History = cloneHistory(st.History)
	return c
}

func cloneHistory(history []*models.AnalysisResult) []*models.AnalysisResult {
	out := make([]*models.AnalysisResult, 0, len(history))
	for _, r := range history {
		if r != nil {
			out = append(out, r.Clone())
		}
	}
	return out
}
