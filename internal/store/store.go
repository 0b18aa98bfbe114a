package store

import (
	"sync"
	"time"

	"github.com/codyseavey/nextbet/internal/models"
)

// Store serialises all mutations of one session's State. Every method is
// atomic with respect to the others.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// New creates a store initialised with DefaultState
func New() *Store {
	return &Store{
		state: DefaultState(),
		now:   time.Now,
	}
}

// Get returns a deep copy of the current state
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update runs fn against the live state as a single transaction
func (s *Store) Update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) SetScreen(screen models.Screen) {
	s.Update(func(st *State) { st.SetScreen(screen) })
}

// SetBankroll replaces the bankroll and recomputes the daily goal from it in
// the same transaction, so no reader ever sees a stale target
func (s *Store) SetBankroll(amount float64) {
	s.Update(func(st *State) {
		st.SetBankroll(amount)
		st.RecomputeDailyGoal()
	})
}

func (s *Store) SetMode(mode models.Mode) {
	s.Update(func(st *State) { st.SetMode(mode) })
}

func (s *Store) SetPremium(premium bool) {
	s.Update(func(st *State) { st.SetPremium(premium) })
}

func (s *Store) SetUploadedImage(image *string) {
	s.Update(func(st *State) { st.SetUploadedImage(image) })
}

func (s *Store) SetCurrentAnalysis(result *models.AnalysisResult) {
	s.Update(func(st *State) { st.SetCurrentAnalysis(result.Clone()) })
}

func (s *Store) SetAnalyzing(analyzing bool) {
	s.Update(func(st *State) { st.SetAnalyzing(analyzing) })
}

func (s *Store) StartCooldown() {
	now := s.now()
	s.Update(func(st *State) { st.StartCooldown(now) })
}

func (s *Store) TickCooldown(secondsLeft int) {
	s.Update(func(st *State) { st.TickCooldown(secondsLeft) })
}

func (s *Store) AddToHistory(result *models.AnalysisResult) {
	s.Update(func(st *State) { st.AddToHistory(result.Clone()) })
}

func (s *Store) RemoveFromHistory(id string) {
	s.Update(func(st *State) { st.RemoveFromHistory(id) })
}

func (s *Store) ClearHistory() {
	s.Update(func(st *State) { st.ClearHistory() })
}

func (s *Store) RecordGoalProgress(delta float64) {
	s.Update(func(st *State) { st.RecordGoalProgress(delta) })
}

func (s *Store) ResetDailyGoalProgress() {
	s.Update(func(st *State) { st.ResetDailyGoalProgress() })
}

func (s *Store) RecomputeDailyGoal() {
	s.Update(func(st *State) { st.RecomputeDailyGoal() })
}

// Snapshot extracts the persisted subset of the state
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		Bankroll: s.state.Bankroll,
		Mode:     s.state.Mode,
		Premium:  s.state.Premium,
		History:  cloneHistory(s.state.History),
		Goals:    s.state.Goals,
	}
	if s.state.LastAnalysisTriggerTime != nil {
		t := *s.state.LastAnalysisTriggerTime
		snap.LastAnalysisTriggerTime = &t
	}
	return snap
}

// Restore replaces the state with defaults overlaid by a persisted snapshot.
// Transient fields always come back at their defaults. Out-of-range values in
// the snapshot fall back to defaults, and the daily goal is recomputed from
// the restored bankroll.
func (s *Store) Restore(snap *models.Snapshot) {
	st := DefaultState()
	if snap != nil {
		if validAmount(snap.Bankroll) && snap.Bankroll > 0 {
			st.Bankroll = snap.Bankroll
		}
		if snap.Mode.Valid() {
			st.Mode = snap.Mode
		}
		st.Premium = snap.Premium
		st.History = cloneHistory(snap.History)
		if len(st.History) > MaxHistory {
			st.History = st.History[:MaxHistory]
		}
		if validAmount(snap.Goals.Progress) {
			st.Goals = snap.Goals
		}
		if snap.LastAnalysisTriggerTime != nil {
			t := *snap.LastAnalysisTriggerTime
			st.LastAnalysisTriggerTime = &t
		}
		st.RecomputeDailyGoal()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// validAmount reports whether x is a finite amount in [0, MaxAmount]
func validAmount(x float64) bool {
	return x >= 0 && x <= MaxAmount
}
