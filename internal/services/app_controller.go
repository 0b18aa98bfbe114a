package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codyseavey/nextbet/internal/metrics"
	"github.com/codyseavey/nextbet/internal/models"
	"github.com/codyseavey/nextbet/internal/store"
)

// StateView is the state as the view layer sees it
type StateView struct {
	store.State
	User            *string `json:"user"`
	CooldownDisplay string  `json:"cooldown_display"`
}

// CooldownView is the slim frame published on every cooldown tick
type CooldownView struct {
	models.Cooldown
	Display string `json:"display"`
}

// StatePublisher is told about every state change, e.g. to push it to open
// browser tabs
type StatePublisher interface {
	Publish(msgType string, payload any)
}

// AppController owns the session's Store. It validates caller input, enforces
// premium and cooldown gating, runs analyses and saves the snapshot after every
// command. Store mutations themselves never fail.
type AppController struct {
	store     *store.Store
	analyzer  Analyzer
	images    ImageIntake
	snapshots SnapshotRepository
	sessions  SessionProvider
	ticker    *CooldownTicker
	publisher StatePublisher

	// serialises check-then-act sequences such as analysis admission
	mu sync.Mutex
}

func NewAppController(st *store.Store, analyzer Analyzer, images ImageIntake, snapshots SnapshotRepository, sessions SessionProvider, ticker *CooldownTicker) *AppController {
	c := &AppController{
		store:     st,
		analyzer:  analyzer,
		images:    images,
		snapshots: snapshots,
		sessions:  sessions,
		ticker:    ticker,
	}
	ticker.OnTick(c.publishTick)
	return c
}

// SetPublisher attaches a publisher for state changes. Call before serving.
func (c *AppController) SetPublisher(p StatePublisher) {
	c.publisher = p
}

func (c *AppController) publish() {
	if c.publisher != nil {
		c.publisher.Publish("state", c.State())
	}
}

// publishTick sends only the countdown while it runs. The final tick sends the
// full state so subscribers see the analysis become available again.
func (c *AppController) publishTick() {
	if c.publisher == nil {
		return
	}
	cd := c.store.Get().Cooldown
	if !cd.Active {
		c.publish()
		return
	}
	c.publisher.Publish("cooldown", CooldownView{Cooldown: cd, Display: FormatCooldown(cd.SecondsLeft)})
}

// Load rehydrates the store from the persisted snapshot, falling back to
// defaults when there is none
func (c *AppController) Load() {
	snap, err := c.snapshots.Load()
	if err != nil {
		log.Printf("App controller: failed to load snapshot, using defaults: %v", err)
		snap = nil
	}
	c.store.Restore(snap)

	st := c.store.Get()
	log.Printf("App controller: state loaded (bankroll %.2f, mode %s, %d history entries)",
		st.Bankroll, st.Mode, len(st.History))
	c.updateGauges(st)
}

// Close stops the cooldown countdown
func (c *AppController) Close() {
	c.ticker.Stop()
}

// persist saves the snapshot. A failed save is logged and the command still
// counts as done.
func (c *AppController) persist() {
	if err := c.snapshots.Save(c.store.Snapshot()); err != nil {
		log.Printf("App controller: failed to persist snapshot: %v", err)
	}
	c.updateGauges(c.store.Get())
	c.publish()
}

func (c *AppController) updateGauges(st store.State) {
	metrics.HistorySize.Set(float64(len(st.History)))
	metrics.GoalProgressPercent.Set(float64(st.Goals.ProgressPercent))
	metrics.CooldownSecondsLeft.Set(float64(st.Cooldown.SecondsLeft))
}

// State returns the current state with the session and formatted cooldown
func (c *AppController) State() StateView {
	st := c.store.Get()
	view := StateView{
		State:           st,
		CooldownDisplay: FormatCooldown(st.Cooldown.SecondsLeft),
	}
	if id, ok, err := c.sessions.CurrentSession(); err != nil {
		log.Printf("App controller: failed to read session: %v", err)
	} else if ok {
		view.User = &id
	}
	return view
}

// Navigate switches screens. Premium-only screens send non-premium users to
// the premium screen instead. Returns the screen actually shown.
func (c *AppController) Navigate(screen models.Screen) (models.Screen, error) {
	if !screen.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScreen, screen)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target := screen
	c.store.Update(func(st *store.State) {
		if screen.PremiumOnly() && !st.Premium {
			target = models.ScreenPremium
		}
		st.SetScreen(target)
	})
	c.persist()
	return target, nil
}

// parseAmount parses a user-typed amount. NaN, infinities and values above
// store.MaxAmount are rejected.
func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > store.MaxAmount {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return v, nil
}

// UpdateBankroll parses and applies a new bankroll, recomputing the daily goal
// in the same transaction, then returns to the home screen. Invalid input
// leaves the state untouched.
func (c *AppController) UpdateBankroll(raw string) error {
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Update(func(st *store.State) {
		st.SetBankroll(amount)
		st.RecomputeDailyGoal()
		st.SetScreen(models.ScreenHome)
	})
	c.persist()
	return nil
}

// RecordProgress adds a non-negative amount to today's goal progress
func (c *AppController) RecordProgress(raw string) (models.GoalProgress, error) {
	delta, err := parseAmount(raw)
	if err != nil {
		return models.GoalProgress{}, err
	}
	if delta < 0 {
		return models.GoalProgress{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var goals models.GoalProgress
	c.store.Update(func(st *store.State) {
		if st.Goals.Progress+delta > store.MaxAmount {
			err = fmt.Errorf("%w: progress would exceed %.0f", ErrInvalidAmount, store.MaxAmount)
			return
		}
		st.RecordGoalProgress(delta)
		goals = st.Goals
	})
	if err != nil {
		return models.GoalProgress{}, err
	}
	c.persist()
	return goals, nil
}

// ResetDailyGoal zeroes today's progress, keeping the target
func (c *AppController) ResetDailyGoal() models.GoalProgress {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.ResetDailyGoalProgress()
	c.persist()
	return c.store.Get().Goals
}

func (c *AppController) SetPremium(premium bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.SetPremium(premium)
	c.persist()
}

// SelectMode switches mode. Leveraged mode needs premium; without it the user
// is sent to the premium screen and the mode stays as it was.
func (c *AppController) SelectMode(mode models.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.store.Update(func(st *store.State) {
		if mode == models.ModeLeveraged && !st.Premium {
			st.SetScreen(models.ScreenPremium)
			err = ErrPremiumRequired
			return
		}
		st.SetMode(mode)
	})
	c.persist()
	return err
}

// UploadImage accepts a screenshot as the pending image and drops any result
// computed for the previous one
func (c *AppController) UploadImage(data []byte) (*UploadedImage, error) {
	upload, err := c.images.Accept(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ref := upload.DataURL
	c.store.Update(func(st *store.State) {
		st.SetUploadedImage(&ref)
		st.SetCurrentAnalysis(nil)
	})
	c.persist()
	return upload, nil
}

// ClearUpload removes the pending image and its result
func (c *AppController) ClearUpload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Update(func(st *store.State) {
		st.SetUploadedImage(nil)
		st.SetCurrentAnalysis(nil)
	})
	c.persist()
}

// RunAnalysis analyzes the pending image. Only one analysis runs at a time;
// in normal mode an active cooldown blocks it and a successful run starts a
// new one. A failed run leaves no result behind.
func (c *AppController) RunAnalysis(ctx context.Context, question string) (*models.AnalysisResult, error) {
	c.mu.Lock()
	var (
		image    string
		mode     models.Mode
		admitErr error
	)
	c.store.Update(func(st *store.State) {
		switch {
		case st.UploadedImage == nil:
			admitErr = ErrNoImage
		case st.Analyzing:
			admitErr = ErrAnalysisInFlight
		case st.Mode == models.ModeNormal && st.Cooldown.Active:
			admitErr = fmt.Errorf("%w: %s left", ErrCooldownActive, FormatCooldown(st.Cooldown.SecondsLeft))
		case st.Mode == models.ModeLeveraged && !st.Premium:
			admitErr = ErrPremiumRequired
		default:
			image, mode = *st.UploadedImage, st.Mode
			st.SetAnalyzing(true)
		}
	})
	c.mu.Unlock()
	if admitErr != nil {
		return nil, admitErr
	}
	c.publish()

	start := time.Now()
	result, err := c.analyzer.Analyze(ctx, AnalysisRequest{
		Image:    image,
		Mode:     mode,
		Question: question,
	})
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.store.SetAnalyzing(false)
		c.publish()
		metrics.AnalysisFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		log.Printf("App controller: analysis failed: %v", err)
		return nil, fmt.Errorf("run analysis: %w", err)
	}

	now := time.Now()
	c.store.Update(func(st *store.State) {
		st.SetCurrentAnalysis(result.Clone())
		st.SetAnalyzing(false)
		if mode == models.ModeNormal {
			st.StartCooldown(now)
		}
	})
	if mode == models.ModeNormal {
		c.ticker.Start(context.Background())
	}
	c.persist()

	metrics.AnalysesTotal.WithLabelValues(string(mode), string(result.RecommendedSide)).Inc()
	return result.Clone(), nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedImage):
		return "malformed_image"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// SubmitOutcome attaches the reported outcome to the current analysis and
// files it in history. Each analysis takes exactly one outcome.
func (c *AppController) SubmitOutcome(outcome models.Outcome) (*models.AnalysisResult, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		recorded *models.AnalysisResult
		err      error
	)
	c.store.Update(func(st *store.State) {
		current := st.CurrentAnalysis
		if current == nil {
			err = ErrNoCurrentAnalysis
			return
		}
		if current.HasOutcome() {
			err = ErrOutcomeRecorded
			return
		}

		annotated := current.Clone()
		annotated.Outcome = outcome
		st.AddToHistory(annotated)
		st.SetCurrentAnalysis(annotated.Clone())
		recorded = annotated.Clone()
	})
	if err != nil {
		return nil, err
	}

	c.persist()
	metrics.OutcomesTotal.WithLabelValues(string(outcome)).Inc()
	return recorded, nil
}

// History returns the newest-first history list
func (c *AppController) History() []*models.AnalysisResult {
	return c.store.Get().History
}

func (c *AppController) RemoveHistoryEntry(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.RemoveFromHistory(id)
	c.persist()
}

func (c *AppController) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.ClearHistory()
	c.persist()
}

// Goals returns the current goal progress
func (c *AppController) Goals() models.GoalProgress {
	return c.store.Get().Goals
}

// Register validates the sign-up form and logs the user in
func (c *AppController) Register(req RegisterRequest) (string, error) {
	if err := ValidateRegistration(req); err != nil {
		return "", err
	}
	return c.login(strings.TrimSpace(req.Email))
}

// Login establishes a session for email. The password is not checked.
func (c *AppController) Login(req LoginRequest) (string, error) {
	if err := ValidateLogin(req); err != nil {
		return "", err
	}
	return c.login(strings.TrimSpace(req.Email))
}

// DemoLogin logs in as the demo user
func (c *AppController) DemoLogin() (string, error) {
	return c.login(DemoUser)
}

func (c *AppController) login(id string) (string, error) {
	if err := c.sessions.EstablishSession(id); err != nil {
		return "", err
	}
	c.store.SetScreen(models.ScreenHome)
	metrics.SessionsEstablished.Inc()
	log.Printf("App controller: session established for %s", id)
	c.publish()
	return id, nil
}

// Logout clears the session marker
func (c *AppController) Logout() error {
	if err := c.sessions.ClearSession(); err != nil {
		return err
	}
	c.publish()
	return nil
}

// CurrentSession returns the logged-in identifier, if any
func (c *AppController) CurrentSession() (string, bool, error) {
	return c.sessions.CurrentSession()
}
