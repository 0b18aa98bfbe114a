package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codyseavey/nextbet/internal/models"
)

const (
	// DefaultAnalysisDelay stands in for inference latency
	DefaultAnalysisDelay = 2 * time.Second

	// ReferenceBankroll is the fixed base for suggested stakes. It does not
	// follow the user's configured bankroll.
	ReferenceBankroll = 1000.0
)

// AnalysisRequest is one request to analyze the pending screenshot
type AnalysisRequest struct {
	Image    string
	Mode     models.Mode
	Question string
}

// Analyzer produces a recommendation for an uploaded outcome grid. The
// simulated implementation below can be replaced by real inference without
// touching the store.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error)
}

var (
	defaultPatterns = []string{
		"short run followed by a reversal",
		"regular alternation detected",
		"clustering tendency",
		"moderate streak pattern",
		"balanced distribution",
	}

	sequencePatterns = []string{
		"alternation pattern detected in the last rounds",
		"run of repeats identified",
		"colors tend to cluster",
	}

	// %s is replaced by the recommended side
	probabilityPatterns = []string{
		"higher probability for %s based on the analysis",
		"statistical distribution favors the recommendation",
		"frequency analysis points to a trend",
	}

	sequenceKeywords    = []string{"pattern", "sequence", "padrão", "sequência"}
	probabilityKeywords = []string{"chance", "probability", "odds", "probabilidade"}
)

// SimulatedAnalyzer draws a plausible-looking result from pseudo-random
// numbers. No inference happens; only the thumbnail is derived from the image.
type SimulatedAnalyzer struct {
	thumbnails Thumbnailer
	delay      time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

// NewSimulatedAnalyzer creates a simulated analyzer. A negative delay is
// treated as zero.
func NewSimulatedAnalyzer(thumbnails Thumbnailer, delay time.Duration) *SimulatedAnalyzer {
	seed := uint64(time.Now().UnixNano())
	return &SimulatedAnalyzer{
		thumbnails: thumbnails,
		delay:      max(delay, 0),
		rng:        rand.New(rand.NewPCG(seed, seed>>1|1)),
		now:        time.Now,
	}
}

// Analyze waits out the simulated processing delay, then returns a populated
// result. Only thumbnail derivation can fail; the error wraps ErrMalformedImage
// and no partial result is returned.
func (a *SimulatedAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	result := a.draw(req)

	thumb, err := a.thumbnails.Generate(req.Image)
	if err != nil {
		return nil, fmt.Errorf("derive thumbnail: %w", err)
	}
	result.ImageThumbnail = thumb

	return result, nil
}

func (a *SimulatedAnalyzer) draw(req AnalysisRequest) *models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	between := func(lo, hi int) int {
		return lo + a.rng.IntN(hi-lo+1)
	}

	side := models.SideBlue
	if a.rng.IntN(2) == 1 {
		side = models.SideRed
	}

	blue := between(6, 14)
	red := models.FrequencyWindow - blue
	n := between(3, 5)
	streak := between(3, 6)

	alternations := []models.Alternation{models.AlternationHigh, models.AlternationMedium, models.AlternationLow}
	risks := []models.Risk{models.RiskLow, models.RiskMedium, models.RiskHigh}

	candidates := patternsFor(req.Question)
	pattern := candidates[a.rng.IntN(len(candidates))]
	if strings.Contains(pattern, "%s") {
		pattern = fmt.Sprintf(pattern, side)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	result := &models.AnalysisResult{
		ID:               id.String(),
		Timestamp:        a.now(),
		RecommendedSide:  side,
		Confidence:       between(65, 100),
		Mode:             req.Mode,
		BlueFrequency:    &blue,
		RedFrequency:     &red,
		Recency:          &models.Recency{N: n, Count: between(1, n)},
		MaxStreak:        &streak,
		AlternationIndex: alternations[a.rng.IntN(len(alternations))],
		Pattern:          pattern,
		Risk:             risks[a.rng.IntN(len(risks))],
		Question:         strings.TrimSpace(req.Question),
	}

	if req.Mode == models.ModeLeveraged {
		stake := math.Floor(ReferenceBankroll*result.Risk.StakeFactor() + 0.5)
		result.SuggestedStake = &stake
	}

	return result
}

// patternsFor picks the candidate descriptions for a question. Sequence
// keywords win over probability keywords; no question means the defaults.
func patternsFor(question string) []string {
	q := strings.ToLower(question)
	switch {
	case q == "":
		return defaultPatterns
	case containsAny(q, sequenceKeywords):
		return sequencePatterns
	case containsAny(q, probabilityKeywords):
		return probabilityPatterns
	default:
		return defaultPatterns
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
