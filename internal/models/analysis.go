package models

import (
	"time"
)

type Side string

const (
	SideBlue Side = "blue"
	SideRed  Side = "red"
)

type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeLeveraged Mode = "leveraged"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeNormal || m == ModeLeveraged
}

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// StakeFactor returns the share of the reference bankroll suggested for a
// leveraged bet at this risk level
func (r Risk) StakeFactor() float64 {
	switch r {
	case RiskLow:
		return 0.02
	case RiskMedium:
		return 0.05
	default:
		return 0.10
	}
}

type Alternation string

const (
	AlternationHigh   Alternation = "high"
	AlternationMedium Alternation = "medium"
	AlternationLow    Alternation = "low"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Valid reports whether o is a known outcome
func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// FrequencyWindow is the number of past rounds the blue/red frequencies cover
const FrequencyWindow = 20

// Recency counts how often the recommended side appeared in the last N rounds
type Recency struct {
	N     int `json:"n"`
	Count int `json:"count"`
}

// AnalysisResult is one simulated recommendation for an uploaded outcome grid
type AnalysisResult struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	ImageThumbnail  string    `json:"image_thumbnail"`
	RecommendedSide Side      `json:"recommended_side"`
	Confidence      int       `json:"confidence"`
	Mode            Mode      `json:"mode"`

	BlueFrequency    *int        `json:"blue_frequency,omitempty"`
	RedFrequency     *int        `json:"red_frequency,omitempty"`
	Recency          *Recency    `json:"recency,omitempty"`
	MaxStreak        *int        `json:"max_streak,omitempty"`
	AlternationIndex Alternation `json:"alternation_index,omitempty"`
	Pattern          string      `json:"pattern,omitempty"`
	Risk             Risk        `json:"risk,omitempty"`
	SuggestedStake   *float64    `json:"suggested_stake,omitempty"` // leveraged mode only

	Question string  `json:"question,omitempty"`
	Outcome  Outcome `json:"outcome,omitempty"` // attached after the result was shown
}

// HasOutcome reports whether the user already reported how the bet went
func (a *AnalysisResult) HasOutcome() bool {
	return a.Outcome != ""
}

// Clone returns a deep copy so callers can't mutate shared pointers
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	if a.BlueFrequency != nil {
		v := *a.BlueFrequency
		c.BlueFrequency = &v
	}
	if a.RedFrequency != nil {
		v := *a.RedFrequency
		c.RedFrequency = &v
	}
	if a.Recency != nil {
		v := *a.Recency
		c.Recency = &v
	}
	if a.MaxStreak != nil {
		v := *a.MaxStreak
		c.MaxStreak = &v
	}
	if a.SuggestedStake != nil {
		v := *a.SuggestedStake
		c.SuggestedStake = &v
	}
	return &c
}
