package services

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// GoalScheduler resets daily goal progress on a cron schedule. It is only
// created when a schedule is configured; otherwise progress resets on request.
type GoalScheduler struct {
	cron *cron.Cron
	spec string
}

// NewGoalScheduler registers reset to run on the standard five-field cron spec
func NewGoalScheduler(spec string, reset func()) (*GoalScheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		log.Printf("Goal scheduler: resetting daily goal progress")
		reset()
	}); err != nil {
		return nil, fmt.Errorf("register daily goal reset %q: %w", spec, err)
	}
	return &GoalScheduler{cron: c, spec: spec}, nil
}

// Start starts the cron scheduler
func (s *GoalScheduler) Start() {
	s.cron.Start()
	log.Printf("Goal scheduler started (%s)", s.spec)
}

// Stop stops the scheduler and waits for a running reset to finish
func (s *GoalScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Goal scheduler stopped")
}
