package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the crawl on a cron schedule in watch mode.
type Scheduler struct {
	Cron   *cron.Cron
	Runner *Runner
}

// NewScheduler creates a scheduler around an assembled runner.
func NewScheduler(runner *Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
	}
}

// Register adds the crawl task at the given cron expression.
func (s *Scheduler) Register(cronExpr string) error {
	if _, err := s.Cron.AddFunc(cronExpr, s.crawlTask); err != nil {
		return fmt.Errorf("register crawl task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the crawl task immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.crawlTask()
}

func (s *Scheduler) crawlTask() {
	log.Println("[INFO] running scheduled crawl")
	summary, err := s.Runner.Run()
	if err != nil {
		log.Printf("[ERROR] scheduled crawl: %v", err)
		return
	}
	log.Printf("[INFO] crawl complete: opportunities=%d matches=%d new=%d skipped=%d",
		summary.TotalOpportunities, summary.Matched, summary.NewMatches, summary.Skipped)
}
