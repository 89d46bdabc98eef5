package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deskhive/deskhive/internal/service"
)

// jobTimeout bounds one job run across all groups.
const jobTimeout = 10 * time.Minute

// Scheduler runs the month-boundary jobs: materializing the next
// month's bookings on the 1st and invoicing them on the 16th.
type Scheduler struct {
	cron      *cron.Cron
	recurring *service.RecurringService
}

// New creates the scheduler. Jobs run in UTC.
func New(recurring *service.RecurringService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		recurring: recurring,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// 02:00 on the 1st: extend open-ended plans into the new next month.
	if _, err := s.cron.AddFunc("0 2 1 * *", func() {
		s.run("materialize", s.recurring.MaterializeNextMonth)
	}); err != nil {
		return err
	}
	// 10:00 on the 16th: raise next month's invoices.
	if _, err := s.cron.AddFunc("0 10 16 * *", func() {
		s.run("invoice", s.recurring.InvoiceUpcomingMonth)
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[Scheduler] Started monthly jobs")
	return nil
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log.Printf("[Scheduler] Running %s job", name)
	if err := job(ctx); err != nil {
		log.Printf("[Scheduler] %s job failed: %v", name, err)
		return
	}
	log.Printf("[Scheduler] %s job finished", name)
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Scheduler] Stopped")
}
