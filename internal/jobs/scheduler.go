package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	attachmentService "github.com/studyloop/backend/internal/modules/attachment/service"
	goalRepo "github.com/studyloop/backend/internal/modules/goal/repository"
)

// Scheduler owns the background maintenance jobs: the orphan attachment
// sweep and the goal assignment invariant audit.
type Scheduler struct {
	cron        *cron.Cron
	attachments attachmentService.AttachmentService
	goals       goalRepo.GoalRepository
}

func NewScheduler(attachments attachmentService.AttachmentService, goals goalRepo.GoalRepository) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		attachments: attachments,
		goals:       goals,
	}
}

func (s *Scheduler) Start() error {
	// Every 12 hours: sweep uploads that never got linked to a parent.
	if _, err := s.cron.AddFunc("0 */12 * * *", s.runOrphanCleanup); err != nil {
		return err
	}

	// Hourly: audit the single-active-assignment invariant. The synchronizer
	// enforces it transactionally, so any hit here is a data integrity
	// incident worth a loud log line.
	if _, err := s.cron.AddFunc("@hourly", s.runAssignmentAudit); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("📅 Background job scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("🛑 Background job scheduler stopped")
}

func (s *Scheduler) runOrphanCleanup() {
	log.Println("🧹 Running orphan attachment cleanup...")
	removed, err := s.attachments.CleanupOrphans(context.Background())
	if err != nil {
		log.Printf("❌ Orphan attachment cleanup failed: %v", err)
		return
	}
	log.Printf("✅ Orphan attachment cleanup completed, removed %d", removed)
}

func (s *Scheduler) runAssignmentAudit() {
	violators, err := s.goals.CountActiveViolations()
	if err != nil {
		log.Printf("❌ Assignment invariant audit failed: %v", err)
		return
	}
	if len(violators) == 0 {
		return
	}
	for _, userID := range violators {
		log.Printf("🚨 Data integrity: user %s has multiple active goal assignments", userID)
	}
}
