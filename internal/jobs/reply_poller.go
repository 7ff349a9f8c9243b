package jobs

import (
	"context"
	"log"
	"time"

	"buzz-backend/internal/models"
	"buzz-backend/internal/services"
)

// ReplyProcessor resubmits a stalled attempt to the external reply processor
type ReplyProcessor interface {
	SubmitAttempt(ctx context.Context, attempt *models.ReplyAttempt) error
}

// ReplyPoller periodically scans for stalled reply attempts and resubmits
// them. Single-process, best-effort; bounded only by the per-attempt retry
// ceiling.
type ReplyPoller struct {
	replyService *services.ReplyService
	processor    ReplyProcessor
	interval     time.Duration
	stopChan     chan struct{}
}

// NewReplyPoller creates a new reply-attempt poller
func NewReplyPoller(replyService *services.ReplyService, processor ReplyProcessor, interval time.Duration) *ReplyPoller {
	return &ReplyPoller{
		replyService: replyService,
		processor:    processor,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the polling loop
func (p *ReplyPoller) Start() {
	log.Printf("[ReplyPoller] Starting reply attempt poller (interval: %v)", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.resubmitStalledAttempts()
		case <-p.stopChan:
			log.Println("[ReplyPoller] Stopping reply attempt poller")
			return
		}
	}
}

// Stop stops the polling loop
func (p *ReplyPoller) Stop() {
	close(p.stopChan)
}

// resubmitStalledAttempts runs one poll tick. Errors are logged and never
// stop the ticker.
func (p *ReplyPoller) resubmitStalledAttempts() {
	ctx := context.Background()

	attempts, err := p.replyService.StalledAttempts(0)
	if err != nil {
		log.Printf("[ReplyPoller] Error selecting stalled attempts: %v", err)
		return
	}

	if len(attempts) == 0 {
		return
	}

	log.Printf("[ReplyPoller] Resubmitting %d stalled attempts", len(attempts))

	for i := range attempts {
		attempt := &attempts[i]

		if err := p.processor.SubmitAttempt(ctx, attempt); err != nil {
			log.Printf("[ReplyPoller] Error resubmitting attempt %d: %v", attempt.ID, err)
		}

		// Count the resubmission even when the processor call failed; the
		// retry ceiling bounds total attempts, not successes
		if err := p.replyService.MarkResubmitted(attempt.ID); err != nil {
			log.Printf("[ReplyPoller] Error updating attempt %d: %v", attempt.ID, err)
		}
	}
}
