package usecase

import (
	"context"
	"time"

	"postqueue/domain/repository"
	"postqueue/infrastructure/logger"
)

// IPostDispatcher is the slice of the post usecase the scheduler needs.
type IPostDispatcher interface {
	PublishScheduled(ctx context.Context, id int64) error
}

// Scheduler drives the due-post loop: every interval it fetches posts whose
// scheduled time has passed (including failed ones still under the retry
// cap) and dispatches them strictly one at a time. One bad post never
// stops the batch, and a bad tick never stops the loop.
type Scheduler struct {
	posts      repository.IPost
	dispatcher IPostDispatcher
	interval   time.Duration
	retryCap   int
	batchSize  int
}

func NewScheduler(posts repository.IPost, dispatcher IPostDispatcher, interval time.Duration, retryCap, batchSize int) *Scheduler {
	return &Scheduler{
		posts:      posts,
		dispatcher: dispatcher,
		interval:   interval,
		retryCap:   retryCap,
		batchSize:  batchSize,
	}
}

// Start blocks until ctx is cancelled, ticking at the configured interval.
func (s *Scheduler) Start(ctx context.Context) {
	logger.GetLogger().WithField("interval", s.interval.String()).Info("Scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("Scheduler stopped")
			return
		case now := <-ticker.C:
			if err := s.TickOnce(ctx, now.UTC()); err != nil {
				logger.GetLogger().WithField("error", err).Error("Scheduler tick failed")
			}
		}
	}
}

// TickOnce processes one batch of due posts. Exported so tests and the
// manual trigger endpoint can drive the loop deterministically.
func (s *Scheduler) TickOnce(ctx context.Context, now time.Time) error {
	due, err := s.posts.FetchDue(ctx, now, s.retryCap, s.batchSize)
	if err != nil {
		return err
	}
	for _, post := range due {
		s.dispatchOne(ctx, post.ID)
	}
	return nil
}

// dispatchOne isolates each post behind its own recover so a panicking
// dispatch cannot take down the rest of the batch.
func (s *Scheduler) dispatchOne(ctx context.Context, id int64) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("post_id", id).WithField("panic", r).Error("Dispatch panicked")
		}
	}()
	if err := s.dispatcher.PublishScheduled(ctx, id); err != nil {
		logger.GetLogger().WithField("post_id", id).WithField("error", err).Warn("Scheduled dispatch failed")
	}
}
