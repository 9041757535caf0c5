package room

import (
	"context"
	"time"

	"chatroom/internal/models"
	"chatroom/internal/store"
	"chatroom/pkg/logger"
)

// Sweeper evicts participants that have gone too long without a
// heartbeat. It shares the store with the request handlers and nothing
// else: no in-process state, no locks held across its steps.
type Sweeper struct {
	store       store.Store
	period      time.Duration
	ttl         time.Duration
	broadcaster Broadcaster
	now         func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(st store.Store, period, ttl time.Duration, b Broadcaster) *Sweeper {
	return &Sweeper{
		store:       st,
		period:      period,
		ttl:         ttl,
		broadcaster: b,
		now:         time.Now,
	}
}

// Start launches the sweep loop. Stop cancels it and waits for the
// loop to exit.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	logger.Info("Presence sweeper started (period=%s, ttl=%s)", s.period, s.ttl)
}

func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	logger.Info("Presence sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are swallowed here: the next tick is the retry.
			if err := s.Sweep(ctx); err != nil {
				logger.Error("Sweep failed, retrying next cycle: %v", err)
			}
		}
	}
}

// Sweep performs one eviction pass: find stale participants, append a
// departure notice per victim, then delete. The notices land first so
// a crash between the two steps over-reports departures instead of
// silently losing them.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()
	cutoff := now.Add(-s.ttl)

	stale, err := s.store.ListStaleParticipants(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	notices := make([]*models.Message, 0, len(stale))
	for _, p := range stale {
		notices = append(notices, &models.Message{
			From: p.Name,
			To:   models.Everyone,
			Text: departureText,
			Type: models.MessageTypeStatus,
			Time: now.Format(timeLayout),
		})
	}

	if err := s.store.AppendMessages(ctx, notices); err != nil {
		return err
	}
	// The delete re-applies the staleness condition, so a heartbeat that
	// landed after the read above keeps its participant alive.
	if err := s.store.DeleteStaleParticipants(ctx, cutoff); err != nil {
		return err
	}

	if s.broadcaster != nil {
		for _, notice := range notices {
			s.broadcaster.BroadcastMessage(notice)
		}
	}

	logger.Info("Evicted %d idle participant(s)", len(stale))
	return nil
}
