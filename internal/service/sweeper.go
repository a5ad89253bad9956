package service

import (
	"context"
	"log"
	"time"

	"ledgerlens/internal/port"
)

// ExpirySweeper periodically flips overdue pending and running tokens to
// expired. It backstops the lazy expiry done on poll: a token nobody polls
// still reaches its terminal state.
type ExpirySweeper struct {
	store    port.TokenStore
	interval time.Duration
}

// NewExpirySweeper creates a sweeper over the token store.
func NewExpirySweeper(store port.TokenStore, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExpirySweeper{store: store, interval: interval}
}

// Start runs the sweep loop until ctx is canceled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("expirySweeper: started (interval=%s)", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("expirySweeper: shutdown complete")
			return
		case <-ticker.C:
			n, err := s.store.ExpireOverdue(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("expirySweeper: sweep error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("expirySweeper: expired %d overdue token(s)", n)
			}
		}
	}
}
