package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultTrackAttempts bounds receipt polling to ~90 seconds.
	DefaultTrackAttempts = 30
	// DefaultTrackInterval is the pause between receipt polls.
	DefaultTrackInterval = 3 * time.Second
)

// ReceiptFetcher is the read surface the tracker needs; *Client satisfies it.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Tracker resolves a submitted transaction hash to a confirmed receipt or a
// bounded, classified failure. It never resubmits: a dropped transaction is
// always a new user-initiated action, since nonces and state may have moved.
type Tracker struct {
	fetcher  ReceiptFetcher
	attempts int
	interval time.Duration
	log      zerolog.Logger
}

// NewTracker creates a tracker with the given polling budget. Zero values
// fall back to the defaults.
func NewTracker(fetcher ReceiptFetcher, attempts int, interval time.Duration, log zerolog.Logger) *Tracker {
	if attempts <= 0 {
		attempts = DefaultTrackAttempts
	}
	if interval <= 0 {
		interval = DefaultTrackInterval
	}
	return &Tracker{
		fetcher:  fetcher,
		attempts: attempts,
		interval: interval,
		log:      log.With().Str("component", "tracker").Logger(),
	}
}

// Track polls for the transaction's receipt until it confirms, reverts, the
// attempt budget runs out, or ctx is cancelled. A reverted transaction
// returns FailureReverted; an exhausted budget returns FailureTimeout. Both
// include the receipt-less ambiguity the caller must surface.
func (t *Tracker) Track(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= t.attempts; attempt++ {
		receipt, err := t.fetcher.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				t.log.Warn().Str("tx", txHash.Hex()).Msg("transaction reverted")
				return receipt, NewFailure(FailureReverted, ErrTransactionReverted)
			}
			t.log.Debug().Str("tx", txHash.Hex()).Int("attempt", attempt).Msg("transaction confirmed")
			return receipt, nil
		}
		// receipt not available yet, keep polling

		if attempt == t.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, NewFailure(FailureTimeout, ctx.Err())
		case <-ticker.C:
		}
	}

	t.log.Warn().Str("tx", txHash.Hex()).Int("attempts", t.attempts).Msg("receipt polling budget exhausted")
	return nil, NewFailure(FailureTimeout, ErrReceiptTimeout)
}
