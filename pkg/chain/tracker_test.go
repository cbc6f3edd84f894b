package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeFetcher returns not-found until a preset attempt, then the receipt.
type fakeFetcher struct {
	calls     int
	readyAt   int // 0 means never
	receipt   *types.Receipt
	returnErr error
}

func (f *fakeFetcher) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.calls++
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	if f.readyAt > 0 && f.calls >= f.readyAt {
		return f.receipt, nil
	}
	return nil, fmt.Errorf("not found")
}

func testTracker(f ReceiptFetcher, attempts int) *Tracker {
	return NewTracker(f, attempts, time.Millisecond, testLogger())
}

func TestTrackConfirms(t *testing.T) {
	want := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	f := &fakeFetcher{readyAt: 3, receipt: want}

	got, err := testTracker(f, 10).Track(context.Background(), common.Hash{0x01})
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got != want {
		t.Errorf("Track() returned wrong receipt")
	}
	if f.calls != 3 {
		t.Errorf("expected 3 polls, got %d", f.calls)
	}
}

// A hash that never confirms must resolve to a timeout failure after exactly
// the configured attempt budget, never hang.
func TestTrackTimeoutAfterBudget(t *testing.T) {
	f := &fakeFetcher{}

	_, err := testTracker(f, 5).Track(context.Background(), common.Hash{0x02})
	if err == nil {
		t.Fatal("Track() expected error, got nil")
	}
	if Classify(err).Kind != FailureTimeout {
		t.Errorf("Track() failure kind = %v, want %v", Classify(err).Kind, FailureTimeout)
	}
	if f.calls != 5 {
		t.Errorf("expected exactly 5 polls, got %d", f.calls)
	}
}

func TestTrackRevert(t *testing.T) {
	f := &fakeFetcher{readyAt: 1, receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}

	receipt, err := testTracker(f, 10).Track(context.Background(), common.Hash{0x03})
	if err == nil {
		t.Fatal("Track() expected error for reverted tx")
	}
	if Classify(err).Kind != FailureReverted {
		t.Errorf("Track() failure kind = %v, want %v", Classify(err).Kind, FailureReverted)
	}
	if receipt == nil {
		t.Error("Track() should return the reverted receipt for inspection")
	}
}

func TestTrackContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFetcher{}
	tr := NewTracker(f, 30, 50*time.Millisecond, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := tr.Track(ctx, common.Hash{0x04})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if Classify(err).Kind != FailureTimeout {
			t.Errorf("cancelled Track() failure kind = %v, want %v", Classify(err).Kind, FailureTimeout)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Track() did not stop after context cancellation")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "signing rejected", err: fmt.Errorf("wrapped: %w", ErrSigningRejected), want: FailureCancelled},
		{name: "reverted", err: ErrTransactionReverted, want: FailureReverted},
		{name: "timeout sentinel", err: ErrReceiptTimeout, want: FailureTimeout},
		{name: "context deadline", err: context.DeadlineExceeded, want: FailureTimeout},
		{name: "anything else", err: errors.New("insufficient funds"), want: FailureSubmission},
		{name: "already classified", err: NewFailure(FailureReverted, nil), want: FailureReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err).Kind; got != tt.want {
				t.Errorf("Classify(%v).Kind = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
