package chain

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a transaction attempt did not complete.
type FailureKind string

const (
	// FailureCancelled means the signer rejected the signature request.
	// Always recoverable; the user may simply try again.
	FailureCancelled FailureKind = "cancelled"
	// FailureSubmission means the write call was rejected before broadcast,
	// e.g. insufficient balance or a would-revert estimate.
	FailureSubmission FailureKind = "submission"
	// FailureReverted means the transaction was mined but reverted.
	FailureReverted FailureKind = "reverted"
	// FailureTimeout means no receipt arrived within the tracking budget.
	// The outcome is ambiguous: the transaction may still land later.
	FailureTimeout FailureKind = "timeout"
)

// Failure wraps a transaction error with its classification.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a classified failure.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// ErrSigningRejected is returned by signers when the user declines to sign.
var ErrSigningRejected = errors.New("signature request rejected")

// ErrReceiptTimeout is returned when the receipt polling budget is exhausted.
var ErrReceiptTimeout = errors.New("no receipt within tracking budget")

// ErrTransactionReverted is returned for a mined-but-reverted transaction.
var ErrTransactionReverted = errors.New("transaction reverted")

// Classify maps an arbitrary error from a submit/track call to a Failure.
// Context cancellation during tracking counts as a timeout: the caller gave
// up waiting, not the chain.
func Classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case errors.Is(err, ErrSigningRejected):
		return NewFailure(FailureCancelled, err)
	case errors.Is(err, ErrTransactionReverted):
		return NewFailure(FailureReverted, err)
	case errors.Is(err, ErrReceiptTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return NewFailure(FailureTimeout, err)
	default:
		return NewFailure(FailureSubmission, err)
	}
}
