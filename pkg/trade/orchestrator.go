// Package trade drives a buy/sell session against the bonding curve: amount
// input, debounced quoting, the approval gate for sells, and the submitted
// transaction's lifecycle through confirmation.
package trade

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

// Direction selects which asset is spent.
type Direction string

const (
	// Buy spends the native coin for tokens. Never needs approval.
	Buy Direction = "buy"
	// Sell spends tokens for the native coin. Gated on an ERC20 allowance.
	Sell Direction = "sell"
)

// ApprovalStatus is the allowance state for the active token.
type ApprovalStatus string

const (
	ApprovalUnknown     ApprovalStatus = "unknown"
	ApprovalNotApproved ApprovalStatus = "not_approved"
	ApprovalApproved    ApprovalStatus = "approved"
)

// TxStatus is the in-flight transaction state.
type TxStatus string

const (
	TxIdle                 TxStatus = "idle"
	TxAwaitingSignature    TxStatus = "awaiting_signature"
	TxAwaitingConfirmation TxStatus = "awaiting_confirmation"
	TxFailed               TxStatus = "failed"
)

// DefaultQuoteDebounce is the pause after input stops before quoting.
const DefaultQuoteDebounce = 300 * time.Millisecond

// Reader is the read-only chain surface the orchestrator consumes.
// *chain.Client satisfies it.
type Reader interface {
	CalculateBuyReturn(ctx context.Context, token common.Address, ethAmount *big.Int) (*big.Int, error)
	CalculateSellReturn(ctx context.Context, token common.Address, tokenAmount *big.Int) (*big.Int, error)
	CurrentTokenPrice(ctx context.Context, token common.Address) (*big.Int, error)
	TokenState(ctx context.Context, token common.Address) (*chain.TokenState, error)
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Writer is the mutating chain surface. *chain.Client satisfies it.
type Writer interface {
	BuyTokens(ctx context.Context, token common.Address, value *big.Int) (common.Hash, error)
	SellTokens(ctx context.Context, token common.Address, tokenAmount *big.Int) (common.Hash, error)
	ApproveUnlimited(ctx context.Context, token common.Address) (common.Hash, error)
}

// Confirmer resolves a submitted hash. *chain.Tracker satisfies it.
type Confirmer interface {
	Track(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// PendingTx is the single transaction an orchestrator may have in flight.
type PendingTx struct {
	Hash        common.Hash
	SubmittedAt time.Time
}

// Snapshot is a read-only copy of session state for display.
type Snapshot struct {
	Direction      Direction
	FromRaw        string
	FromAmount     *big.Int
	QuotedToAmount *big.Int
	IsQuoting      bool
	Approval       ApprovalStatus
	TxStatus       TxStatus
	Pending        *PendingTx
	LastFailure    *chain.Failure
	NativeBalance  *big.Int
	TokenBalance   *big.Int
	Price          *big.Int
	Liquidity      *big.Int
}

// CanSubmit reports whether the action button would be enabled.
func (s Snapshot) CanSubmit() bool {
	return s.FromAmount != nil && s.FromAmount.Sign() > 0 &&
		s.TxStatus != TxAwaitingSignature && s.TxStatus != TxAwaitingConfirmation
}

// Orchestrator owns one trade session for one token. Sessions are not shared:
// a new token or panel gets a new orchestrator.
type Orchestrator struct {
	reader   Reader
	writer   Writer
	tracker  Confirmer
	wallet   common.Address
	token    common.Address
	debounce time.Duration
	log      zerolog.Logger

	mu            sync.Mutex
	direction     Direction
	fromRaw       string
	fromAmount    *big.Int
	quoted        *big.Int
	isQuoting     bool
	approval      ApprovalStatus
	txStatus      TxStatus
	pending       *PendingTx
	lastFailure   *chain.Failure
	quoteGen      uint64
	debounceTimer *time.Timer

	nativeBalance *big.Int
	tokenBalance  *big.Int
	price         *big.Int
	liquidity     *big.Int

	onChange func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce overrides the quote debounce window.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) { o.debounce = d }
}

// WithOnChange registers a listener invoked (own goroutine-safe copy) after
// every state change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// New creates an idle buy-direction session for token.
func New(reader Reader, writer Writer, tracker Confirmer, wallet, token common.Address, log zerolog.Logger, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		reader:    reader,
		writer:    writer,
		tracker:   tracker,
		wallet:    wallet,
		token:     token,
		debounce:  DefaultQuoteDebounce,
		log:       log.With().Str("component", "trade").Str("token", token.Hex()).Logger(),
		direction: Buy,
		approval:  ApprovalUnknown,
		txStatus:  TxIdle,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close tears the session down: pending debounce timers and confirmation
// polls stop cleanly.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
		o.debounceTimer = nil
	}
	o.quoteGen++ // orphan any in-flight quote
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		Direction:      o.direction,
		FromRaw:        o.fromRaw,
		FromAmount:     o.fromAmount,
		QuotedToAmount: o.quoted,
		IsQuoting:      o.isQuoting,
		Approval:       o.approval,
		TxStatus:       o.txStatus,
		Pending:        o.pending,
		LastFailure:    o.lastFailure,
		NativeBalance:  o.nativeBalance,
		TokenBalance:   o.tokenBalance,
		Price:          o.price,
		Liquidity:      o.liquidity,
	}
}

func (o *Orchestrator) notifyLocked() {
	if o.onChange != nil {
		snap := o.snapshotLocked()
		go o.onChange(snap)
	}
}

// SetDirection swaps which asset is spent and clears both amounts. Balances
// are untouched; they are refreshed independently.
func (o *Orchestrator) SetDirection(d Direction) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if d != Buy && d != Sell {
		return
	}
	o.direction = d
	o.clearAmountsLocked()
	o.notifyLocked()
}

func (o *Orchestrator) clearAmountsLocked() {
	o.fromRaw = ""
	o.fromAmount = nil
	o.quoted = nil
	o.isQuoting = false
	o.quoteGen++
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
		o.debounceTimer = nil
	}
}

// SetFromAmount stores raw input and arms a debounced quote request. Empty or
// malformed input clears the quote immediately without waiting for the
// debounce window.
func (o *Orchestrator) SetFromAmount(raw string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.fromRaw = raw
	o.quoteGen++
	gen := o.quoteGen
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
		o.debounceTimer = nil
	}

	parsed, err := amount.ParseDecimal(raw)
	if err != nil || parsed.Sign() == 0 {
		o.fromAmount = nil
		if err == nil {
			o.fromAmount = parsed // explicit zero
		}
		o.quoted = nil
		o.isQuoting = false
		o.notifyLocked()
		return
	}

	o.fromAmount = parsed
	o.quoted = nil
	o.isQuoting = true
	o.debounceTimer = time.AfterFunc(o.debounce, func() {
		o.requestQuote(gen)
	})
	o.notifyLocked()
}

// requestQuote reads the curve calculation for the amount captured at gen.
// Only the most recent request's result is applied: if newer input has
// superseded gen the response is discarded, even if it arrives last.
func (o *Orchestrator) requestQuote(gen uint64) {
	o.mu.Lock()
	if gen != o.quoteGen || o.fromAmount == nil {
		o.mu.Unlock()
		return
	}
	direction := o.direction
	from := new(big.Int).Set(o.fromAmount)
	o.mu.Unlock()

	var quoted *big.Int
	var err error
	if direction == Sell {
		quoted, err = o.reader.CalculateSellReturn(o.ctx, o.token, from)
	} else {
		quoted, err = o.reader.CalculateBuyReturn(o.ctx, o.token, from)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.quoteGen {
		return // superseded while we were on the wire
	}
	o.isQuoting = false
	if err != nil {
		// recoverable: the next input change retries
		o.quoted = nil
		o.log.Warn().Err(err).Msg("quote request failed")
	} else {
		o.quoted = quoted
	}
	o.notifyLocked()
}

// CheckApproval reads the wallet's allowance for the active token. Any
// nonzero allowance counts as approved; the check is not amount-specific.
func (o *Orchestrator) CheckApproval(ctx context.Context) error {
	allowance, err := o.reader.Allowance(ctx, o.token, o.wallet)
	if err != nil {
		return fmt.Errorf("failed to read allowance: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if allowance != nil && allowance.Sign() > 0 {
		o.approval = ApprovalApproved
	} else {
		o.approval = ApprovalNotApproved
	}
	o.notifyLocked()
	return nil
}

// Refresh re-reads balances, price and curve liquidity.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	native, err := o.reader.NativeBalance(ctx, o.wallet)
	if err != nil {
		return fmt.Errorf("failed to refresh native balance: %w", err)
	}
	tokenBal, err := o.reader.TokenBalance(ctx, o.token, o.wallet)
	if err != nil {
		return fmt.Errorf("failed to refresh token balance: %w", err)
	}
	price, err := o.reader.CurrentTokenPrice(ctx, o.token)
	if err != nil {
		return fmt.Errorf("failed to refresh price: %w", err)
	}
	state, err := o.reader.TokenState(ctx, o.token)
	if err != nil {
		return fmt.Errorf("failed to refresh token state: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.nativeBalance = native
	o.tokenBalance = tokenBal
	o.price = price
	o.liquidity = state.EthBalance
	o.notifyLocked()
	return nil
}

// Submit performs the session's pending action. For a sell without approval
// it submits the one-time unlimited approve instead of the sell; the sell is
// a subsequent user action once the approval confirms. Exactly one
// transaction may be in flight per session.
func (o *Orchestrator) Submit(ctx context.Context) (common.Hash, error) {
	o.mu.Lock()
	if o.txStatus == TxAwaitingSignature || o.txStatus == TxAwaitingConfirmation {
		o.mu.Unlock()
		return common.Hash{}, fmt.Errorf("a transaction is already in flight")
	}
	if o.fromAmount == nil || o.fromAmount.Sign() == 0 {
		o.mu.Unlock()
		return common.Hash{}, fmt.Errorf("amount is required")
	}
	direction := o.direction
	approval := o.approval
	from := new(big.Int).Set(o.fromAmount)
	o.txStatus = TxAwaitingSignature
	o.lastFailure = nil
	o.notifyLocked()
	o.mu.Unlock()

	var hash common.Hash
	var err error
	switch {
	case direction == Sell && approval != ApprovalApproved:
		hash, err = o.writer.ApproveUnlimited(ctx, o.token)
	case direction == Sell:
		hash, err = o.writer.SellTokens(ctx, o.token, from)
	default:
		hash, err = o.writer.BuyTokens(ctx, o.token, from)
	}

	o.mu.Lock()
	if err != nil {
		failure := chain.Classify(err)
		o.txStatus = TxFailed
		o.lastFailure = failure
		o.notifyLocked()
		o.mu.Unlock()
		if failure.Kind == chain.FailureCancelled {
			o.log.Info().Msg("signature request cancelled")
		} else {
			o.log.Warn().Err(err).Msg("transaction submission failed")
		}
		return common.Hash{}, failure
	}

	o.pending = &PendingTx{Hash: hash, SubmittedAt: time.Now()}
	o.txStatus = TxAwaitingConfirmation
	o.notifyLocked()
	o.mu.Unlock()

	o.wg.Add(1)
	go o.awaitConfirmation(hash)
	return hash, nil
}

// awaitConfirmation resolves the pending transaction and settles the session
// back to idle.
func (o *Orchestrator) awaitConfirmation(hash common.Hash) {
	defer o.wg.Done()

	_, err := o.tracker.Track(o.ctx, hash)

	if err != nil {
		failure := chain.Classify(err)
		o.mu.Lock()
		o.pending = nil
		o.txStatus = TxFailed
		o.lastFailure = failure
		o.notifyLocked()
		o.mu.Unlock()
		o.log.Warn().Str("tx", hash.Hex()).Str("kind", string(failure.Kind)).Msg("transaction failed")
		return
	}

	// The confirmation may have been the approval itself, so re-check before
	// reporting state. Refresh failures are non-fatal: balances catch up on
	// the next poll.
	if err := o.CheckApproval(o.ctx); err != nil {
		o.log.Warn().Err(err).Msg("post-confirmation approval check failed")
	}
	if err := o.Refresh(o.ctx); err != nil {
		o.log.Warn().Err(err).Msg("post-confirmation refresh failed")
	}

	o.mu.Lock()
	o.pending = nil
	o.txStatus = TxIdle
	o.clearAmountsLocked()
	o.notifyLocked()
	o.mu.Unlock()
	o.log.Info().Str("tx", hash.Hex()).Msg("transaction confirmed")
}

// Reset clears a failed state back to idle on the next user interaction.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.txStatus == TxFailed {
		o.txStatus = TxIdle
		o.lastFailure = nil
		o.notifyLocked()
	}
}

// Wait blocks until any in-flight confirmation goroutine finishes. Mostly a
// CLI and test convenience.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
