// Package launch sequences a token launch end to end: image upload, the
// on-chain create transaction with its fee, confirmation and event decode,
// and the off-chain metadata update. There is no server-side resumability;
// callers must warn before navigating away while a job is busy.
package launch

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

// Step is the creation pipeline's position.
type Step string

const (
	StepIdle                 Step = "idle"
	StepUploadingImage       Step = "uploading_image"
	StepSubmittingCreateTx   Step = "submitting_create_tx"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
	StepUpdatingMetadata     Step = "updating_metadata"
	StepCompleted            Step = "completed"
	StepFailed               Step = "failed"
)

// DefaultSettleDelay is the pause before the metadata update, giving the
// backend indexer time to observe the creation event first. Best effort: the
// update may still race the indexer and is retryable via the standalone
// update-token path.
const DefaultSettleDelay = 4 * time.Second

// FailureClass distinguishes launch outcomes that need different messaging.
type FailureClass string

const (
	// ClassCancelled: the signature request was rejected. Nothing happened.
	ClassCancelled FailureClass = "cancelled"
	// ClassNotCreated: the creation definitively did not happen (rejected
	// before broadcast, or mined and reverted).
	ClassNotCreated FailureClass = "not_created"
	// ClassMaybeCreated: the wait timed out. The token may exist on-chain
	// with its address unknown to us; the user should check their holdings
	// before resubmitting.
	ClassMaybeCreated FailureClass = "maybe_created"
	// ClassMetadataPending: the token is live and tradable, but the metadata
	// update failed. Retryable later via the update-token path.
	ClassMetadataPending FailureClass = "metadata_pending"
	// ClassUpload: the image upload failed before anything on-chain. The job
	// returns to idle with nothing retained.
	ClassUpload FailureClass = "upload"
)

// Failure is a classified launch error.
type Failure struct {
	Class FailureClass
	Token common.Address // set for metadata_pending
	Tx    common.Hash    // set once a transaction was broadcast
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("launch %s: %v", f.Class, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message is the user-facing remediation text for this failure.
func (f *Failure) Message() string {
	switch f.Class {
	case ClassCancelled:
		return "Transaction cancelled. You can try again."
	case ClassNotCreated:
		return "Token creation failed. Nothing was created; you can try again."
	case ClassMaybeCreated:
		return "Confirmation timed out. The token may still have been created on-chain — check your holdings before trying again."
	case ClassMetadataPending:
		return "Token created, but the info update failed. Your token is live; retry the update later."
	case ClassUpload:
		return "Image upload failed. Please try again."
	default:
		return "Token creation failed."
	}
}

// TokenWriter is the create-token chain surface; *chain.Client satisfies it.
type TokenWriter interface {
	CreateToken(ctx context.Context, name, symbol string, value *big.Int) (common.Hash, error)
	ManagerAddress() common.Address
}

// Confirmer resolves a submitted hash; *chain.Tracker satisfies it.
type Confirmer interface {
	Track(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Backend is the off-chain surface; *api.Client satisfies it.
type Backend interface {
	UploadImage(ctx context.Context, filename string, content []byte) (string, error)
	UpdateTokenMetadata(ctx context.Context, address string, update *api.MetadataUpdate) error
}

// Request describes the token to launch.
type Request struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string

	ImageName string
	Image     []byte // optional; capped at api.MaxImageSize

	// InitialBuy is an optional purchase sent with the creation, on top of
	// the fee. The contract caps it (about 5% of trading supply) and refunds
	// the excess; the client informs, never re-validates.
	InitialBuy *big.Int
}

// Result is a completed launch.
type Result struct {
	Token    common.Address
	Tx       common.Hash
	ImageURL string
}

// Creator runs launch jobs. One job at a time per instance.
type Creator struct {
	writer      TokenWriter
	tracker     Confirmer
	backend     Backend
	creationFee *big.Int
	settleDelay time.Duration
	log         zerolog.Logger

	mu   sync.Mutex
	step Step
}

// Option configures a Creator.
type Option func(*Creator)

// WithSettleDelay overrides the pre-metadata settling pause.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Creator) { c.settleDelay = d }
}

// NewCreator builds a launch pipeline. creationFee is the fixed fee in base
// units the create transaction must carry.
func NewCreator(writer TokenWriter, tracker Confirmer, backend Backend, creationFee *big.Int, log zerolog.Logger, opts ...Option) *Creator {
	c := &Creator{
		writer:      writer,
		tracker:     tracker,
		backend:     backend,
		creationFee: creationFee,
		settleDelay: DefaultSettleDelay,
		log:         log.With().Str("component", "launch").Logger(),
		step:        StepIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step returns the pipeline's current position.
func (c *Creator) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Busy reports whether navigating away would abandon an irreversible
// in-flight step.
func (c *Creator) Busy() bool {
	switch c.Step() {
	case StepSubmittingCreateTx, StepAwaitingConfirmation, StepUpdatingMetadata:
		return true
	default:
		return false
	}
}

func (c *Creator) setStep(s Step) {
	c.mu.Lock()
	c.step = s
	c.mu.Unlock()
}

// Create runs the full pipeline. Errors are always *Failure with a class the
// caller can message on; the job never resumes from a crash.
func (c *Creator) Create(ctx context.Context, req Request) (*Result, error) {
	if req.Name == "" || req.Symbol == "" {
		return nil, &Failure{Class: ClassNotCreated, Err: fmt.Errorf("name and symbol are required")}
	}

	// Step 1: image upload. Any failure here, including the size cap,
	// returns the job to idle with nothing retained and nothing on-chain.
	var imageURL string
	if len(req.Image) > 0 {
		c.setStep(StepUploadingImage)
		url, err := c.backend.UploadImage(ctx, req.ImageName, req.Image)
		if err != nil {
			c.setStep(StepIdle)
			c.log.Warn().Err(err).Msg("image upload failed")
			return nil, &Failure{Class: ClassUpload, Err: err}
		}
		imageURL = url
	}

	// Step 2: the create transaction, fee plus optional initial buy.
	c.setStep(StepSubmittingCreateTx)
	value := new(big.Int).Set(c.creationFee)
	if req.InitialBuy != nil && req.InitialBuy.Sign() > 0 {
		value.Add(value, req.InitialBuy)
	}

	txHash, err := c.writer.CreateToken(ctx, req.Name, req.Symbol, value)
	if err != nil {
		c.setStep(StepFailed)
		if chain.Classify(err).Kind == chain.FailureCancelled {
			return nil, &Failure{Class: ClassCancelled, Err: err}
		}
		return nil, &Failure{Class: ClassNotCreated, Err: err}
	}
	c.log.Info().Str("tx", txHash.Hex()).Str("symbol", req.Symbol).Msg("create transaction submitted")

	// Step 3: confirmation and event decode. A timeout is ambiguous: the
	// creation may have landed after we stopped waiting.
	c.setStep(StepAwaitingConfirmation)
	receipt, err := c.tracker.Track(ctx, txHash)
	if err != nil {
		c.setStep(StepFailed)
		switch chain.Classify(err).Kind {
		case chain.FailureReverted:
			return nil, &Failure{Class: ClassNotCreated, Tx: txHash, Err: err}
		default:
			return nil, &Failure{Class: ClassMaybeCreated, Tx: txHash, Err: err}
		}
	}

	tokenAddr, err := chain.TokenCreatedFromReceipt(receipt, c.writer.ManagerAddress())
	if err != nil {
		// confirmed on-chain but the address could not be recovered
		c.setStep(StepFailed)
		return nil, &Failure{Class: ClassMaybeCreated, Tx: txHash, Err: err}
	}
	c.log.Info().Str("token", tokenAddr.Hex()).Msg("token created")

	// Step 4: settle, then push the off-chain metadata. The token is already
	// live; from here on failure only degrades its catalog entry.
	if err := c.settle(ctx); err != nil {
		c.setStep(StepFailed)
		return nil, &Failure{Class: ClassMetadataPending, Token: tokenAddr, Tx: txHash, Err: err}
	}

	c.setStep(StepUpdatingMetadata)
	update := &api.MetadataUpdate{
		Description: req.Description,
		ImageURL:    imageURL,
		Twitter:     req.Twitter,
		Telegram:    req.Telegram,
		Website:     req.Website,
	}
	if err := c.backend.UpdateTokenMetadata(ctx, tokenAddr.Hex(), update); err != nil {
		c.setStep(StepFailed)
		c.log.Warn().Err(err).Str("token", tokenAddr.Hex()).Msg("metadata update failed, token is live")
		return nil, &Failure{Class: ClassMetadataPending, Token: tokenAddr, Tx: txHash, Err: err}
	}

	c.setStep(StepCompleted)
	return &Result{Token: tokenAddr, Tx: txHash, ImageURL: imageURL}, nil
}

// settle pauses for the indexer, respecting cancellation.
func (c *Creator) settle(ctx context.Context) error {
	if c.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
