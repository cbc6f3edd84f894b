package launch

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

var (
	managerAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	newTokenAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeWriter struct {
	createCalls int
	gotValue    *big.Int
	err         error
}

func (w *fakeWriter) CreateToken(ctx context.Context, name, symbol string, value *big.Int) (common.Hash, error) {
	w.createCalls++
	w.gotValue = new(big.Int).Set(value)
	if w.err != nil {
		return common.Hash{}, w.err
	}
	return common.Hash{0xAA}, nil
}

func (w *fakeWriter) ManagerAddress() common.Address { return managerAddr }

type fakeConfirmer struct {
	err     error
	receipt *types.Receipt
}

func createdReceipt() *types.Receipt {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{{
			Address: managerAddr,
			Topics: []common.Hash{
				chain.TokenCreatedTopic(),
				common.BytesToHash(common.HexToAddress("0x2222222222222222222222222222222222222222").Bytes()),
				common.BytesToHash(newTokenAddr.Bytes()),
			},
		}},
	}
}

func (c *fakeConfirmer) Track(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.receipt != nil {
		return c.receipt, nil
	}
	return createdReceipt(), nil
}

type fakeBackend struct {
	uploadErr   error
	uploadCalls int
	updateErr   error
	updateCalls int
	gotAddress  string
	gotUpdate   *api.MetadataUpdate
}

func (b *fakeBackend) UploadImage(ctx context.Context, filename string, content []byte) (string, error) {
	b.uploadCalls++
	if len(content) > api.MaxImageSize {
		return "", api.ErrImageTooLarge
	}
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	return "https://cdn.example/img", nil
}

func (b *fakeBackend) UpdateTokenMetadata(ctx context.Context, address string, update *api.MetadataUpdate) error {
	b.updateCalls++
	b.gotAddress = address
	b.gotUpdate = update
	return b.updateErr
}

func newCreator(w TokenWriter, t Confirmer, b Backend) *Creator {
	fee := big.NewInt(1e15)
	return NewCreator(w, t, b, fee, zerolog.Nop(), WithSettleDelay(time.Millisecond))
}

func TestCreateHappyPath(t *testing.T) {
	w := &fakeWriter{}
	b := &fakeBackend{}
	c := newCreator(w, &fakeConfirmer{}, b)

	res, err := c.Create(context.Background(), Request{
		Name:        "Dog Coin",
		Symbol:      "DOG",
		Description: "much token",
		ImageName:   "dog.png",
		Image:       []byte("png"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if res.Token != newTokenAddr {
		t.Errorf("token = %s, want %s", res.Token.Hex(), newTokenAddr.Hex())
	}
	if res.ImageURL == "" {
		t.Error("image URL missing from result")
	}
	if c.Step() != StepCompleted {
		t.Errorf("step = %v, want completed", c.Step())
	}
	if b.gotAddress != newTokenAddr.Hex() {
		t.Errorf("metadata patched for %s, want %s", b.gotAddress, newTokenAddr.Hex())
	}
	if b.gotUpdate.Description != "much token" {
		t.Error("metadata body not carried through")
	}
}

func TestCreateValueIsFeePlusInitialBuy(t *testing.T) {
	w := &fakeWriter{}
	c := newCreator(w, &fakeConfirmer{}, &fakeBackend{})

	buy := big.NewInt(5e17)
	_, err := c.Create(context.Background(), Request{Name: "X", Symbol: "X", InitialBuy: buy})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := new(big.Int).Add(big.NewInt(1e15), buy)
	if w.gotValue.Cmp(want) != 0 {
		t.Errorf("tx value = %s, want fee+initialBuy = %s", w.gotValue, want)
	}
}

// An image over the cap fails at upload: the job returns to idle and no
// transaction is ever submitted.
func TestOversizedImageNeverSubmits(t *testing.T) {
	w := &fakeWriter{}
	b := &fakeBackend{}
	c := newCreator(w, &fakeConfirmer{}, b)

	oversized := bytes.Repeat([]byte{0x1}, api.MaxImageSize+200*1024) // ~1.2 MB
	_, err := c.Create(context.Background(), Request{
		Name: "Big", Symbol: "BIG", ImageName: "big.png", Image: oversized,
	})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassUpload {
		t.Fatalf("err = %v, want upload failure", err)
	}
	if c.Step() != StepIdle {
		t.Errorf("step = %v, want idle after upload failure", c.Step())
	}
	if w.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", w.createCalls)
	}
}

func TestUploadFailureReturnsToIdle(t *testing.T) {
	b := &fakeBackend{uploadErr: errors.New("gateway timeout")}
	w := &fakeWriter{}
	c := newCreator(w, &fakeConfirmer{}, b)

	_, err := c.Create(context.Background(), Request{
		Name: "X", Symbol: "X", ImageName: "x.png", Image: []byte("png"),
	})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassUpload {
		t.Fatalf("err = %v, want upload failure", err)
	}
	if c.Step() != StepIdle || w.createCalls != 0 {
		t.Error("upload failure must leave the job idle with nothing on-chain")
	}
}

func TestSignatureRejectionClassifiedCancelled(t *testing.T) {
	w := &fakeWriter{err: chain.ErrSigningRejected}
	c := newCreator(w, &fakeConfirmer{}, &fakeBackend{})

	_, err := c.Create(context.Background(), Request{Name: "X", Symbol: "X"})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassCancelled {
		t.Fatalf("err = %v, want cancelled", err)
	}
}

// A confirmation timeout is ambiguous: the message must say the token may
// exist on-chain, distinct from a definite failure.
func TestTimeoutClassifiedMaybeCreated(t *testing.T) {
	tr := &fakeConfirmer{err: chain.NewFailure(chain.FailureTimeout, chain.ErrReceiptTimeout)}
	c := newCreator(&fakeWriter{}, tr, &fakeBackend{})

	_, err := c.Create(context.Background(), Request{Name: "X", Symbol: "X"})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassMaybeCreated {
		t.Fatalf("err = %v, want maybe_created", err)
	}
	if failure.Tx == (common.Hash{}) {
		t.Error("failure should carry the broadcast tx hash")
	}
}

func TestRevertClassifiedNotCreated(t *testing.T) {
	tr := &fakeConfirmer{err: chain.NewFailure(chain.FailureReverted, chain.ErrTransactionReverted)}
	c := newCreator(&fakeWriter{}, tr, &fakeBackend{})

	_, err := c.Create(context.Background(), Request{Name: "X", Symbol: "X"})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassNotCreated {
		t.Fatalf("err = %v, want not_created", err)
	}
}

// Metadata failure after a confirmed creation is a partial-pipeline outcome:
// the token is live and the failure carries its address for the retry path.
func TestMetadataFailureAfterCreation(t *testing.T) {
	b := &fakeBackend{updateErr: errors.New("indexer lag")}
	c := newCreator(&fakeWriter{}, &fakeConfirmer{}, b)

	_, err := c.Create(context.Background(), Request{Name: "X", Symbol: "X"})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassMetadataPending {
		t.Fatalf("err = %v, want metadata_pending", err)
	}
	if failure.Token != newTokenAddr {
		t.Errorf("failure token = %s, want %s", failure.Token.Hex(), newTokenAddr.Hex())
	}
}

func TestBusy(t *testing.T) {
	c := newCreator(&fakeWriter{}, &fakeConfirmer{}, &fakeBackend{})
	if c.Busy() {
		t.Error("idle creator should not be busy")
	}
	c.setStep(StepAwaitingConfirmation)
	if !c.Busy() {
		t.Error("awaiting confirmation should be busy")
	}
	c.setStep(StepCompleted)
	if c.Busy() {
		t.Error("completed creator should not be busy")
	}
}

func TestFailureMessages(t *testing.T) {
	for class, want := range map[FailureClass]string{
		ClassMaybeCreated:    "check your holdings",
		ClassMetadataPending: "retry the update later",
		ClassCancelled:       "try again",
	} {
		f := &Failure{Class: class, Err: errors.New("x")}
		if !contains(f.Message(), want) {
			t.Errorf("%s message %q should mention %q", class, f.Message(), want)
		}
	}
}

func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}
