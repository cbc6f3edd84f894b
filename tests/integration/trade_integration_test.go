// Live integration tests against a real RPC endpoint and backend. They are
// skipped unless the TEST_* environment variables below are set, and they
// spend real funds when pointed at a mainnet deployment.
//
//	TEST_RPC_ENDPOINT    - blockchain RPC endpoint
//	TEST_MANAGER_ADDRESS - manager contract address
//	TEST_PRIVATE_KEY     - wallet private key (hex)
//	TEST_BACKEND_URL     - platform API URL
//	TEST_TOKEN_ADDRESS   - an existing curve token to read against
//	TEST_CHAIN_ID        - chain id (default 8453)
package integration

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
	"github.com/curvelaunch/launchpad-go/pkg/trade"
)

var (
	testRPCEndpoint  = os.Getenv("TEST_RPC_ENDPOINT")
	testManagerAddr  = os.Getenv("TEST_MANAGER_ADDRESS")
	testPrivateKey   = os.Getenv("TEST_PRIVATE_KEY")
	testBackendURL   = os.Getenv("TEST_BACKEND_URL")
	testTokenAddress = os.Getenv("TEST_TOKEN_ADDRESS")
	testChainID      = envOrDefault("TEST_CHAIN_ID", "8453")
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func testClient(t *testing.T) *chain.Client {
	t.Helper()
	if testRPCEndpoint == "" || testManagerAddr == "" || testPrivateKey == "" {
		t.Skip("TEST_RPC_ENDPOINT, TEST_MANAGER_ADDRESS and TEST_PRIVATE_KEY are required")
	}
	signer, err := chain.NewPrivateKeySigner(testPrivateKey)
	if err != nil {
		t.Fatalf("bad TEST_PRIVATE_KEY: %v", err)
	}
	chainID, ok := new(big.Int).SetString(testChainID, 10)
	if !ok {
		t.Fatalf("bad TEST_CHAIN_ID: %s", testChainID)
	}
	client, err := chain.Dial(testRPCEndpoint, testManagerAddr, chainID, signer, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestCurveReads(t *testing.T) {
	if testTokenAddress == "" {
		t.Skip("TEST_TOKEN_ADDRESS is required")
	}
	client := testClient(t)
	token := common.HexToAddress(testTokenAddress)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	price, err := client.CurrentTokenPrice(ctx, token)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.Sign() < 0 {
		t.Fatalf("negative price: %s", price)
	}

	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	out, err := client.CalculateBuyReturn(ctx, token, oneEth)
	if err != nil {
		t.Fatalf("buy return: %v", err)
	}
	if out.Sign() <= 0 {
		t.Fatalf("expected positive buy return, got %s", out)
	}

	state, err := client.TokenState(ctx, token)
	if err != nil {
		t.Fatalf("token state: %v", err)
	}
	if state.Token != token {
		t.Fatalf("state token mismatch: %s", state.Token.Hex())
	}
}

func TestQuoteLifecycle(t *testing.T) {
	if testTokenAddress == "" {
		t.Skip("TEST_TOKEN_ADDRESS is required")
	}
	client := testClient(t)
	token := common.HexToAddress(testTokenAddress)

	tracker := chain.NewTracker(client, 30, 3*time.Second, zerolog.Nop())
	orch := trade.New(client, client, tracker, client.Signer().Address(), token, zerolog.Nop(),
		trade.WithDebounce(50*time.Millisecond))
	defer orch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := orch.CheckApproval(ctx); err != nil {
		t.Fatalf("check approval: %v", err)
	}
	if err := orch.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	orch.SetFromAmount("0.01")
	deadline := time.Now().Add(15 * time.Second)
	for {
		snap := orch.Snapshot()
		if snap.QuotedToAmount != nil && !snap.IsQuoting {
			if snap.QuotedToAmount.Sign() <= 0 {
				t.Fatalf("expected positive quote, got %s", snap.QuotedToAmount)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("quote never resolved")
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestBackendCatalog(t *testing.T) {
	if testBackendURL == "" {
		t.Skip("TEST_BACKEND_URL is required")
	}
	client := api.NewClient(testBackendURL, os.Getenv("TEST_EXPLORER_URL"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := client.ListTokens(ctx, api.ListParams{Page: 1, Limit: 5})
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if page.Page != 1 {
		t.Fatalf("expected page 1, got %d", page.Page)
	}
	for _, tok := range page.Tokens {
		if tok.Address == "" {
			t.Fatal("token with empty address in catalog")
		}
	}
}
