// Package chain wraps the on-chain surface of the launchpad: read-only quote
// and state queries against the manager contract, mutating buy/sell/create/
// approve calls, and receipt tracking for submitted transactions.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const managerABIJSON = `[
{"inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"}],"name":"createToken","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"name":"token","type":"address"}],"name":"buyTokens","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"name":"sellTokens","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"token","type":"address"},{"name":"ethAmount","type":"uint256"}],"name":"calculateCurvedBuyReturn","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"token","type":"address"},{"name":"tokenAmount","type":"uint256"}],"name":"calculateCurvedSellReturn","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"token","type":"address"}],"name":"getCurrentTokenPrice","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"","type":"address"}],"name":"tokens","outputs":[{"name":"token","type":"address"},{"name":"isListed","type":"bool"},{"name":"ethBalance","type":"uint256"}],"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"creator","type":"address"},{"indexed":true,"name":"token","type":"address"}],"name":"TokenCreated","type":"event"}
]`

const erc20ABIJSON = `[
{"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	managerABI = mustABI(managerABIJSON)
	erc20ABI   = mustABI(erc20ABIJSON)

	// unlimitedAllowance is 2^256-1: one approval unlocks all future sells.
	unlimitedAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded ABI: %v", err))
	}
	return parsed
}

// TokenState mirrors the manager contract's per-token record.
type TokenState struct {
	Token      common.Address
	IsListed   bool
	EthBalance *big.Int
}

// Client handles on-chain operations against the manager contract and the
// ERC20 tokens it launches.
type Client struct {
	eth     *ethclient.Client
	manager common.Address
	chainID *big.Int
	signer  Signer
	log     zerolog.Logger
}

// Dial connects to an RPC endpoint. The signer may be nil for read-only use.
func Dial(rpcEndpoint, managerAddress string, chainID *big.Int, signer Signer, log zerolog.Logger) (*Client, error) {
	eth, err := ethclient.Dial(rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	return &Client{
		eth:     eth,
		manager: common.HexToAddress(managerAddress),
		chainID: chainID,
		signer:  signer,
		log:     log.With().Str("component", "chain").Logger(),
	}, nil
}

// Close closes the underlying RPC connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// ManagerAddress returns the manager contract address.
func (c *Client) ManagerAddress() common.Address { return c.manager }

// Signer returns the configured signer, or nil for read-only clients.
func (c *Client) Signer() Signer { return c.signer }

// callManager packs, executes and unpacks a single manager view call.
func (c *Client) callManager(ctx context.Context, method string, out interface{}, args ...interface{}) error {
	data, err := managerABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &c.manager,
		Data: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	if err := managerABI.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

// CalculateBuyReturn quotes how many tokens a native-coin amount buys.
func (c *Client) CalculateBuyReturn(ctx context.Context, token common.Address, ethAmount *big.Int) (*big.Int, error) {
	var out *big.Int
	if err := c.callManager(ctx, "calculateCurvedBuyReturn", &out, token, ethAmount); err != nil {
		return nil, err
	}
	return out, nil
}

// CalculateSellReturn quotes how much native coin a token amount sells for.
func (c *Client) CalculateSellReturn(ctx context.Context, token common.Address, tokenAmount *big.Int) (*big.Int, error) {
	var out *big.Int
	if err := c.callManager(ctx, "calculateCurvedSellReturn", &out, token, tokenAmount); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentTokenPrice reads the token's spot price on the curve.
func (c *Client) CurrentTokenPrice(ctx context.Context, token common.Address) (*big.Int, error) {
	var out *big.Int
	if err := c.callManager(ctx, "getCurrentTokenPrice", &out, token); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenState reads the manager's record for a launched token, including its
// collected curve liquidity.
func (c *Client) TokenState(ctx context.Context, token common.Address) (*TokenState, error) {
	var out TokenState
	if err := c.callManager(ctx, "tokens", &out, token); err != nil {
		return nil, err
	}
	return &out, nil
}

// Allowance reads the ERC20 allowance the owner granted the manager.
func (c *Client) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, c.manager)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance call: %w", err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}

	var out *big.Int
	if err := erc20ABI.UnpackIntoInterface(&out, "allowance", result); err != nil {
		return nil, fmt.Errorf("failed to unpack allowance result: %w", err)
	}
	return out, nil
}

// TokenBalance reads an ERC20 balance.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	var out *big.Int
	if err := erc20ABI.UnpackIntoInterface(&out, "balanceOf", result); err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	return out, nil
}

// NativeBalance reads the wallet's native-coin balance.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	return balance, nil
}

// TransactionReceipt fetches the receipt for a transaction hash.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.eth.TransactionReceipt(ctx, txHash)
}

// submit builds, signs and broadcasts a transaction, returning its hash.
// Gas is estimated up front, which also rejects calls that would revert.
func (c *Client) submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	if c.signer == nil {
		return common.Hash{}, fmt.Errorf("no signer configured")
	}
	from := c.signer.Address()

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	estimatedGas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("transaction would revert: %w", err)
	}
	gasLimit := estimatedGas * 120 / 100 // 20% safety margin

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	signedTx, err := c.signer.SignTx(tx, c.chainID)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signedTx.Hash()
	c.log.Debug().Str("tx", hash.Hex()).Str("to", to.Hex()).Msg("transaction submitted")
	return hash, nil
}

// BuyTokens buys token with value native coin sent along the call.
func (c *Client) BuyTokens(ctx context.Context, token common.Address, value *big.Int) (common.Hash, error) {
	data, err := managerABI.Pack("buyTokens", token)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack buyTokens call: %w", err)
	}
	return c.submit(ctx, c.manager, value, data)
}

// SellTokens sells amount of token back to the curve.
func (c *Client) SellTokens(ctx context.Context, token common.Address, tokenAmount *big.Int) (common.Hash, error) {
	data, err := managerABI.Pack("sellTokens", token, tokenAmount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack sellTokens call: %w", err)
	}
	return c.submit(ctx, c.manager, big.NewInt(0), data)
}

// ApproveUnlimited grants the manager an unlimited allowance on token, so a
// single approval covers all future sells.
func (c *Client) ApproveUnlimited(ctx context.Context, token common.Address) (common.Hash, error) {
	data, err := erc20ABI.Pack("approve", c.manager, unlimitedAllowance)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve call: %w", err)
	}
	return c.submit(ctx, token, big.NewInt(0), data)
}

// CreateToken launches a new token. The value must cover the fixed creation
// fee; anything above it is an initial purchase, capped contract-side with
// the excess refunded.
func (c *Client) CreateToken(ctx context.Context, name, symbol string, value *big.Int) (common.Hash, error) {
	data, err := managerABI.Pack("createToken", name, symbol)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack createToken call: %w", err)
	}
	return c.submit(ctx, c.manager, value, data)
}

// TokenCreatedTopic returns the TokenCreated event's topic hash.
func TokenCreatedTopic() common.Hash {
	return managerABI.Events["TokenCreated"].ID
}

// TokenCreatedFromReceipt extracts the new token address from the manager's
// TokenCreated log in a confirmed receipt.
func TokenCreatedFromReceipt(receipt *types.Receipt, manager common.Address) (common.Address, error) {
	sig := managerABI.Events["TokenCreated"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != manager {
			continue
		}
		if len(lg.Topics) >= 3 && lg.Topics[0] == sig {
			// token is the second indexed parameter
			return common.BytesToAddress(lg.Topics[2].Bytes()), nil
		}
	}
	return common.Address{}, fmt.Errorf("TokenCreated event not found in receipt")
}
