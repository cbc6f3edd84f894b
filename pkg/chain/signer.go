package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer authorizes transactions and messages for a wallet. External signer
// implementations (hardware wallets, wallet extensions bridged over RPC) may
// return ErrSigningRejected when the user declines.
type Signer interface {
	// Address returns the wallet address transactions are sent from.
	Address() common.Address
	// SignTx signs a transaction for the given chain.
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	// SignMessage signs data with the Ethereum personal-message prefix.
	SignMessage(data []byte) (string, error)
}

// PrivateKeySigner signs locally with a raw hex private key.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner parses a hex private key (0x prefix optional).
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Address returns the wallet address.
func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignTx signs a transaction with the EIP-155 signer.
func (s *PrivateKeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// SignMessage signs data with the "\x19Ethereum Signed Message" prefix and
// returns a hex signature with the v value adjusted to 27/28.
func (s *PrivateKeySigner) SignMessage(data []byte) (string, error) {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(data))
	hash := crypto.Keccak256([]byte(prefix), data)

	signature, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	signature[64] += 27

	return hexutil.Encode(signature), nil
}
