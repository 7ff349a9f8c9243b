package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// EthClient wraps the JSON-RPC client for balance/nonce reads, ERC-20
// transfers and withdrawal-authorization signatures
type EthClient struct {
	client       *ethclient.Client
	chainID      *big.Int
	tokenAddress common.Address
	tokenABI     abi.ABI
	signerKey    *ecdsa.PrivateKey
}

// NewEthClient connects to the chain RPC endpoint. The signer key is optional;
// without it transfer and signature operations return an error.
func NewEthClient(rpcURL string, chainID int64, tokenAddress, signerKeyHex string) (*EthClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	var key *ecdsa.PrivateKey
	if signerKeyHex != "" {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(signerKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid signer private key: %w", err)
		}
	}

	return &EthClient{
		client:       client,
		chainID:      big.NewInt(chainID),
		tokenAddress: common.HexToAddress(tokenAddress),
		tokenABI:     parsedABI,
		signerKey:    key,
	}, nil
}

// ValidateAddress reports whether addr is a well-formed hex address
func ValidateAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

// GetNonce returns the wallet's next pending transaction nonce
func (c *EthClient) GetNonce(ctx context.Context, wallet string) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, common.HexToAddress(wallet))
	if err != nil {
		return 0, fmt.Errorf("failed to read nonce: %w", err)
	}
	return nonce, nil
}

// GetTokenBalance reads the wallet's ERC-20 balance in raw units
func (c *EthClient) GetTokenBalance(ctx context.Context, wallet string) (*big.Int, error) {
	data, err := c.tokenABI.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.tokenAddress,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	balance := new(big.Int)
	if err := c.tokenABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	return balance, nil
}

// TransferToken sends an ERC-20 transfer from the server wallet and returns
// the transaction hash
func (c *EthClient) TransferToken(ctx context.Context, to string, amount *big.Int) (string, error) {
	if c.signerKey == nil {
		return "", fmt.Errorf("no signer key configured")
	}

	from := crypto.PubkeyToAddress(c.signerKey.PublicKey)

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read gas price: %w", err)
	}

	data, err := c.tokenABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(nonce, c.tokenAddress, big.NewInt(0), 100000, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.signerKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// SignWithdrawAuthorization signs a payout authorization over the wallet, its
// chain nonce and the requested token addresses/amounts. The contract checks
// the same digest on-chain before releasing funds.
func (c *EthClient) SignWithdrawAuthorization(wallet string, nonce uint64, tokens []string, amounts []*big.Int) (string, error) {
	if c.signerKey == nil {
		return "", fmt.Errorf("no signer key configured")
	}
	if len(tokens) != len(amounts) {
		return "", fmt.Errorf("token/amount length mismatch: %d vs %d", len(tokens), len(amounts))
	}

	packed := common.HexToAddress(wallet).Bytes()
	packed = append(packed, common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32)...)
	for i, token := range tokens {
		packed = append(packed, common.HexToAddress(token).Bytes()...)
		packed = append(packed, common.LeftPadBytes(amounts[i].Bytes(), 32)...)
	}

	digest := crypto.Keccak256(packed)
	prefixed := crypto.Keccak256(
		[]byte("\x19Ethereum Signed Message:\n32"),
		digest,
	)

	sig, err := crypto.Sign(prefixed, c.signerKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign authorization: %w", err)
	}

	// Shift v to 27/28 as expected by ecrecover
	sig[64] += 27

	return hexutil.Encode(sig), nil
}
