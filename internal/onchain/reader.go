// Package onchain wraps go-ethereum's ethclient behind the narrow
// executor.OnChainReader/WalletAccount interfaces: ERC-20 balance reads for
// pre-flight sizing and fill verification, and CTF contract reads/writes for
// resolution detection and redemption. Grounded on the teacher's use of
// go-ethereum in internal/exchange/auth.go (EIP-712 signing, common.Address)
// and on mselser95-polymarket-arb's cmd/redeem_positions.go for the CTF ABI
// call shapes.
package onchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

const ctfABI = `[
	{"constant":true,"inputs":[{"name":"conditionId","type":"bytes32"}],"name":"payoutDenominator","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"collateralToken","type":"address"},{"name":"parentCollectionId","type":"bytes32"},{"name":"conditionId","type":"bytes32"},{"name":"indexSets","type":"uint256[]"}],"name":"redeemPositions","outputs":[],"type":"function"}
]`

// decimalsUSDT is the ERC-20 decimals used by the stablecoin collateral on
// the chains this agent trades on (USDT/USDC both use 6 on Polygon).
const decimalsUSDT = 6

// Reader implements executor.OnChainReader over a JSON-RPC endpoint.
type Reader struct {
	client            *ethclient.Client
	ctfAddress        common.Address
	collateralAddress common.Address
	erc20Parsed       abi.ABI
	ctfParsed         abi.ABI
}

// NewReader dials rpcURL and prepares the ABIs used for balance and
// resolution reads.
func NewReader(ctx context.Context, rpcURL, ctfAddressHex, collateralAddressHex string) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	ctfParsed, err := abi.JSON(strings.NewReader(ctfABI))
	if err != nil {
		return nil, fmt.Errorf("parse ctf abi: %w", err)
	}
	return &Reader{
		client:            client,
		ctfAddress:        common.HexToAddress(ctfAddressHex),
		collateralAddress: common.HexToAddress(collateralAddressHex),
		erc20Parsed:       erc20Parsed,
		ctfParsed:         ctfParsed,
	}, nil
}

// ReadBalance returns tokenAddress's ERC-20 balance for owner, scaled down
// from wei to a human-readable float. An empty tokenAddress defaults to the
// configured collateral token, which is what every current call site passes.
func (r *Reader) ReadBalance(ctx context.Context, tokenAddress, owner string) (float64, error) {
	if tokenAddress == "" {
		tokenAddress = r.collateralAddress.Hex()
	}
	data, err := r.erc20Parsed.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := r.call(ctx, common.HexToAddress(tokenAddress), data)
	if err != nil {
		return 0, err
	}
	var balance *big.Int
	if err := r.erc20Parsed.UnpackIntoInterface(&balance, "balanceOf", out); err != nil {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return weiToFloat(balance, decimalsUSDT), nil
}

// PayoutDenominator returns the CTF contract's payoutDenominator for a
// condition; zero means the market has not resolved yet.
func (r *Reader) PayoutDenominator(ctx context.Context, conditionID string) (uint64, error) {
	data, err := r.ctfParsed.Pack("payoutDenominator", common.HexToHash(conditionID))
	if err != nil {
		return 0, fmt.Errorf("pack payoutDenominator: %w", err)
	}
	out, err := r.call(ctx, r.ctfAddress, data)
	if err != nil {
		return 0, err
	}
	var denom *big.Int
	if err := r.ctfParsed.UnpackIntoInterface(&denom, "payoutDenominator", out); err != nil {
		return 0, fmt.Errorf("unpack payoutDenominator: %w", err)
	}
	return denom.Uint64(), nil
}

// CTFBalance returns the ERC-1155-shaped CTF outcome-token balance held by
// owner for the given token ID.
func (r *Reader) CTFBalance(ctx context.Context, owner, tokenID string) (float64, error) {
	id, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return 0, fmt.Errorf("invalid ctf token id %q", tokenID)
	}
	data, err := r.ctfParsed.Pack("balanceOf", common.HexToAddress(owner), id)
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := r.call(ctx, r.ctfAddress, data)
	if err != nil {
		return 0, err
	}
	var balance *big.Int
	if err := r.ctfParsed.UnpackIntoInterface(&balance, "balanceOf", out); err != nil {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return weiToFloat(balance, 0), nil // CTF outcome tokens are whole shares, 0 decimals of scaling here
}

func (r *Reader) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	out, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	return out, nil
}

func weiToFloat(v *big.Int, decimals int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	scale := new(big.Float).SetFloat64(pow10(decimals))
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

func pow10(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
