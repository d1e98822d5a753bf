package onchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Wallet implements executor.WalletAccount: it signs and submits the
// redeemPositions transaction against the CTF contract. Transaction
// construction follows mselser95-polymarket-arb's cmd/redeem_positions.go:
// PendingNonceAt -> SuggestGasPrice -> types.NewTransaction -> SignTx ->
// SendTransaction -> bind.WaitMined.
type Wallet struct {
	client             *ethclient.Client
	privateKey         *ecdsa.PrivateKey
	address            common.Address
	chainID            *big.Int
	ctfAddress         common.Address
	collateralAddress  common.Address
	ctfParsed          abi.ABI
}

// zeroParentCollectionID is the conditional-token framework's root
// collection: redemptions for a simple binary market always use it.
var zeroParentCollectionID = common.Hash{}

// NewWallet builds a Wallet from a hex-encoded private key and the chain's
// RPC client.
func NewWallet(client *ethclient.Client, privateKeyHex string, chainID int64, ctfAddressHex, collateralAddressHex string) (*Wallet, error) {
	keyHex := privateKeyHex
	if len(keyHex) >= 2 && keyHex[:2] == "0x" {
		keyHex = keyHex[2:]
	}
	privateKey, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	ctfParsed, err := abi.JSON(strings.NewReader(ctfABI))
	if err != nil {
		return nil, fmt.Errorf("parse ctf abi: %w", err)
	}

	return &Wallet{
		client:            client,
		privateKey:        privateKey,
		address:            crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:            big.NewInt(chainID),
		ctfAddress:         common.HexToAddress(ctfAddressHex),
		collateralAddress: common.HexToAddress(collateralAddressHex),
		ctfParsed:          ctfParsed,
	}, nil
}

// Address returns the signer's Ethereum address.
func (w *Wallet) Address() string { return w.address.Hex() }

// Redeem submits redeemPositions(collateralToken, zeroParent, conditionId,
// indexSets) and waits for the transaction to mine.
func (w *Wallet) Redeem(ctx context.Context, conditionID string, indexSets []uint64) (string, error) {
	indexSetsBig := make([]*big.Int, len(indexSets))
	for i, s := range indexSets {
		indexSetsBig[i] = new(big.Int).SetUint64(s)
	}

	data, err := w.ctfParsed.Pack("redeemPositions",
		w.collateralAddress, zeroParentCollectionID, common.HexToHash(conditionID), indexSetsBig)
	if err != nil {
		return "", fmt.Errorf("pack redeemPositions: %w", err)
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	const redeemGasLimit = 200_000
	tx := types.NewTransaction(nonce, w.ctfAddress, big.NewInt(0), redeemGasLimit, gasPrice, data)

	signer := types.NewEIP155Signer(w.chainID)
	signedTx, err := types.SignTx(tx, signer, w.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, w.client, signedTx)
	if err != nil {
		return "", fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("redeem tx %s reverted", signedTx.Hash().Hex())
	}
	return signedTx.Hash().Hex(), nil
}
