package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"nft-ticket-onchain/model"
)

// Sender は署名済みトランザクションをブロードキャストする (*ethclient.Client が満たす)
type Sender interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeySigner は秘密鍵で署名するウォレット。
// Connect / Disconnect で外部ウォレットの接続状態を表す。
type KeySigner struct {
	client Sender
	key    *ecdsa.PrivateKey

	mu        sync.RWMutex
	address   common.Address
	connected bool
}

// NewKeySigner は 16進の秘密鍵から署名者を作成する。hexKey が空なら接続できない署名者になる。
func NewKeySigner(client Sender, hexKey string) (*KeySigner, error) {
	s := &KeySigner{client: client}
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		log.Printf("WARNING: WALLET_PRIVATE_KEY not set. Wallet connection is disabled.")
		return s, nil
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	s.key = key
	s.address = crypto.PubkeyToAddress(key.PublicKey)
	log.Printf("Wallet Address: %s", s.address.Hex())
	return s, nil
}

// Connect はウォレットを接続し、アドレスを返す
func (s *KeySigner) Connect() (string, error) {
	if s.key == nil {
		return "", errors.New("wallet: no key configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return s.address.Hex(), nil
}

// Disconnect はウォレットを切断する
func (s *KeySigner) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// ActiveAddress は接続中のアドレス。未接続なら false
func (s *KeySigner) ActiveAddress() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return "", false
	}
	return s.address.Hex(), true
}

// SignAndSubmit は [送金] + [メソッド呼び出し] を1つの payable トランザクションとして署名・送信する
func (s *KeySigner) SignAndSubmit(ctx context.Context, group model.TransactionGroup) (model.SubmitResult, error) {
	active, ok := s.ActiveAddress()
	if !ok {
		return model.SubmitResult{}, model.ErrWalletNotConnected
	}

	if group.Payment.From != "" && !strings.EqualFold(group.Payment.From, active) {
		return model.SubmitResult{}, model.ErrWalletNotConnected
	}
	if group.Payment.To != "" && !strings.EqualFold(group.Payment.To, group.Call.To) {
		return model.SubmitResult{}, fmt.Errorf("payment receiver %s does not match contract %s", group.Payment.To, group.Call.To)
	}
	if !common.IsHexAddress(group.Call.To) {
		return model.SubmitResult{}, fmt.Errorf("invalid contract address: %s", group.Call.To)
	}
	if group.Params.ChainID == nil || group.Params.GasPrice == nil {
		return model.SubmitResult{}, errors.New("missing network parameters")
	}

	value := new(big.Int)
	if group.Payment.Amount != nil {
		value.Set(group.Payment.Amount)
	}
	to := common.HexToAddress(group.Call.To)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    group.Params.Nonce,
		GasPrice: group.Params.GasPrice,
		Gas:      group.Call.Gas,
		To:       &to,
		Value:    value,
		Data:     group.Call.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(group.Params.ChainID), s.key)
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		log.Printf("Error sending %s transaction: %v", group.Call.Method, err)
		return model.SubmitResult{}, err
	}

	log.Printf("Sent %s transaction %s (value: %s wei)", group.Call.Method, signed.Hash().Hex(), value.String())
	return model.SubmitResult{TransactionIDs: []string{signed.Hash().Hex()}}, nil
}
