package core

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Finality selects how settled a block must be for a provider query
type Finality string

const (
	FinalityOptimistic Finality = "optimistic"
	FinalityFinal      Finality = "final"
)

// BlockHeader holds the header fields this module reads
type BlockHeader struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"` // base58
}

// Block is a provider block response
type Block struct {
	Header BlockHeader `json:"header"`
}

// HashBytes decodes the base58 header hash.
func (b *Block) HashBytes() ([BlockHashLength]byte, error) {
	var out [BlockHashLength]byte
	raw, err := base58.Decode(b.Header.Hash)
	if err != nil {
		return out, fmt.Errorf("failed to decode block hash: %w", err)
	}
	if len(raw) != BlockHashLength {
		return out, fmt.Errorf("block hash must be %d bytes, got %d", BlockHashLength, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// AccountView is the on-chain state of an account
type AccountView struct {
	Amount       decimal.Decimal `json:"amount"`
	Locked       decimal.Decimal `json:"locked"`
	CodeHash     string          `json:"code_hash"`
	StorageUsage uint64          `json:"storage_usage"`
	BlockHeight  uint64          `json:"block_height"`
	BlockHash    string          `json:"block_hash"`
}

// TransactionOutcome is the result of broadcasting a signed transaction
type TransactionOutcome struct {
	TransactionHash string         `json:"transaction_hash"`
	Status          map[string]any `json:"status"`
}

// EncodeHash renders a 32-byte hash the way providers and wallets print it.
func EncodeHash(h [32]byte) string {
	return base58.Encode(h[:])
}
