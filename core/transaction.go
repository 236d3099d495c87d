package core

import (
	"crypto/sha256"
	"fmt"
)

// BlockHashLength is the size of a block hash in bytes.
const BlockHashLength = 32

// Transaction is an unsigned transaction
type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [BlockHashLength]byte
	Actions    []Action
}

// SignedTransaction is a transaction together with the signature over its hash
type SignedTransaction struct {
	Transaction Transaction
	Signature   Signature
}

// NewTransaction assembles a transaction for signerID acting through publicKey.
func NewTransaction(signerID string, publicKey PublicKey, receiverID string, nonce uint64, actions []Action, blockHash [BlockHashLength]byte) *Transaction {
	return &Transaction{
		SignerID:   signerID,
		PublicKey:  publicKey,
		Nonce:      nonce,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
		Actions:    actions,
	}
}

// Encode returns the canonical binary form of the transaction. Amounts that
// are negative, fractional or at least 2^128 are rejected with ErrInvalidAmount.
func (tx *Transaction) Encode() ([]byte, error) {
	w, err := tx.wire()
	if err != nil {
		return nil, err
	}
	return serialize(w)
}

func (tx *Transaction) wire() (wireTransaction, error) {
	pk, err := tx.PublicKey.wire()
	if err != nil {
		return wireTransaction{}, err
	}
	w := wireTransaction{
		SignerID:   tx.SignerID,
		PublicKey:  pk,
		Nonce:      tx.Nonce,
		ReceiverID: tx.ReceiverID,
		BlockHash:  tx.BlockHash,
		Actions:    make([]wireAction, 0, len(tx.Actions)),
	}
	for i, a := range tx.Actions {
		wa, err := a.wire()
		if err != nil {
			return wireTransaction{}, fmt.Errorf("action %d (%s): %w", i, a.Kind(), err)
		}
		w.Actions = append(w.Actions, wa)
	}
	return w, nil
}

// Hash returns the sha256 digest of the canonical encoding.
func (tx *Transaction) Hash() ([32]byte, error) {
	encoded, err := tx.Encode()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(encoded), nil
}

// Sign hashes the transaction and signs the digest with kp.
func (tx *Transaction) Sign(kp KeyPair) (*SignedTransaction, error) {
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := kp.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return &SignedTransaction{Transaction: *tx, Signature: sig}, nil
}

// Encode returns the canonical binary form of the signed transaction.
func (stx *SignedTransaction) Encode() ([]byte, error) {
	tx, err := stx.Transaction.wire()
	if err != nil {
		return nil, err
	}
	sig, err := stx.Signature.wire()
	if err != nil {
		return nil, err
	}
	return serialize(wireSignedTransaction{Transaction: tx, Signature: sig})
}

// DecodeTransaction parses the output of Transaction.Encode.
func DecodeTransaction(data []byte) (*Transaction, error) {
	w, err := deserialize[wireTransaction](data)
	if err != nil {
		return nil, err
	}
	return w.transaction()
}

// DecodeSignedTransaction parses the output of SignedTransaction.Encode.
func DecodeSignedTransaction(data []byte) (*SignedTransaction, error) {
	w, err := deserialize[wireSignedTransaction](data)
	if err != nil {
		return nil, err
	}
	tx, err := w.Transaction.transaction()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: *tx, Signature: w.Signature.signature()}, nil
}

func (w wireTransaction) transaction() (*Transaction, error) {
	tx := &Transaction{
		SignerID:   w.SignerID,
		PublicKey:  w.PublicKey.publicKey(),
		Nonce:      w.Nonce,
		ReceiverID: w.ReceiverID,
		BlockHash:  w.BlockHash,
	}
	for _, wa := range w.Actions {
		a, err := wa.action()
		if err != nil {
			return nil, err
		}
		tx.Actions = append(tx.Actions, a)
	}
	return tx, nil
}
