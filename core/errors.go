package core

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound          = errors.New("key not found")
	ErrStorageItemNotFound  = errors.New("storage item not found")
	ErrAccountNotFound      = errors.New("account does not exist")
	ErrNoMatchingKey        = errors.New("no matching access key")
	ErrNotEnoughAllowance   = errors.New("access key allowance exceeded")
	ErrRedirectTimeout      = errors.New("failed to redirect to sign transaction")
	ErrInvalidPublicKey     = errors.New("invalid public key")
	ErrInvalidKeyPair       = errors.New("invalid key pair")
	ErrUnsupportedKeyType   = errors.New("unsupported key type")
	ErrInvalidEncoding      = errors.New("invalid transaction encoding")
	ErrNotSignedIn          = errors.New("wallet connection is not signed in")
	ErrInvalidWalletBaseURL = errors.New("invalid wallet base url")
	ErrInvalidAmount        = errors.New("invalid amount")
)

// ErrMissingPublicKey is returned when a sign-in names a contract but carries
// no key for the wallet to authorize.
var ErrMissingPublicKey = errors.New("contract sign-in requires a public key")

// NoMatchingKeyError is returned when no authorized access key can sign a
// transaction for the receiver.
type NoMatchingKeyError struct {
	ReceiverID string
}

func (e *NoMatchingKeyError) Error() string {
	return fmt.Sprintf("cannot find matching key for transaction sent to %s", e.ReceiverID)
}

func (e *NoMatchingKeyError) Unwrap() error {
	return ErrNoMatchingKey
}

// CallbackError carries a failure the wallet reported on its return trip.
type CallbackError struct {
	Code    string
	Message string
}

func (e *CallbackError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wallet returned error %s", e.Code)
	}
	return fmt.Sprintf("wallet returned error %s: %s", e.Code, e.Message)
}
