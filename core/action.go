package core

import (
	"fmt"

	"github.com/near/borsh-go"
	"github.com/shopspring/decimal"
)

// Action is one operation inside a transaction.
type Action interface {
	// Kind names the action as in the canonical enum.
	Kind() string
	wire() (wireAction, error)
}

// Action enum tags, in wire order.
const (
	tagCreateAccount borsh.Enum = iota
	tagDeployContract
	tagFunctionCall
	tagTransfer
	tagStake
	tagAddKey
	tagDeleteKey
	tagDeleteAccount
)

type CreateAccount struct{}

type DeployContract struct {
	Code []byte
}

type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    decimal.Decimal
}

type Transfer struct {
	Deposit decimal.Decimal
}

type Stake struct {
	Stake     decimal.Decimal
	PublicKey PublicKey
}

type AddKey struct {
	PublicKey PublicKey
	AccessKey AccessKey
}

type DeleteKey struct {
	PublicKey PublicKey
}

type DeleteAccount struct {
	BeneficiaryID string
}

func (CreateAccount) Kind() string  { return "CreateAccount" }
func (DeployContract) Kind() string { return "DeployContract" }
func (FunctionCall) Kind() string   { return "FunctionCall" }
func (Transfer) Kind() string       { return "Transfer" }
func (Stake) Kind() string          { return "Stake" }
func (AddKey) Kind() string         { return "AddKey" }
func (DeleteKey) Kind() string      { return "DeleteKey" }
func (DeleteAccount) Kind() string  { return "DeleteAccount" }

func (CreateAccount) wire() (wireAction, error) {
	return wireAction{Enum: tagCreateAccount}, nil
}

func (a DeployContract) wire() (wireAction, error) {
	return wireAction{Enum: tagDeployContract, DeployContract: wireDeployContract{Code: a.Code}}, nil
}

func (a FunctionCall) wire() (wireAction, error) {
	deposit, err := toU128(a.Deposit)
	if err != nil {
		return wireAction{}, fmt.Errorf("function call deposit: %w", err)
	}
	return wireAction{Enum: tagFunctionCall, FunctionCall: wireFunctionCall{
		MethodName: a.MethodName,
		Args:       a.Args,
		Gas:        a.Gas,
		Deposit:    deposit,
	}}, nil
}

func (a Transfer) wire() (wireAction, error) {
	deposit, err := toU128(a.Deposit)
	if err != nil {
		return wireAction{}, fmt.Errorf("transfer deposit: %w", err)
	}
	return wireAction{Enum: tagTransfer, Transfer: wireTransfer{Deposit: deposit}}, nil
}

func (a Stake) wire() (wireAction, error) {
	stake, err := toU128(a.Stake)
	if err != nil {
		return wireAction{}, fmt.Errorf("stake amount: %w", err)
	}
	pk, err := a.PublicKey.wire()
	if err != nil {
		return wireAction{}, err
	}
	return wireAction{Enum: tagStake, Stake: wireStake{Stake: stake, PublicKey: pk}}, nil
}

func (a AddKey) wire() (wireAction, error) {
	pk, err := a.PublicKey.wire()
	if err != nil {
		return wireAction{}, err
	}
	perm, err := a.AccessKey.Permission.wire()
	if err != nil {
		return wireAction{}, err
	}
	return wireAction{Enum: tagAddKey, AddKey: wireAddKey{
		PublicKey: pk,
		AccessKey: wireAccessKey{Nonce: a.AccessKey.Nonce, Permission: perm},
	}}, nil
}

func (a DeleteKey) wire() (wireAction, error) {
	pk, err := a.PublicKey.wire()
	if err != nil {
		return wireAction{}, err
	}
	return wireAction{Enum: tagDeleteKey, DeleteKey: wireDeleteKey{PublicKey: pk}}, nil
}

func (a DeleteAccount) wire() (wireAction, error) {
	return wireAction{Enum: tagDeleteAccount, DeleteAccount: wireDeleteAccount{BeneficiaryID: a.BeneficiaryID}}, nil
}

func (w wireAction) action() (Action, error) {
	switch w.Enum {
	case tagCreateAccount:
		return CreateAccount{}, nil
	case tagDeployContract:
		return DeployContract{Code: w.DeployContract.Code}, nil
	case tagFunctionCall:
		fc := w.FunctionCall
		return FunctionCall{MethodName: fc.MethodName, Args: fc.Args, Gas: fc.Gas, Deposit: fromU128(fc.Deposit)}, nil
	case tagTransfer:
		return Transfer{Deposit: fromU128(w.Transfer.Deposit)}, nil
	case tagStake:
		return Stake{Stake: fromU128(w.Stake.Stake), PublicKey: w.Stake.PublicKey.publicKey()}, nil
	case tagAddKey:
		ak := w.AddKey.AccessKey
		return AddKey{
			PublicKey: w.AddKey.PublicKey.publicKey(),
			AccessKey: AccessKey{Nonce: ak.Nonce, Permission: ak.Permission.permission()},
		}, nil
	case tagDeleteKey:
		return DeleteKey{PublicKey: w.DeleteKey.PublicKey.publicKey()}, nil
	case tagDeleteAccount:
		return DeleteAccount{BeneficiaryID: w.DeleteAccount.BeneficiaryID}, nil
	default:
		return nil, fmt.Errorf("%w: action tag %d", ErrInvalidEncoding, w.Enum)
	}
}
