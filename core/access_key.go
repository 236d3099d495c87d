package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/near/borsh-go"
	"github.com/shopspring/decimal"
)

// AccessKey is the on-chain state of one key on an account
type AccessKey struct {
	Nonce      uint64              `json:"nonce"`
	Permission AccessKeyPermission `json:"permission"`
}

// AccessKeyPermission is either full access or a function-call grant.
// FunctionCall is nil for full access.
type AccessKeyPermission struct {
	FunctionCall *FunctionCallPermission
}

// FunctionCallPermission limits a key to calls on one receiver
type FunctionCallPermission struct {
	Allowance   *decimal.Decimal `json:"allowance"`    // nil means unlimited
	ReceiverID  string           `json:"receiver_id"`  // Contract the key may call
	MethodNames []string         `json:"method_names"` // Empty means any method
}

// FullAccess returns the unrestricted permission.
func FullAccess() AccessKeyPermission {
	return AccessKeyPermission{}
}

func (p AccessKeyPermission) IsFullAccess() bool {
	return p.FunctionCall == nil
}

func (p AccessKeyPermission) MarshalJSON() ([]byte, error) {
	if p.IsFullAccess() {
		return json.Marshal("FullAccess")
	}
	return json.Marshal(map[string]*FunctionCallPermission{"FunctionCall": p.FunctionCall})
}

func (p *AccessKeyPermission) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "FullAccess" {
			return fmt.Errorf("unknown access key permission %q", s)
		}
		p.FunctionCall = nil
		return nil
	}

	var v struct {
		FunctionCall *FunctionCallPermission `json:"FunctionCall"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.FunctionCall == nil {
		return fmt.Errorf("unknown access key permission %s", string(data))
	}
	p.FunctionCall = v.FunctionCall
	return nil
}

// AccessKeyInfo pairs a public key with its access key state, as listed by the provider
type AccessKeyInfo struct {
	PublicKey string    `json:"public_key"`
	AccessKey AccessKey `json:"access_key"`
}

// MatchesTransaction reports whether this key may sign a transaction with the
// given actions to receiverID.
func (k AccessKeyInfo) MatchesTransaction(receiverID string, actions []Action) bool {
	perm := k.AccessKey.Permission
	if perm.IsFullAccess() {
		return true
	}
	fc := perm.FunctionCall
	if fc.ReceiverID != receiverID || len(actions) != 1 {
		return false
	}
	call, ok := actions[0].(FunctionCall)
	if !ok || !call.Deposit.IsZero() {
		return false
	}
	if len(fc.MethodNames) == 0 {
		return true
	}
	for _, m := range fc.MethodNames {
		if m == call.MethodName {
			return true
		}
	}
	return false
}

const (
	tagFunctionCallPermission borsh.Enum = iota
	tagFullAccessPermission
)

func (p AccessKeyPermission) wire() (wirePermission, error) {
	if p.IsFullAccess() {
		return wirePermission{Enum: tagFullAccessPermission}, nil
	}
	fc := p.FunctionCall
	w := wirePermission{Enum: tagFunctionCallPermission, FunctionCall: wireFunctionCallPermission{
		ReceiverID:  fc.ReceiverID,
		MethodNames: fc.MethodNames,
	}}
	if fc.Allowance != nil {
		allowance, err := toU128(*fc.Allowance)
		if err != nil {
			return wirePermission{}, fmt.Errorf("allowance: %w", err)
		}
		w.FunctionCall.Allowance = wireOptionalU128{Enum: 1, Some: wireU128{Value: allowance}}
	}
	return w, nil
}

func (w wirePermission) permission() AccessKeyPermission {
	if w.Enum == tagFullAccessPermission {
		return FullAccess()
	}
	fc := &FunctionCallPermission{
		ReceiverID:  w.FunctionCall.ReceiverID,
		MethodNames: w.FunctionCall.MethodNames,
	}
	if w.FunctionCall.Allowance.Enum == 1 {
		allowance := fromU128(w.FunctionCall.Allowance.Some.Value)
		fc.Allowance = &allowance
	}
	return AccessKeyPermission{FunctionCall: fc}
}
