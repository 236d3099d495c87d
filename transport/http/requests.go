package http

import (
	"encoding/json"
	"fmt"

	"github.com/layer-3/walletredirect/core"
	"github.com/shopspring/decimal"
)

// signRequest is the body of POST /sign
type signRequest struct {
	ReceiverID  string          `json:"receiver_id" binding:"required"`
	Actions     []actionRequest `json:"actions" binding:"required,min=1"`
	Meta        string          `json:"meta"`
	CallbackURL string          `json:"callback_url"`
}

// actionRequest is one action of a sign request; fields apply per kind
type actionRequest struct {
	Kind          string          `json:"kind" binding:"required"`
	MethodName    string          `json:"method_name"`
	Args          json.RawMessage `json:"args"`
	Gas           uint64          `json:"gas"`
	Deposit       decimal.Decimal `json:"deposit"`
	PublicKey     string          `json:"public_key"`
	BeneficiaryID string          `json:"beneficiary_id"`
}

func (a actionRequest) toAction() (core.Action, error) {
	switch a.Kind {
	case "CreateAccount":
		return core.CreateAccount{}, nil
	case "FunctionCall":
		if a.MethodName == "" {
			return nil, fmt.Errorf("FunctionCall requires method_name")
		}
		args := []byte(a.Args)
		if len(args) == 0 {
			args = []byte("{}")
		}
		if err := core.ValidateAmount(a.Deposit); err != nil {
			return nil, fmt.Errorf("FunctionCall deposit: %w", err)
		}
		return core.FunctionCall{MethodName: a.MethodName, Args: args, Gas: a.Gas, Deposit: a.Deposit}, nil
	case "Transfer":
		if err := core.ValidateAmount(a.Deposit); err != nil {
			return nil, fmt.Errorf("Transfer deposit: %w", err)
		}
		return core.Transfer{Deposit: a.Deposit}, nil
	case "DeleteKey":
		pk, err := core.ParsePublicKey(a.PublicKey)
		if err != nil {
			return nil, err
		}
		return core.DeleteKey{PublicKey: pk}, nil
	case "DeleteAccount":
		if a.BeneficiaryID == "" {
			return nil, fmt.Errorf("DeleteAccount requires beneficiary_id")
		}
		return core.DeleteAccount{BeneficiaryID: a.BeneficiaryID}, nil
	default:
		return nil, fmt.Errorf("unsupported action kind %q", a.Kind)
	}
}

func (r signRequest) toActions() ([]core.Action, error) {
	actions := make([]core.Action, 0, len(r.Actions))
	for i, a := range r.Actions {
		action, err := a.toAction()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// sessionResponse describes the wallet session of the request
type sessionResponse struct {
	SignedIn  bool     `json:"signed_in"`
	AccountID string   `json:"account_id,omitempty"`
	AllKeys   []string `json:"all_keys,omitempty"`
}
