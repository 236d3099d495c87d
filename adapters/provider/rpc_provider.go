package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
)

const defaultTimeout = 30 * time.Second

// RPCProvider implements the Provider interface over a node's JSON-RPC API
type RPCProvider struct {
	url    string
	client *http.Client
}

// NewRPCProvider creates a provider for the node at url. A nil client uses a
// client with a 30s timeout.
func NewRPCProvider(url string, client *http.Client) *RPCProvider {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &RPCProvider{url: url, client: client}
}

var _ ports.Provider = (*RPCProvider)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data"`
	Cause   *struct {
		Name string          `json:"name"`
		Info json.RawMessage `json:"info"`
	} `json:"cause"`
}

func (e *RPCError) Error() string {
	msg := fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	if e.Cause != nil && e.Cause.Name != "" {
		msg += " (" + e.Cause.Name + ")"
	}
	if len(e.Data) > 0 {
		msg += ": " + string(e.Data)
	}
	return msg
}

// Unwrap maps node error kinds onto core sentinel errors.
func (e *RPCError) Unwrap() error {
	cause := ""
	if e.Cause != nil {
		cause = e.Cause.Name
	}
	switch {
	case strings.Contains(string(e.Data), "NotEnoughAllowance"):
		return core.ErrNotEnoughAllowance
	case cause == "UNKNOWN_ACCOUNT", strings.Contains(string(e.Data), "does not exist while viewing"):
		return core.ErrAccountNotFound
	case cause == "UNKNOWN_ACCESS_KEY":
		return core.ErrKeyNotFound
	default:
		return nil
	}
}

// ViewAccount returns the account state
func (p *RPCProvider) ViewAccount(ctx context.Context, accountID string) (*core.AccountView, error) {
	var view core.AccountView
	err := p.call(ctx, "query", map[string]string{
		"request_type": "view_account",
		"finality":     string(core.FinalityFinal),
		"account_id":   accountID,
	}, &view)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ViewAccessKey returns one access key of the account
func (p *RPCProvider) ViewAccessKey(ctx context.Context, accountID string, publicKey core.PublicKey) (*core.AccessKey, error) {
	var key core.AccessKey
	err := p.call(ctx, "query", map[string]string{
		"request_type": "view_access_key",
		"finality":     string(core.FinalityFinal),
		"account_id":   accountID,
		"public_key":   publicKey.String(),
	}, &key)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// ViewAccessKeyList returns every access key of the account
func (p *RPCProvider) ViewAccessKeyList(ctx context.Context, accountID string) ([]core.AccessKeyInfo, error) {
	var list struct {
		Keys []core.AccessKeyInfo `json:"keys"`
	}
	err := p.call(ctx, "query", map[string]string{
		"request_type": "view_access_key_list",
		"finality":     string(core.FinalityFinal),
		"account_id":   accountID,
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Keys, nil
}

// Block returns the latest block at the given finality
func (p *RPCProvider) Block(ctx context.Context, finality core.Finality) (*core.Block, error) {
	var block core.Block
	if err := p.call(ctx, "block", map[string]string{"finality": string(finality)}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// SendTransaction broadcasts a signed transaction and waits for its outcome
func (p *RPCProvider) SendTransaction(ctx context.Context, tx *core.SignedTransaction) (*core.TransactionOutcome, error) {
	var result struct {
		Status      map[string]any `json:"status"`
		Transaction struct {
			Hash string `json:"hash"`
		} `json:"transaction"`
	}
	raw, err := tx.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := p.call(ctx, "broadcast_tx_commit", []string{encoded}, &result); err != nil {
		return nil, err
	}

	hash := result.Transaction.Hash
	if hash == "" {
		digest, err := tx.Transaction.Hash()
		if err != nil {
			return nil, err
		}
		hash = core.EncodeHash(digest)
	}
	return &core.TransactionOutcome{TransactionHash: hash, Status: result.Status}, nil
}

func (p *RPCProvider) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("%s: %w", method, decoded.Error)
	}

	// Some query errors come back inside the result.
	var inline struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(decoded.Result, &inline) == nil && inline.Error != "" {
		return fmt.Errorf("%s: %w", method, &RPCError{Message: inline.Error, Data: json.RawMessage(fmt.Sprintf("%q", inline.Error))})
	}

	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
