// Package redirect builds the URLs that send a user to the wallet and reads
// the parameters the wallet appends when it sends the user back.
//
// The functions here do not touch storage or the page; callers hand in the
// current page URL and commit the results themselves.
package redirect

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/layer-3/walletredirect/core"
)

const (
	// LoginPathSuffix is appended to the wallet base URL for sign-in.
	LoginPathSuffix = "/login/"

	// SignPath is resolved against the wallet base URL for transaction signing.
	SignPath = "sign"
)

// Outbound parameter names.
const (
	ParamSuccessURL   = "success_url"
	ParamFailureURL   = "failure_url"
	ParamContractID   = "contract_id"
	ParamMethodNames  = "methodNames"
	ParamTransactions = "transactions"
	ParamCallbackURL  = "callbackUrl"
)

// Inbound parameter names. ParamPublicKey and ParamMeta are also sent outbound.
const (
	ParamPublicKey         = "public_key"
	ParamAllKeys           = "all_keys"
	ParamAccountID         = "account_id"
	ParamMeta              = "meta"
	ParamTransactionHashes = "transactionHashes"
	ParamErrorCode         = "errorCode"
	ParamErrorMessage      = "errorMessage"
)

// CallbackParamNames lists every parameter removed by StripCallbackParams.
var CallbackParamNames = []string{
	ParamPublicKey,
	ParamAllKeys,
	ParamAccountID,
	ParamMeta,
	ParamTransactionHashes,
	ParamErrorCode,
	ParamErrorMessage,
}

// SignInOptions configures a sign-in redirect
type SignInOptions struct {
	ContractID  string   // Contract the access key is scoped to; empty for full sign-in only
	MethodNames []string // Methods the access key may call; empty means any
	SuccessURL  string   // Defaults to the current page
	FailureURL  string   // Defaults to the current page
	PublicKey   string   // Pending key to authorize; required with ContractID
}

// SignTransactionsOptions configures a transaction signing redirect
type SignTransactionsOptions struct {
	Transactions []*core.Transaction
	Meta         string
	CallbackURL  string // Defaults to the current page
}

// BuildSignInURL returns the wallet login URL for opts.
func BuildSignInURL(walletBaseURL, currentURL string, opts SignInOptions) (string, error) {
	u, err := parseBase(strings.TrimSuffix(walletBaseURL, "/") + LoginPathSuffix)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(ParamSuccessURL, orDefault(opts.SuccessURL, currentURL))
	q.Set(ParamFailureURL, orDefault(opts.FailureURL, currentURL))
	if opts.ContractID != "" {
		if opts.PublicKey == "" {
			return "", core.ErrMissingPublicKey
		}
		q.Set(ParamContractID, opts.ContractID)
		q.Set(ParamPublicKey, opts.PublicKey)
	}
	for _, m := range opts.MethodNames {
		q.Add(ParamMethodNames, m)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// BuildSignTransactionsURL returns the wallet signing URL carrying every
// transaction of opts, base64-encoded and comma-joined into one parameter.
func BuildSignTransactionsURL(walletBaseURL, currentURL string, opts SignTransactionsOptions) (string, error) {
	base, err := parseBase(walletBaseURL)
	if err != nil {
		return "", err
	}
	u := base.ResolveReference(&url.URL{Path: SignPath})

	encoded := make([]string, 0, len(opts.Transactions))
	for i, tx := range opts.Transactions {
		raw, err := tx.Encode()
		if err != nil {
			return "", fmt.Errorf("failed to encode transaction %d: %w", i, err)
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(raw))
	}

	q := u.Query()
	q.Set(ParamTransactions, strings.Join(encoded, ","))
	q.Set(ParamCallbackURL, orDefault(opts.CallbackURL, currentURL))
	if opts.Meta != "" {
		q.Set(ParamMeta, opts.Meta)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// DecodeTransactionsParam reverses the transactions encoding of
// BuildSignTransactionsURL.
func DecodeTransactionsParam(value string) ([]*core.Transaction, error) {
	if value == "" {
		return nil, nil
	}
	var txs []*core.Transaction
	for i, part := range strings.Split(value, ",") {
		raw, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		tx, err := core.DecodeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ParseCallbackParams reads the wallet's return parameters from currentURL.
// Absent values are empty; list values are never nil.
func ParseCallbackParams(currentURL string) (core.CallbackParams, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return core.CallbackParams{}, fmt.Errorf("failed to parse page url: %w", err)
	}
	q := u.Query()

	return core.CallbackParams{
		PublicKey:         q.Get(ParamPublicKey),
		AllKeys:           splitList(q.Get(ParamAllKeys)),
		AccountID:         q.Get(ParamAccountID),
		Meta:              q.Get(ParamMeta),
		TransactionHashes: splitList(q.Get(ParamTransactionHashes)),
		ErrorCode:         q.Get(ParamErrorCode),
		ErrorMessage:      q.Get(ParamErrorMessage),
	}, nil
}

// StripCallbackParams removes every callback parameter from currentURL and
// keeps the rest of the query in its original order. A URL with nothing to
// remove is returned unchanged.
func StripCallbackParams(currentURL string) (string, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page url: %w", err)
	}
	if u.RawQuery == "" {
		return currentURL, nil
	}

	parts := strings.Split(u.RawQuery, "&")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		key, _, _ := strings.Cut(part, "=")
		if name, err := url.QueryUnescape(key); err == nil && isCallbackParam(name) {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == len(parts) {
		return currentURL, nil
	}

	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String(), nil
}

func isCallbackParam(name string) bool {
	for _, p := range CallbackParamNames {
		if p == name {
			return true
		}
	}
	return false
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidWalletBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", core.ErrInvalidWalletBaseURL, raw)
	}
	return u, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
