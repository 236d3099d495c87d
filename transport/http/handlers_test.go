package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletredirect/adapters/signer"
	"github.com/layer-3/walletredirect/adapters/store"
	"github.com/layer-3/walletredirect/adapters/tokenizer"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/service"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

const (
	testWalletURL = "https://wallet.testnet.near.org"
	testPublicURL = "https://app.example"
	testAccount   = "alice.testnet"
	testContract  = "guest-book.testnet"
)

type stubProvider struct {
	accounts map[string]bool
	keys     map[string][]core.AccessKeyInfo
	sent     []*core.SignedTransaction
}

func (p *stubProvider) ViewAccount(ctx context.Context, accountID string) (*core.AccountView, error) {
	if !p.accounts[accountID] {
		return nil, core.ErrAccountNotFound
	}
	return &core.AccountView{}, nil
}

func (p *stubProvider) ViewAccessKey(ctx context.Context, accountID string, publicKey core.PublicKey) (*core.AccessKey, error) {
	for _, k := range p.keys[accountID] {
		if k.PublicKey == publicKey.String() {
			ak := k.AccessKey
			return &ak, nil
		}
	}
	return nil, core.ErrKeyNotFound
}

func (p *stubProvider) ViewAccessKeyList(ctx context.Context, accountID string) ([]core.AccessKeyInfo, error) {
	return p.keys[accountID], nil
}

func (p *stubProvider) Block(ctx context.Context, finality core.Finality) (*core.Block, error) {
	return &core.Block{Header: core.BlockHeader{Hash: base58.Encode(make([]byte, core.BlockHashLength))}}, nil
}

func (p *stubProvider) SendTransaction(ctx context.Context, tx *core.SignedTransaction) (*core.TransactionOutcome, error) {
	p.sent = append(p.sent, tx)
	hash, err := tx.Transaction.Hash()
	if err != nil {
		return nil, err
	}
	return &core.TransactionOutcome{TransactionHash: core.EncodeHash(hash)}, nil
}

// HandlersSuite drives the router the way a browser would.
type HandlersSuite struct {
	suite.Suite

	keyStore  *store.MemoryKeyStore
	provider  *stubProvider
	router    *gin.Engine
	walletKey core.KeyPair
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	var err error
	s.walletKey, err = core.GenerateKeyPair(core.KeyTypeED25519)
	s.Require().NoError(err)

	s.keyStore = store.NewMemoryKeyStore()
	s.provider = &stubProvider{
		accounts: map[string]bool{testContract: true},
		keys: map[string][]core.AccessKeyInfo{
			testAccount: {{PublicKey: s.walletKey.PublicKey().String(), AccessKey: core.AccessKey{Nonce: 1, Permission: core.FullAccess()}}},
		},
	}

	tok, err := tokenizer.NewJWTTokenizer([]byte("test-secret"), time.Hour)
	s.Require().NoError(err)

	handlers := NewHandlers(Options{
		Factory: func(ctx context.Context, page ports.Page, storage ports.Storage, keyStore ports.KeyStore) (*service.WalletConnection, error) {
			return service.NewWalletConnection(ctx, service.Config{
				NetworkID:       "testnet",
				WalletBaseURL:   testWalletURL,
				RedirectTimeout: time.Second,
			}, service.Dependencies{
				KeyStore: keyStore,
				Storage:  storage,
				Provider: s.provider,
				Signer:   signer.NewKeyStoreSigner(keyStore, s.provider, "testnet"),
				Page:     page,
			})
		},
		KeyStore:  s.keyStore,
		Tokenizer: tok,
		Cookie:    CookieOptions{Name: "wr", MaxAge: 3600},
		PublicURL: testPublicURL,
		Logger:    zerolog.Nop(),
	})
	s.router = SetupRouter(handlers)
}

func (s *HandlersSuite) do(method, target string, body []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// signIn returns from the wallet with the account and yields the session cookie.
func (s *HandlersSuite) signIn() []*http.Cookie {
	q := url.Values{
		"account_id": {testAccount},
		"all_keys":   {s.walletKey.PublicKey().String()},
	}
	rec := s.do(http.MethodGet, "/?tab=messages&"+q.Encode(), nil, nil)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal(testPublicURL+"/?tab=messages", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

// latestCookies keeps the last cookie the response set per name, falling back to prev.
func latestCookies(prev []*http.Cookie, rec *httptest.ResponseRecorder) []*http.Cookie {
	set := rec.Result().Cookies()
	if len(set) == 0 {
		return prev
	}
	byName := map[string]*http.Cookie{}
	var names []string
	for _, c := range set {
		if _, ok := byName[c.Name]; !ok {
			names = append(names, c.Name)
		}
		byName[c.Name] = c
	}
	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out
}

// startContractSignIn begins a contract sign-in and returns the browser's
// cookies with the pending public key sent to the wallet.
func (s *HandlersSuite) startContractSignIn() ([]*http.Cookie, string) {
	rec := s.do(http.MethodGet, "/login?contract_id="+testContract, nil, nil)
	s.Require().Equal(http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)

	publicKey := u.Query().Get("public_key")
	s.Require().NotEmpty(publicKey)
	return latestCookies(nil, rec), publicKey
}

// contractSignIn completes a contract sign-in whose key the account grants
// full access, and returns the browser's cookies and the promoted key.
func (s *HandlersSuite) contractSignIn() ([]*http.Cookie, string) {
	cookies, publicKey := s.startContractSignIn()
	s.provider.keys[testAccount] = append(s.provider.keys[testAccount],
		core.AccessKeyInfo{PublicKey: publicKey, AccessKey: core.AccessKey{Nonce: 1, Permission: core.FullAccess()}})

	q := url.Values{
		"account_id": {testAccount},
		"public_key": {publicKey},
		"all_keys":   {publicKey},
	}
	rec := s.do(http.MethodGet, "/?"+q.Encode(), nil, cookies)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	return latestCookies(cookies, rec), publicKey
}

// scopedKeys lists every key id held in any browser scope.
func (s *HandlersSuite) scopedKeys() map[string][]string {
	ctx := context.Background()
	networks, err := s.keyStore.ScopedNetworks(ctx, "testnet")
	s.Require().NoError(err)

	out := map[string][]string{}
	for _, network := range networks {
		ids, err := s.keyStore.ListKeys(ctx, network)
		s.Require().NoError(err)
		out[network] = ids
	}
	return out
}

func (s *HandlersSuite) session(cookies []*http.Cookie) sessionResponse {
	rec := s.do(http.MethodGet, "/session", nil, cookies)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp sessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlersSuite) TestFreshVisit() {
	rec := s.do(http.MethodGet, "/", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"signed_in":false}`, rec.Body.String())
	s.Empty(rec.Result().Cookies())
	s.NotEmpty(rec.Header().Get(requestIDHeader))
}

func (s *HandlersSuite) TestSignInCallback() {
	cookies := s.signIn()

	resp := s.session(cookies)
	s.True(resp.SignedIn)
	s.Equal(testAccount, resp.AccountID)
	s.Equal([]string{s.walletKey.PublicKey().String()}, resp.AllKeys)
}

func (s *HandlersSuite) TestWalletErrorCallback() {
	rec := s.do(http.MethodGet, "/?errorCode=userRejected&errorMessage=no", nil, nil)
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal(testPublicURL+"/", rec.Header().Get("Location"))
}

func (s *HandlersSuite) TestLoginRedirectsToWallet() {
	rec := s.do(http.MethodGet, "/login?contract_id="+testContract+"&methodNames=add_message", nil, nil)
	s.Require().Equal(http.StatusFound, rec.Code)

	u, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("wallet.testnet.near.org", u.Host)
	s.Equal("/login/", u.Path)
	s.Equal(testContract, u.Query().Get("contract_id"))
	s.Equal([]string{"add_message"}, u.Query()["methodNames"])

	publicKey := u.Query().Get("public_key")
	_, err = s.keyStore.GetKey(context.Background(), "testnet", service.PendingKeyID(publicKey))
	s.ErrorIs(err, core.ErrKeyNotFound)

	scoped := s.scopedKeys()
	s.Require().Len(scoped, 1)
	for _, ids := range scoped {
		s.Equal([]string{service.PendingKeyID(publicKey)}, ids)
	}
	s.NotEmpty(rec.Result().Cookies())
}

func (s *HandlersSuite) TestLoginUnknownContract() {
	rec := s.do(http.MethodGet, "/login?contract_id=nope.testnet", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "Contract account does not exist")
}

func (s *HandlersSuite) TestSignRequiresSession() {
	rec := s.do(http.MethodPost, "/sign", []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"1"}]}`), nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlersSuite) TestSignDelegatesToWallet() {
	cookies := s.signIn()

	body := []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"1"}],"meta":"order-42"}`)
	rec := s.do(http.MethodPost, "/sign", body, cookies)
	s.Require().Equal(http.StatusFound, rec.Code)

	u, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("/sign", u.Path)
	s.Equal("order-42", u.Query().Get("meta"))
	s.NotEmpty(u.Query().Get("transactions"))
}

func (s *HandlersSuite) TestSignSignsLocally() {
	cookies, publicKey := s.contractSignIn()

	body := []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"1"}]}`)
	rec := s.do(http.MethodPost, "/sign", body, cookies)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "transaction_hash")

	s.Require().Len(s.provider.sent, 1)
	s.Equal(publicKey, s.provider.sent[0].Transaction.PublicKey.String())
}

func (s *HandlersSuite) TestForgedCallbackCannotSignWithAnotherBrowsersKey() {
	_, publicKey := s.contractSignIn()

	// a stranger claims the account without ever visiting the wallet
	q := url.Values{"account_id": {testAccount}, "all_keys": {publicKey}}
	rec := s.do(http.MethodGet, "/?"+q.Encode(), nil, nil)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	forged := latestCookies(nil, rec)

	body := []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"1"}]}`)
	rec = s.do(http.MethodPost, "/sign", body, forged)
	s.NotEqual(http.StatusOK, rec.Code)
	s.Empty(s.provider.sent)

	// without a local key the request can only go to the wallet
	s.Require().Equal(http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("wallet.testnet.near.org", u.Host)
}

func (s *HandlersSuite) TestReplayedPublicKeyDoesNotPromoteAnotherBrowsersKey() {
	_, publicKey := s.startContractSignIn()

	q := url.Values{"account_id": {"mallory.testnet"}, "public_key": {publicKey}, "all_keys": {publicKey}}
	rec := s.do(http.MethodGet, "/?"+q.Encode(), nil, nil)
	s.Require().Equal(http.StatusSeeOther, rec.Code)

	scoped := s.scopedKeys()
	s.Require().Len(scoped, 1)
	for _, ids := range scoped {
		s.Equal([]string{service.PendingKeyID(publicKey)}, ids)
	}
}

func (s *HandlersSuite) TestSignRejectsInvalidDeposit() {
	cookies := s.signIn()

	for _, deposit := range []string{"-1000", "0.5", "340282366920938463463374607431768211457"} {
		body := []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"` + deposit + `"}]}`)
		rec := s.do(http.MethodPost, "/sign", body, cookies)
		s.Equal(http.StatusBadRequest, rec.Code, deposit)
		s.Contains(rec.Body.String(), "invalid amount", deposit)
	}
	s.Empty(s.provider.sent)
}

func (s *HandlersSuite) TestSignNoMatchingKey() {
	cookies := s.signIn()
	s.provider.keys[testAccount] = nil

	body := []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Transfer","deposit":"1"}]}`)
	rec := s.do(http.MethodPost, "/sign", body, cookies)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "cannot find matching key for transaction sent to bob.testnet")
}

func (s *HandlersSuite) TestSignInvalidRequest() {
	cookies := s.signIn()

	rec := s.do(http.MethodPost, "/sign", []byte(`{"receiver_id":"bob.testnet","actions":[]}`), cookies)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/sign", []byte(`{"receiver_id":"bob.testnet","actions":[{"kind":"Teleport"}]}`), cookies)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "unsupported action kind")
}

func (s *HandlersSuite) TestLogout() {
	cookies := s.signIn()

	rec := s.do(http.MethodPost, "/logout", nil, cookies)
	s.Require().Equal(http.StatusOK, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "wr" && c.MaxAge < 0 {
			cleared = true
		}
	}
	s.True(cleared)
	s.False(s.session(nil).SignedIn)
}

func (s *HandlersSuite) TestTamperedCookieIsIgnored() {
	cookies := s.signIn()
	cookies[0].Value = strings.ToUpper(cookies[0].Value)

	s.False(s.session(cookies).SignedIn)
}

func TestAbsoluteURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dapp?x=1", nil)
	req.Host = "app.internal:9000"

	if got := absoluteURL(req, ""); got != "http://app.internal:9000/dapp?x=1" {
		t.Fatalf("unexpected url %s", got)
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := absoluteURL(req, ""); got != "https://app.internal:9000/dapp?x=1" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := absoluteURL(req, "https://app.example"); got != "https://app.example/dapp?x=1" {
		t.Fatalf("unexpected url %s", got)
	}
}
