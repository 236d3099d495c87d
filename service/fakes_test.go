package service

import (
	"context"
	"sync"

	"github.com/layer-3/walletredirect/core"
	"github.com/mr-tron/base58"
)

type fakeProvider struct {
	mu        sync.Mutex
	accounts  map[string]bool
	keys      map[string][]core.AccessKeyInfo
	blockHash [core.BlockHashLength]byte
	listCalls int
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{
		accounts: map[string]bool{},
		keys:     map[string][]core.AccessKeyInfo{},
	}
	for i := range p.blockHash {
		p.blockHash[i] = byte(0xa0 + i)
	}
	return p
}

func (p *fakeProvider) ViewAccount(ctx context.Context, accountID string) (*core.AccountView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.accounts[accountID] {
		return nil, core.ErrAccountNotFound
	}
	return &core.AccountView{}, nil
}

func (p *fakeProvider) ViewAccessKey(ctx context.Context, accountID string, publicKey core.PublicKey) (*core.AccessKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range p.keys[accountID] {
		if k.PublicKey == publicKey.String() {
			ak := k.AccessKey
			return &ak, nil
		}
	}
	return nil, core.ErrKeyNotFound
}

func (p *fakeProvider) ViewAccessKeyList(ctx context.Context, accountID string) ([]core.AccessKeyInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	return append([]core.AccessKeyInfo(nil), p.keys[accountID]...), nil
}

func (p *fakeProvider) Block(ctx context.Context, finality core.Finality) (*core.Block, error) {
	return &core.Block{Header: core.BlockHeader{Height: 100, Hash: base58.Encode(p.blockHash[:])}}, nil
}

func (p *fakeProvider) SendTransaction(ctx context.Context, tx *core.SignedTransaction) (*core.TransactionOutcome, error) {
	hash, err := tx.Transaction.Hash()
	if err != nil {
		return nil, err
	}
	return &core.TransactionOutcome{TransactionHash: core.EncodeHash(hash)}, nil
}

type signCall struct {
	accountID  string
	receiverID string
	actions    []core.Action
}

type fakeSigner struct {
	mu        sync.Mutex
	publicKey core.PublicKey
	signErr   error
	calls     []signCall
}

func (s *fakeSigner) PublicKey(ctx context.Context, accountID, networkID string) (core.PublicKey, error) {
	return s.publicKey, nil
}

func (s *fakeSigner) SignAndSendTransaction(ctx context.Context, accountID, receiverID string, actions []core.Action) (*core.TransactionOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, signCall{accountID: accountID, receiverID: receiverID, actions: actions})
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &core.TransactionOutcome{TransactionHash: "local-hash"}, nil
}

type recordedEvent struct {
	kind string
	args []string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) record(kind string, args ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: kind, args: args})
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.kind)
	}
	return out
}

func (p *recordingPublisher) PublishSignIn(ctx context.Context, accountID string, allKeys []string) error {
	return p.record("sign_in", accountID)
}

func (p *recordingPublisher) PublishSignInFailed(ctx context.Context, code, message string) error {
	return p.record("sign_in_failed", code, message)
}

func (p *recordingPublisher) PublishKeyPromoted(ctx context.Context, networkID, accountID, publicKey string) error {
	return p.record("key_promoted", networkID, accountID, publicKey)
}

func (p *recordingPublisher) PublishRedirect(ctx context.Context, kind, target string) error {
	return p.record("redirect", kind, target)
}

func (p *recordingPublisher) PublishSignOut(ctx context.Context, accountID string) error {
	return p.record("sign_out", accountID)
}
