package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/walletredirect/ports"
)

// Topics the publisher writes to.
const (
	TopicSignIn       = "walletredirect.sign_in"
	TopicSignInFailed = "walletredirect.sign_in_failed"
	TopicKeyPromoted  = "walletredirect.key_promoted"
	TopicRedirect     = "walletredirect.redirect"
	TopicSignOut      = "walletredirect.sign_out"
)

// SignInEvent is published when a wallet callback establishes a session
type SignInEvent struct {
	AccountID string    `json:"account_id"`
	AllKeys   []string  `json:"all_keys"`
	At        time.Time `json:"at"`
}

// SignInFailedEvent is published when the wallet returns an error
type SignInFailedEvent struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// KeyPromotedEvent is published when a pending key becomes permanent
type KeyPromotedEvent struct {
	NetworkID string    `json:"network_id"`
	AccountID string    `json:"account_id"`
	PublicKey string    `json:"public_key"`
	At        time.Time `json:"at"`
}

// RedirectEvent is published right before navigating to the wallet
type RedirectEvent struct {
	Kind   string    `json:"kind"`
	Target string    `json:"target"`
	At     time.Time `json:"at"`
}

// SignOutEvent is published when a session is removed
type SignOutEvent struct {
	AccountID string    `json:"account_id"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

func (p *WatermillPublisher) PublishSignIn(ctx context.Context, accountID string, allKeys []string) error {
	return p.publish(ctx, TopicSignIn, SignInEvent{AccountID: accountID, AllKeys: allKeys, At: p.now()})
}

func (p *WatermillPublisher) PublishSignInFailed(ctx context.Context, code, msg string) error {
	return p.publish(ctx, TopicSignInFailed, SignInFailedEvent{Code: code, Message: msg, At: p.now()})
}

func (p *WatermillPublisher) PublishKeyPromoted(ctx context.Context, networkID, accountID, publicKey string) error {
	return p.publish(ctx, TopicKeyPromoted, KeyPromotedEvent{
		NetworkID: networkID,
		AccountID: accountID,
		PublicKey: publicKey,
		At:        p.now(),
	})
}

func (p *WatermillPublisher) PublishRedirect(ctx context.Context, kind, target string) error {
	return p.publish(ctx, TopicRedirect, RedirectEvent{Kind: kind, Target: target, At: p.now()})
}

func (p *WatermillPublisher) PublishSignOut(ctx context.Context, accountID string) error {
	return p.publish(ctx, TopicSignOut, SignOutEvent{AccountID: accountID, At: p.now()})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
