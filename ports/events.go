package ports

import "context"

// EventPublisher publishes wallet connection events
type EventPublisher interface {
	PublishSignIn(ctx context.Context, accountID string, allKeys []string) error
	PublishSignInFailed(ctx context.Context, code, message string) error
	PublishKeyPromoted(ctx context.Context, networkID, accountID, publicKey string) error
	PublishRedirect(ctx context.Context, kind, target string) error
	PublishSignOut(ctx context.Context, accountID string) error
}
