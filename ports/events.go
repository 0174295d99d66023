package ports

import "context"

// EventPublisher notifies the rest of the marketplace about admission
// outcomes. Publishing is a side effect: a failure here must never undo or
// mask a successful admission, and must never be silently dropped either.
type EventPublisher interface {
	PublishAccountActivated(ctx context.Context, username, publicKey string) error
	PublishSessionVerified(ctx context.Context, sessionID, publicKey string) error
}
