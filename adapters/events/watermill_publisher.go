// Package events publishes admission outcomes to the rest of the
// marketplace over Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/agora-market/admission/ports"
)

const (
	// TopicAccountActivated announces that registration completed and the
	// account is active.
	TopicAccountActivated = "admission.account.activated"

	// TopicSessionVerified announces a successful identity proof.
	TopicSessionVerified = "admission.session.verified"
)

// AccountActivatedEvent is the payload for TopicAccountActivated.
type AccountActivatedEvent struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key,omitempty"`
}

// SessionVerifiedEvent is the payload for TopicSessionVerified.
type SessionVerifiedEvent struct {
	SessionID string `json:"session_id"`
	PublicKey string `json:"public_key"`
}

// WatermillPublisher implements the EventPublisher port using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishAccountActivated publishes an account activation event.
func (p *WatermillPublisher) PublishAccountActivated(ctx context.Context, username, publicKey string) error {
	return p.publish(TopicAccountActivated, username, AccountActivatedEvent{
		Username:  username,
		PublicKey: publicKey,
	})
}

// PublishSessionVerified publishes a session verification event.
func (p *WatermillPublisher) PublishSessionVerified(ctx context.Context, sessionID, publicKey string) error {
	return p.publish(TopicSessionVerified, sessionID, SessionVerifiedEvent{
		SessionID: sessionID,
		PublicKey: publicKey,
	})
}

func (p *WatermillPublisher) publish(topic, id string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
