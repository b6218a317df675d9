package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the account service
const (
	SubjectFollowCreated     = "account.follow.created"
	SubjectFollowDeleted     = "account.follow.deleted"
	SubjectCreditTransferred = "account.credit.transferred"
	SubjectCreditAdded       = "account.credit.added"
)

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// FollowEvent is the payload of follow subjects
type FollowEvent struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	At          time.Time `json:"at"`
}

// CreditEvent is the payload of credit subjects
type CreditEvent struct {
	EntryID string    `json:"entry_id"`
	FromID  string    `json:"from_id,omitempty"`
	ToID    string    `json:"to_id"`
	Amount  int64     `json:"amount"`
	At      time.Time `json:"at"`
}

// NATSPublisher publishes JSON-encoded events on a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("dispatch-account"))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
