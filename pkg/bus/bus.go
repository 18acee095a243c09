// Package bus carries messages between work-groups: handoffs, requests,
// and broadcasts. Messages live in memory and can optionally be mirrored
// to a JSON file under a registry directory so external tools can inspect
// the queue.
package bus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Priority orders message delivery within a recipient's queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status tracks a message through its lifecycle.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
)

// Message is one unit of inter-agency communication.
type Message struct {
	ID             string          `json:"id"`
	From           string          `json:"from_agency"`
	To             string          `json:"to_agency"`
	Type           string          `json:"type"`
	Priority       Priority        `json:"priority"`
	Payload        json.RawMessage `json:"payload"`
	Status         Status          `json:"status"`
	SentAt         time.Time       `json:"sent_at"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
}

// Bus is a mutex-guarded in-memory message queue.
type Bus struct {
	mu        sync.Mutex
	messages  []Message
	queueFile string
}

// Option configures a Bus.
type Option func(*Bus)

// WithRegistryDir mirrors the queue to <dir>/message_queue.json after
// every mutation.
func WithRegistryDir(dir string) Option {
	return func(b *Bus) {
		b.queueFile = filepath.Join(dir, "message_queue.json")
	}
}

// New creates a message bus.
func New(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Send enqueues a message and returns its id.
func (b *Bus) Send(from, to, msgType string, priority Priority, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	if priority == "" {
		priority = PriorityMedium
	}

	msg := Message{
		ID:       "msg-" + uuid.NewString(),
		From:     from,
		To:       to,
		Type:     msgType,
		Priority: priority,
		Payload:  raw,
		Status:   StatusPending,
		SentAt:   time.Now(),
	}

	b.mu.Lock()
	b.messages = append(b.messages, msg)
	err = b.persistLocked()
	b.mu.Unlock()
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Broadcast sends the same message to every listed recipient.
func (b *Bus) Broadcast(from string, recipients []string, msgType string, payload any) ([]string, error) {
	ids := make([]string, 0, len(recipients))
	for _, to := range recipients {
		id, err := b.Send(from, to, msgType, PriorityMedium, payload)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Pending returns the undelivered messages addressed to an agency, high
// priority first, then send order.
func (b *Bus) Pending(agency string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	var high, rest []Message
	for _, msg := range b.messages {
		if msg.To != agency || msg.Status != StatusPending {
			continue
		}
		if msg.Priority == PriorityHigh {
			high = append(high, msg)
		} else {
			rest = append(rest, msg)
		}
	}
	return append(high, rest...)
}

// Acknowledge marks a message as processed.
func (b *Bus) Acknowledge(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.messages {
		if b.messages[i].ID != id {
			continue
		}
		if b.messages[i].Status == StatusAcknowledged {
			return nil
		}
		now := time.Now()
		b.messages[i].Status = StatusAcknowledged
		b.messages[i].AcknowledgedAt = &now
		return b.persistLocked()
	}
	return fmt.Errorf("message %q not found", id)
}

type queueFile struct {
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
	Version     string    `json:"version"`
}

func (b *Bus) persistLocked() error {
	if b.queueFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.queueFile), 0o755); err != nil {
		return fmt.Errorf("failed to create registry dir: %w", err)
	}
	data, err := json.MarshalIndent(queueFile{
		Messages:    b.messages,
		LastUpdated: time.Now(),
		Version:     "1.0",
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.queueFile, data, 0o644)
}
