// Package conversation keeps an append-only message log per documentation topic.
package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/liliang-cn/doc0/internal/domain"
	"go.uber.org/zap"
)

// Journal persists appended messages. Optional.
type Journal interface {
	AppendMessage(ctx context.Context, message domain.Message) error
	ListMessages(ctx context.Context, topic domain.Topic) ([]domain.Message, error)
}

// Store holds the conversation for every topic and which one is active.
type Store struct {
	journal Journal
	logger  *zap.Logger

	mu       sync.RWMutex
	active   domain.Topic
	messages map[domain.Topic][]domain.Message
}

// NewStore creates a store with an empty sequence for every topic.
// active must be one of topics.
func NewStore(active domain.Topic, topics []domain.Topic, journal Journal, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	messages := make(map[domain.Topic][]domain.Message, len(topics))
	for _, t := range topics {
		messages[t] = []domain.Message{}
	}
	if _, ok := messages[active]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTopic, string(active))
	}

	return &Store{
		journal:  journal,
		logger:   logger,
		active:   active,
		messages: messages,
	}, nil
}

// Restore loads every topic's history from the journal.
func (s *Store) Restore(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for topic := range s.messages {
		msgs, err := s.journal.ListMessages(ctx, topic)
		if err != nil {
			return fmt.Errorf("restore %s history: %w", topic, err)
		}
		s.messages[topic] = append([]domain.Message{}, msgs...)
	}
	return nil
}

// Append adds message to the end of topic's sequence, creating it if absent.
func (s *Store) Append(ctx context.Context, topic domain.Topic, message domain.Message) {
	message.Topic = topic
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.messages[topic] = append(s.messages[topic], message)
	s.mu.Unlock()

	if s.journal != nil {
		// The journal follows the in-memory append even when ctx is cancelled.
		if err := s.journal.AppendMessage(context.WithoutCancel(ctx), message); err != nil {
			s.logger.Warn("Failed to persist message",
				zap.String("topic", string(topic)),
				zap.String("message_id", message.ID),
				zap.Error(err),
			)
		}
	}
}

// Messages returns a copy of topic's sequence.
func (s *Store) Messages(topic domain.Topic) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages[topic]))
	copy(out, s.messages[topic])
	return out
}

// Switch makes topic the active one without touching any sequence.
func (s *Store) Switch(topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[topic]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTopic, string(topic))
	}
	s.active = topic
	return nil
}

// Active returns the active topic.
func (s *Store) Active() domain.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Counts returns the number of messages per topic.
func (s *Store) Counts() map[domain.Topic]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Topic]int, len(s.messages))
	for t, msgs := range s.messages {
		counts[t] = len(msgs)
	}
	return counts
}
