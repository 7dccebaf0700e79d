package service

import (
	"context"
	"fmt"

	"github.com/liliang-cn/doc0/internal/domain"
)

// ChatCounter counts persisted user messages. Optional.
type ChatCounter interface {
	CountChats(ctx context.Context) (int, error)
}

// AdminService handles admin operations
type AdminService struct {
	conversations Conversations
	quota         QuotaGate
	auth          Authenticator
	counter       ChatCounter
}

// NewAdminService creates a new admin service. counter may be nil when
// history is not persisted.
func NewAdminService(conversations Conversations, quota QuotaGate, auth Authenticator, counter ChatCounter) *AdminService {
	return &AdminService{
		conversations: conversations,
		quota:         quota,
		auth:          auth,
		counter:       counter,
	}
}

// GetStats returns conversation and quota statistics
func (s *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{
		MessagesPerTopic: s.conversations.Counts(),
		Quota:            s.quota.Window(ctx),
		Authenticated:    s.auth.IsAuthenticated(),
	}

	for _, topic := range domain.Topics() {
		for _, m := range s.conversations.Messages(topic) {
			if m.Role == domain.RoleUser {
				stats.TotalChats++
			}
		}
	}

	if s.counter != nil {
		stored, err := s.counter.CountChats(ctx)
		if err != nil {
			return nil, fmt.Errorf("count stored chats: %w", err)
		}
		stats.StoredChats = stored
	}

	return stats, nil
}
