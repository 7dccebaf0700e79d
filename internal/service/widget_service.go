package service

import (
	"context"

	"github.com/liliang-cn/doc0/internal/config"
	"github.com/liliang-cn/doc0/internal/domain"
)

// IdentityReader exposes the signed-in identity.
type IdentityReader interface {
	Identity() (domain.Identity, bool)
}

// WidgetState is everything the chat front-end needs to render itself
type WidgetState struct {
	Config      domain.WidgetConfig `json:"config"`
	ActiveTopic domain.Topic        `json:"active_topic"`
	Messages    []domain.Message    `json:"messages"`
	Quota       domain.QuotaWindow  `json:"quota"`
	User        *domain.Identity    `json:"user,omitempty"`
	BaseURL     string              `json:"base_url"`
}

// WidgetService handles chat front-end state
type WidgetService struct {
	cfg           *config.Config
	conversations Conversations
	quota         QuotaGate
	identity      IdentityReader
}

// NewWidgetService creates a new widget service
func NewWidgetService(
	cfg *config.Config,
	conversations Conversations,
	quota QuotaGate,
	identity IdentityReader,
) *WidgetService {
	return &WidgetService{
		cfg:           cfg,
		conversations: conversations,
		quota:         quota,
		identity:      identity,
	}
}

// GetWidgetConfig returns the static front-end configuration
func (s *WidgetService) GetWidgetConfig() domain.WidgetConfig {
	topics := make([]domain.TopicConfig, 0, len(domain.Topics()))
	for _, t := range domain.Topics() {
		topics = append(topics, domain.DefaultTopicConfig(t))
	}
	return domain.WidgetConfig{
		GoogleClientID: s.cfg.Auth.GoogleClientID,
		DailyLimit:     s.cfg.Quota.DailyLimit,
		Topics:         topics,
	}
}

// Snapshot returns the state of the active topic
func (s *WidgetService) Snapshot(ctx context.Context) *WidgetState {
	active := s.conversations.Active()
	state := &WidgetState{
		Config:      s.GetWidgetConfig(),
		ActiveTopic: active,
		Messages:    s.conversations.Messages(active),
		Quota:       s.quota.Window(ctx),
		BaseURL:     s.cfg.Server.BaseURL,
	}
	if identity, ok := s.identity.Identity(); ok {
		state.User = &identity
	}
	return state
}

// SwitchTopic makes name the active topic
func (s *WidgetService) SwitchTopic(name string) (domain.Topic, error) {
	topic, err := domain.ParseTopic(name)
	if err != nil {
		return "", err
	}
	if err := s.conversations.Switch(topic); err != nil {
		return "", err
	}
	return topic, nil
}

// Messages returns the history of the named topic
func (s *WidgetService) Messages(name string) ([]domain.Message, error) {
	topic, err := domain.ParseTopic(name)
	if err != nil {
		return nil, err
	}
	return s.conversations.Messages(topic), nil
}

// Quota returns the current anonymous quota window
func (s *WidgetService) Quota(ctx context.Context) domain.QuotaWindow {
	return s.quota.Window(ctx)
}
