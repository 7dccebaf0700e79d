package domain

import "strings"

// WidgetConfig holds UI configuration for the chat front-end
type WidgetConfig struct {
	GoogleClientID string        `json:"google_client_id,omitempty"`
	DailyLimit     int           `json:"daily_limit"`
	Topics         []TopicConfig `json:"topics"`
}

// TopicConfig holds the per-topic copy shown by the chat front-end
type TopicConfig struct {
	ID          Topic  `json:"id"`
	Name        string `json:"name"`
	Heading     string `json:"heading"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder"`
}

// DefaultTopicConfig returns the copy shown for t when it has no messages yet.
func DefaultTopicConfig(t Topic) TopicConfig {
	return TopicConfig{
		ID:          t,
		Name:        t.DisplayName(),
		Heading:     "Chat with " + t.DisplayName() + " Documentation",
		Description: "Ask questions about " + string(t) + " and get answers backed by official documentation.",
		Placeholder: "Ask about " + strings.ToLower(t.DisplayName()) + "...",
	}
}
